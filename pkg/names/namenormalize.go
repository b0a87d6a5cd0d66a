// Package names normalizes trail names for place-provider queries and scores
// how alike two place names are. Trail names carry generic vocabulary
// ("track", "scenic reserve") that harms text search; the distinctive locality
// words are what identify a trail.
package names

import "strings"

// searchKeyword is appended to every normalized query so providers surface
// trailhead listings rather than unrelated businesses with the same locality
// name.
const searchKeyword = "track"

// noiseWords are generic trail vocabulary stripped before searching and
// matching. Words like "lookout" or "summit" stay: they distinguish sibling
// trails that share a locality name.
var noiseWords = map[string]struct{}{
	"track":   {},
	"trail":   {},
	"walk":    {},
	"walks":   {},
	"walkway": {},
	"scenic":  {},
	"reserve": {},
	"route":   {},
	"path":    {},
	"loop":    {},
	"circuit": {},
}

// NormalizeForSearch lowers the name, strips noise words, collapses
// whitespace, and appends the domain search keyword. A name made entirely of
// noise words is returned unchanged so the query is never empty.
func NormalizeForSearch(name string) string {
	kept := stripNoise(tokenize(name))
	if len(kept) == 0 {
		return name
	}
	return strings.Join(kept, " ") + " " + searchKeyword
}

// tokenize splits a name into lower-cased whitespace-delimited tokens.
func tokenize(name string) []string {
	return strings.Fields(strings.ToLower(name))
}

// stripNoise filters noise words out of a token list.
func stripNoise(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, noisy := noiseWords[tok]; noisy {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}
