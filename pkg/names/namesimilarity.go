package names

import "strings"

// Similarity scores how alike two place names are on a 0.0 to 1.0 scale.
// Case-insensitive equality scores 1.0. Otherwise the score is the number of
// token pairs that are equal or contain one another, over the larger token
// count after noise stripping, with a 0.2 bonus when the leading tokens
// agree. Symmetric and deterministic.
func Similarity(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}

	tokensA := comparableTokens(a)
	tokensB := comparableTokens(b)

	matched := make([]bool, len(tokensB))
	matches := 0
	for _, ta := range tokensA {
		for j, tb := range tokensB {
			if matched[j] || !tokensAlike(ta, tb) {
				continue
			}
			matched[j] = true
			matches++
			break
		}
	}

	larger := len(tokensA)
	if len(tokensB) > larger {
		larger = len(tokensB)
	}
	score := float64(matches) / float64(larger)

	if tokensAlike(tokensA[0], tokensB[0]) {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// comparableTokens strips noise from a name's tokens, falling back to the raw
// tokens when the name is nothing but noise.
func comparableTokens(name string) []string {
	tokens := tokenize(name)
	if kept := stripNoise(tokens); len(kept) > 0 {
		return kept
	}
	return tokens
}

// tokensAlike reports whether two tokens are equal or one contains the other.
func tokensAlike(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
