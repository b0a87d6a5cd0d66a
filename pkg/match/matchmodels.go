// Package match cross-references one trail record against the candidates a
// place search returned for it, scoring each candidate and deciding whether
// any is a confident enough match to lift rating data from.
package match

// Config holds the scoring weights and acceptance thresholds. The defaults
// are tuned for trail-name vs commercial-listing matching; relative ordering
// of the weights is what the selector depends on.
type Config struct {
	// NameWeight scales the 0-1 name similarity into score points.
	NameWeight float64
	// CategoryBonus is added when a candidate carries an outdoor category tag.
	CategoryBonus float64
	// RatedBonus is added flat for any candidate that has a rating at all.
	// It deliberately dominates: an unrated listing is a weak signal even on
	// a perfect name match.
	RatedBonus float64
	// RatedThreshold accepts the best rated candidate.
	RatedThreshold float64
	// OverallThreshold accepts the best candidate regardless of rating.
	OverallThreshold float64
}

// DefaultConfig returns the tuned production weights.
func DefaultConfig() Config {
	return Config{
		NameWeight:       30,
		CategoryBonus:    10,
		RatedBonus:       30,
		RatedThreshold:   35,
		OverallThreshold: 50,
	}
}

// Result is the outcome of one match decision. A zero Result means no
// confident match. Rating and RatingCount are copied from the accepted
// candidate and stay nil when it had none; they are never synthesized.
type Result struct {
	Matched     bool     `json:"matched"`
	Name        string   `json:"name,omitempty"`
	Score       float64  `json:"score,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
}
