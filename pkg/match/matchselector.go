package match

import (
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/places"
)

// Select scores every candidate against the trail and applies the two-track
// decision rule: the best rated candidate is accepted first against the
// lower rated threshold, then the best candidate overall against the higher
// one. The asymmetry resists a wrong-but-similarly-named business beating a
// correct, oddly named trailhead that happens to carry a rating. Ties keep
// the earlier candidate, so the decision is deterministic for a given input
// order.
func (c Config) Select(candidates []places.Candidate, trailName string, trailAt geo.Point) Result {
	var (
		bestOverall      places.Candidate
		bestRated        places.Candidate
		bestOverallScore = -1.0
		bestRatedScore   = -1.0
	)

	for _, candidate := range candidates {
		s := c.Score(candidate, trailName, trailAt)
		if s > bestOverallScore {
			bestOverall, bestOverallScore = candidate, s
		}
		if candidate.Rating != nil && s > bestRatedScore {
			bestRated, bestRatedScore = candidate, s
		}
	}

	if bestRatedScore >= c.RatedThreshold {
		return accepted(bestRated, bestRatedScore)
	}
	if bestOverallScore >= c.OverallThreshold {
		return accepted(bestOverall, bestOverallScore)
	}
	return Result{}
}

func accepted(candidate places.Candidate, score float64) Result {
	return Result{
		Matched:     true,
		Name:        candidate.Name,
		Score:       score,
		Rating:      candidate.Rating,
		RatingCount: candidate.RatingCount,
	}
}
