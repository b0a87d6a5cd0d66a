package match

import (
	"strings"

	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/names"
	"github.com/ramble-labs/trailscout/pkg/places"
)

// outdoorCategories are the provider tags that mark a candidate as an
// outdoor point of interest rather than a commercial listing.
var outdoorCategories = map[string]struct{}{
	"park":               {},
	"tourist_attraction": {},
	"natural_feature":    {},
	"point_of_interest":  {},
	"campground":         {},
	"hiking_area":        {},
}

// Distance, rating-magnitude and popularity bands, strongest first. The
// scorer takes the first band that applies.
var proximityBands = []struct {
	withinKm float64
	bonus    float64
}{
	{withinKm: 1, bonus: 20},
	{withinKm: 5, bonus: 15},
	{withinKm: 10, bonus: 10},
	{withinKm: 20, bonus: 5},
}

var ratingBands = []struct {
	atLeast float64
	bonus   float64
}{
	{atLeast: 4.5, bonus: 10},
	{atLeast: 4.0, bonus: 7},
	{atLeast: 3.5, bonus: 5},
}

var popularityBands = []struct {
	above int
	bonus float64
}{
	{above: 200, bonus: 20},
	{above: 100, bonus: 17},
	{above: 50, bonus: 14},
	{above: 20, bonus: 10},
	{above: 5, bonus: 6},
}

// Score rates one candidate against a trail by adding up independent
// signals: name similarity, proximity to the trail position, category
// relevance, presence and magnitude of a rating, and rating volume. The
// value is only ever compared against other scores and the Config
// thresholds, never normalized. Maximum with default weights is about 120.
func (c Config) Score(candidate places.Candidate, trailName string, trailAt geo.Point) float64 {
	score := names.Similarity(trailName, candidate.Name) * c.NameWeight

	distance := geo.DistanceKm(trailAt, candidate.Location)
	for _, band := range proximityBands {
		if distance < band.withinKm {
			score += band.bonus
			break
		}
	}

	for _, tag := range candidate.Categories {
		if _, outdoor := outdoorCategories[strings.ToLower(tag)]; outdoor {
			score += c.CategoryBonus
			break
		}
	}

	if candidate.Rating != nil {
		score += c.RatedBonus
		for _, band := range ratingBands {
			if *candidate.Rating >= band.atLeast {
				score += band.bonus
				break
			}
		}
	}

	if candidate.RatingCount != nil {
		for _, band := range popularityBands {
			if *candidate.RatingCount > band.above {
				score += band.bonus
				break
			}
		}
	}

	return score
}
