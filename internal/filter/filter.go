// Package filter implements the tiered feature filter: hard filters
// followed by match-ratio scoring and a three-tier fallback selection.
package filter

import (
	"sort"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/internal/mapping"
)

// Candidate is a movie enriched with its embedding score, the shape that
// reaches the filter from the global semantic search stage.
type Candidate struct {
	Movie          movie.Movie
	EmbeddingScore float64
}

// Scored is a Candidate enriched with the filter's match-ratio annotations,
// the shape that leaves Filter and feeds the quadrant classifier.
type Scored struct {
	Movie          movie.Movie
	EmbeddingScore float64
	MatchRatio     float64
	MatchCount     int
	TotalFeatures  int
}

// Tiers configures the three-tier fallback's boundaries.
type Tiers struct {
	Tier1Threshold float64 // default 0.80
	Tier2Threshold float64 // default 0.50
}

// DefaultTiers returns the pipeline's default tier boundaries.
func DefaultTiers() Tiers {
	return Tiers{Tier1Threshold: tier1Threshold, Tier2Threshold: tier2Threshold}
}

// Filter runs hard filters, then match-ratio computation, then three-tier
// fallback selection, returning at most targetCount entries.
func Filter(candidates []Candidate, features feature.CanonicalFeatures, targetCount int) []Scored {
	return FilterWithTiers(candidates, features, targetCount, DefaultTiers())
}

// FilterWithTiers is Filter parameterized by the configured tier
// boundaries (feature_filtering.tier1_threshold/tier2_threshold).
func FilterWithTiers(candidates []Candidate, features feature.CanonicalFeatures, targetCount int, tiers Tiers) []Scored {
	hardFiltered := applyHardFilters(candidates, features)
	if len(hardFiltered) == 0 {
		return nil
	}

	scored := make([]Scored, len(hardFiltered))
	for i, c := range hardFiltered {
		scored[i] = computeMatchRatio(c, features)
	}

	return selectByTier(scored, targetCount, tiers)
}

func applyHardFilters(candidates []Candidate, features feature.CanonicalFeatures) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(features.Genres) > 0 && !c.Movie.HasAnyGenre(features.Genres) {
			continue
		}
		if features.MinRating != nil && c.Movie.VoteAverage.Value() < *features.MinRating {
			continue
		}
		if len(features.YearRanges) > 0 && !yearInAnyRange(c.Movie, features.YearRanges) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func yearInAnyRange(m movie.Movie, ranges []mapping.YearRange) bool {
	year, ok := m.ReleaseYear()
	if !ok {
		return false
	}
	for _, r := range ranges {
		if year >= r.Min && year <= r.Max {
			return true
		}
	}
	return false
}

func computeMatchRatio(c Candidate, features feature.CanonicalFeatures) Scored {
	total := len(features.Keywords) + len(features.MoodTags) + len(features.Genres)

	matched := 0
	for _, k := range features.Keywords {
		if c.Movie.HasKeyword(k) {
			matched++
		}
	}
	for _, mt := range features.MoodTags {
		if c.Movie.HasMoodTag(mt) {
			matched++
		}
	}
	for _, g := range features.Genres {
		if c.Movie.HasGenre(g) {
			matched++
		}
	}

	ratio := 1.0
	if total > 0 {
		ratio = float64(matched) / float64(total)
	}

	return Scored{
		Movie:          c.Movie,
		EmbeddingScore: c.EmbeddingScore,
		MatchRatio:     ratio,
		MatchCount:     matched,
		TotalFeatures:  total,
	}
}

const (
	tier1Threshold = 0.80
	tier2Threshold = 0.50
)

// selectByTier implements the three-tier fallback selection.
func selectByTier(scored []Scored, targetCount int, tiers Tiers) []Scored {
	var tier1, tier2, tier3 []Scored
	for _, s := range scored {
		switch {
		case s.MatchRatio >= tiers.Tier1Threshold:
			tier1 = append(tier1, s)
		case s.MatchRatio >= tiers.Tier2Threshold:
			tier2 = append(tier2, s)
		default:
			tier3 = append(tier3, s)
		}
	}

	sortByMatchThenEmbedding(tier1)
	if len(tier1) >= targetCount {
		return tier1[:targetCount]
	}

	combined12 := append(append([]Scored{}, tier1...), tier2...)
	sortByMatchThenEmbedding(combined12)
	if len(combined12) >= targetCount {
		return combined12[:targetCount]
	}

	sortByEmbedding(tier3)
	all := append(combined12, tier3...)
	if len(all) > targetCount {
		all = all[:targetCount]
	}
	return all
}

func sortByMatchThenEmbedding(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].MatchRatio != s[j].MatchRatio {
			return s[i].MatchRatio > s[j].MatchRatio
		}
		return s[i].EmbeddingScore > s[j].EmbeddingScore
	})
}

func sortByEmbedding(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].EmbeddingScore > s[j].EmbeddingScore
	})
}
