// Package scoring implements the quadrant classifier and scorer:
// three-quadrant classification, dynamic weighted scoring, mixed sort, and
// smart selection.
//
// This is the three-quadrant system. The legacy four-quadrant logic
// described in original_source/backend/app/routers/simple_recommend_router.py's
// /system-info endpoint is deliberately not resurrected here.
package scoring

import (
	"math/rand"
	"sort"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/filter"
)

// Quadrant classifies a candidate by (embedding-score high?, match-ratio
// high?).
type Quadrant string

const (
	Q1Perfect           Quadrant = "q1_perfect_match"
	Q2SemanticDiscovery Quadrant = "q2_semantic_discovery"
	Q4Fallback          Quadrant = "q4_fallback"
)

// priority returns the quadrant's mixed-sort priority: lower sorts first.
func (q Quadrant) priority() int {
	switch q {
	case Q1Perfect:
		return 1
	case Q2SemanticDiscovery:
		return 2
	default:
		return 3
	}
}

// Thresholds configures the quadrant-classification boundary.
type Thresholds struct {
	HighEmbedding float64 // default 0.60
	HighMatch     float64 // default 0.40
}

// Weights is one quadrant's scoring weight vector. Feature is carried
// through from configuration but does not enter the final score.
type Weights struct {
	Embedding  float64
	MatchRatio float64
	Feature    float64
}

// WeightTable holds the per-quadrant weight vectors.
type WeightTable struct {
	Q1 Weights
	Q2 Weights
	Q4 Weights
}

// DefaultThresholds returns the pipeline's default classification boundary.
func DefaultThresholds() Thresholds {
	return Thresholds{HighEmbedding: 0.60, HighMatch: 0.40}
}

// DefaultWeights returns the pipeline's default per-quadrant weight vectors.
func DefaultWeights() WeightTable {
	return WeightTable{
		Q1: Weights{Embedding: 0.50, MatchRatio: 0.20},
		Q2: Weights{Embedding: 0.70, MatchRatio: 0.20},
		Q4: Weights{Embedding: 0.30, MatchRatio: 0.30},
	}
}

// Candidate is a filter.Scored candidate enriched with quadrant and final
// score, the shape produced by Classify.
type Candidate struct {
	Movie          movie.Movie
	EmbeddingScore float64
	MatchRatio     float64
	MatchCount     int
	TotalFeatures  int
	Quadrant       Quadrant
	FinalScore     float64
}

// Classify assigns a single candidate to a quadrant, then computes its
// quadrant-specific weighted score.
func Classify(s filter.Scored, thresholds Thresholds, weights WeightTable) Candidate {
	hiE := s.EmbeddingScore >= thresholds.HighEmbedding
	hiM := s.MatchRatio >= thresholds.HighMatch

	var quadrant Quadrant
	switch {
	case hiE && hiM:
		quadrant = Q1Perfect
	case hiE && !hiM:
		quadrant = Q2SemanticDiscovery
	default:
		quadrant = Q4Fallback
	}

	w := weightsFor(quadrant, weights)
	finalScore := w.Embedding*(s.EmbeddingScore*100) + w.MatchRatio*(s.MatchRatio*100)

	return Candidate{
		Movie:          s.Movie,
		EmbeddingScore: s.EmbeddingScore,
		MatchRatio:     s.MatchRatio,
		MatchCount:     s.MatchCount,
		TotalFeatures:  s.TotalFeatures,
		Quadrant:       quadrant,
		FinalScore:     finalScore,
	}
}

func weightsFor(q Quadrant, weights WeightTable) Weights {
	switch q {
	case Q1Perfect:
		return weights.Q1
	case Q2SemanticDiscovery:
		return weights.Q2
	default:
		return weights.Q4
	}
}

// ClassifyAll applies Classify to every scored candidate.
func ClassifyAll(scored []filter.Scored, thresholds Thresholds, weights WeightTable) []Candidate {
	out := make([]Candidate, len(scored))
	for i, s := range scored {
		out[i] = Classify(s, thresholds, weights)
	}
	return out
}

// MixedSort orders candidates by quadrant priority, then final_score
// descending, then movie_id ascending (deterministic tiebreak).
func MixedSort(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Quadrant.priority(), candidates[j].Quadrant.priority()
		if pi != pj {
			return pi < pj
		}
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		return candidates[i].Movie.ID.Value() < candidates[j].Movie.ID.Value()
	})
}

// SelectionConfig parameterizes smart selection.
type SelectionConfig struct {
	GuaranteedTop  int // default 3
	RandomPoolSize int // default 30
}

// DefaultSelectionConfig returns the pipeline's default selection sizing.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{GuaranteedTop: 3, RandomPoolSize: 30}
}

// SmartSelect takes a deterministic prefix of the mixed-sorted list,
// followed by a seeded-RNG sample (without replacement) from the next
// RandomPoolSize entries, concatenated in that order. rng must be
// request-local (never a package-level global) for cross-request
// concurrency safety.
func SmartSelect(sorted []Candidate, count int, cfg SelectionConfig, rng *rand.Rand) []Candidate {
	if count <= 0 || len(sorted) == 0 {
		return nil
	}
	if count >= len(sorted) {
		return append([]Candidate{}, sorted...)
	}

	guaranteedN := cfg.GuaranteedTop
	if guaranteedN > count {
		guaranteedN = count
	}
	if guaranteedN > len(sorted) {
		guaranteedN = len(sorted)
	}

	deterministic := sorted[:guaranteedN]
	remaining := count - guaranteedN
	if remaining <= 0 {
		return append([]Candidate{}, deterministic...)
	}

	poolEnd := guaranteedN + cfg.RandomPoolSize
	if poolEnd > len(sorted) {
		poolEnd = len(sorted)
	}
	pool := sorted[guaranteedN:poolEnd]

	if remaining >= len(pool) {
		out := append([]Candidate{}, deterministic...)
		return append(out, pool...)
	}

	indices := rng.Perm(len(pool))[:remaining]
	sort.Ints(indices) // preserve the pool's relative (score-sorted) order among picks
	picked := make([]Candidate, remaining)
	for i, idx := range indices {
		picked[i] = pool[idx]
	}

	out := append([]Candidate{}, deterministic...)
	return append(out, picked...)
}
