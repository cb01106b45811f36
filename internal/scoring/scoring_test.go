package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	"movie-recommend-engine/internal/filter"
)

func scoredWith(t *testing.T, id int, embeddingScore, matchRatio float64) filter.Scored {
	t.Helper()
	mid, err := shared.NewMovieID(id)
	require.NoError(t, err)
	return filter.Scored{
		Movie:          movie.Movie{ID: mid},
		EmbeddingScore: embeddingScore,
		MatchRatio:     matchRatio,
	}
}

func TestClassify_Quadrants(t *testing.T) {
	thresholds := DefaultThresholds()
	weights := DefaultWeights()

	cases := []struct {
		name     string
		e, m     float64
		quadrant Quadrant
	}{
		{"high embedding, high match -> Q1", 0.8, 0.5, Q1Perfect},
		{"high embedding, low match -> Q2", 0.8, 0.1, Q2SemanticDiscovery},
		{"low embedding, high match -> Q4", 0.2, 0.5, Q4Fallback},
		{"low embedding, low match -> Q4", 0.2, 0.1, Q4Fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(scoredWith(t, 1, tc.e, tc.m), thresholds, weights)
			assert.Equal(t, tc.quadrant, c.Quadrant)
		})
	}
}

func TestClassify_FinalScoreUsesQuadrantWeights(t *testing.T) {
	c := Classify(scoredWith(t, 1, 0.8, 0.5), DefaultThresholds(), DefaultWeights())
	assert.Equal(t, Q1Perfect, c.Quadrant)
	want := 0.50*(0.8*100) + 0.20*(0.5*100)
	assert.InDelta(t, want, c.FinalScore, 0.001)
}

func TestMixedSort_OrdersByQuadrantThenScoreThenID(t *testing.T) {
	q2 := Classify(scoredWith(t, 3, 0.8, 0.1), DefaultThresholds(), DefaultWeights())
	q1low := Classify(scoredWith(t, 2, 0.61, 0.41), DefaultThresholds(), DefaultWeights())
	q1high := Classify(scoredWith(t, 1, 0.99, 0.99), DefaultThresholds(), DefaultWeights())

	candidates := []Candidate{q2, q1low, q1high}
	MixedSort(candidates)

	require.Len(t, candidates, 3)
	assert.Equal(t, Q1Perfect, candidates[0].Quadrant)
	assert.Equal(t, Q1Perfect, candidates[1].Quadrant)
	assert.Equal(t, Q2SemanticDiscovery, candidates[2].Quadrant)
	assert.True(t, candidates[0].FinalScore >= candidates[1].FinalScore)
}

func TestMixedSort_TiebreaksByMovieIDAscending(t *testing.T) {
	a := Classify(scoredWith(t, 5, 0.8, 0.5), DefaultThresholds(), DefaultWeights())
	b := Classify(scoredWith(t, 2, 0.8, 0.5), DefaultThresholds(), DefaultWeights())

	candidates := []Candidate{a, b}
	MixedSort(candidates)
	assert.Equal(t, 2, candidates[0].Movie.ID.Value())
	assert.Equal(t, 5, candidates[1].Movie.ID.Value())
}

func makeSortedCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		mid, _ := shared.NewMovieID(i + 1)
		out[i] = Candidate{Movie: movie.Movie{ID: mid}, FinalScore: float64(n - i)}
	}
	return out
}

func TestSmartSelect_FewerThanCountReturnsAll(t *testing.T) {
	sorted := makeSortedCandidates(2)
	out := SmartSelect(sorted, 5, DefaultSelectionConfig(), rand.New(rand.NewSource(1)))
	assert.Len(t, out, 2)
}

func TestSmartSelect_ZeroCountReturnsNil(t *testing.T) {
	sorted := makeSortedCandidates(5)
	assert.Nil(t, SmartSelect(sorted, 0, DefaultSelectionConfig(), rand.New(rand.NewSource(1))))
}

func TestSmartSelect_GuaranteedTopAlwaysIncluded(t *testing.T) {
	sorted := makeSortedCandidates(50)
	cfg := SelectionConfig{GuaranteedTop: 3, RandomPoolSize: 30}
	out := SmartSelect(sorted, 10, cfg, rand.New(rand.NewSource(42)))

	require.Len(t, out, 10)
	for i := 0; i < 3; i++ {
		assert.Equal(t, sorted[i].Movie.ID.Value(), out[i].Movie.ID.Value())
	}
}

func TestSmartSelect_DeterministicForFixedSeed(t *testing.T) {
	sorted := makeSortedCandidates(50)
	cfg := DefaultSelectionConfig()

	out1 := SmartSelect(sorted, 10, cfg, rand.New(rand.NewSource(7)))
	out2 := SmartSelect(sorted, 10, cfg, rand.New(rand.NewSource(7)))

	require.Equal(t, len(out1), len(out2))
	for i := range out1 {
		assert.Equal(t, out1[i].Movie.ID.Value(), out2[i].Movie.ID.Value())
	}
}

func TestSmartSelect_PoolSmallerThanRemainingTakesWholePool(t *testing.T) {
	// guaranteedTop=1, pool capped to 2 entries (sorted[1:3]); requesting 4
	// of 5 total means remaining (3) exceeds the pool, so the whole pool is
	// taken and the result is short of count (1 guaranteed + 2 pool = 3).
	sorted := makeSortedCandidates(5)
	cfg := SelectionConfig{GuaranteedTop: 1, RandomPoolSize: 2}
	out := SmartSelect(sorted, 4, cfg, rand.New(rand.NewSource(1)))
	assert.Len(t, out, 3)
}
