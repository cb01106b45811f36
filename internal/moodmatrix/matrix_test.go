package moodmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_SingleTagIsSimple(t *testing.T) {
	rel := Analyze([]string{"melancholic"})
	assert.Equal(t, Simple, rel.Type)
	assert.Equal(t, SourceSimple, rel.Source)
}

func TestAnalyze_EmptyIsSimple(t *testing.T) {
	rel := Analyze(nil)
	assert.Equal(t, Simple, rel.Type)
}

func TestAnalyze_MatrixPairWins(t *testing.T) {
	pairs := KnownPairs()
	require.NotEmpty(t, pairs)

	rel := Analyze([]string{"emotional", "melancholic"})
	assert.Equal(t, SourceMatrix, rel.Source)
	assert.Equal(t, Intensification, rel.Type)
	assert.NotEmpty(t, rel.Template)
}

func TestAnalyze_FindsFirstMatrixPairInInputOrder(t *testing.T) {
	// "unknown_tag" has no matrix entries, so the only possible hit is the
	// known pair appearing later in the list; this exercises the i<j scan
	// order rather than assuming position 0,1.
	rel := Analyze([]string{"unknown_tag", "emotional", "melancholic"})
	assert.Equal(t, SourceMatrix, rel.Source)
	assert.Equal(t, Intensification, rel.Type)
}

func TestAnalyze_HeuristicFallback(t *testing.T) {
	// "heartwarming" and "dark" are not a curated pair but fall into the
	// positive/negative mood-group partition respectively.
	rel := Analyze([]string{"heartwarming", "dark"})
	assert.Equal(t, SourceHeuristic, rel.Source)
	assert.Equal(t, Paradox, rel.Type)
	assert.Equal(t, "medium", rel.Confidence)
	assert.NotEmpty(t, rel.Template)
}

func TestAnalyze_HeuristicMultiFacetedDefault(t *testing.T) {
	rel := Analyze([]string{"not_in_any_group", "also_not_in_any_group"})
	assert.Equal(t, MultiFaceted, rel.Type)
}

func TestKnownPairsSorted(t *testing.T) {
	pairs := KnownPairs()
	for i := 1; i < len(pairs); i++ {
		assert.LessOrEqual(t, pairs[i-1], pairs[i])
	}
}
