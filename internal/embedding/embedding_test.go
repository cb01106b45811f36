package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/domain/shared"
	pkgerrors "movie-recommend-engine/pkg/errors"
)

func TestEmbed_BlankTextReturnsZeroVectorWithoutCallingProvider(t *testing.T) {
	vec, err := Embed(context.Background(), &explodingEmbedder{}, "   ", 8)
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestEmbed_ProviderErrorWrappedAsEmbeddingUnavailable(t *testing.T) {
	_, err := Embed(context.Background(), &explodingEmbedder{}, "a real query", 8)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.EmbeddingUnavailable))
}

func TestEmbed_DelegatesToEmbedderForNonBlankText(t *testing.T) {
	fake := NewFakeEmbedder(4)
	vec, err := Embed(context.Background(), fake, "a movie about loss", 4)
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestCosineSimilarity_IdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarity_OrthogonalVectorsIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_ZeroNormReturnsZeroNotNaN(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	assert.Equal(t, 0.0, CosineSimilarity(a, b))
}

func TestSearch_RanksByScoreDescendingThenMovieIDAscending(t *testing.T) {
	id1, _ := shared.NewMovieID(1)
	id2, _ := shared.NewMovieID(2)
	id3, _ := shared.NewMovieID(3)

	entries := []CatalogEntry{
		{MovieID: id1, Vector: []float32{1, 0}},
		{MovieID: id2, Vector: []float32{1, 0}},
		{MovieID: id3, Vector: []float32{0, 1}},
	}

	hits, err := Search(context.Background(), &fixedEmbedder{vec: []float32{1, 0}}, "query", entries, 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].MovieID.Value())
	assert.Equal(t, 2, hits[1].MovieID.Value())
	assert.Equal(t, 3, hits[2].MovieID.Value())
}

func TestSearch_MinSimilarityDiscardsLowScores(t *testing.T) {
	id1, _ := shared.NewMovieID(1)
	id2, _ := shared.NewMovieID(2)

	entries := []CatalogEntry{
		{MovieID: id1, Vector: []float32{1, 0}},
		{MovieID: id2, Vector: []float32{0, 1}},
	}

	hits, err := Search(context.Background(), &fixedEmbedder{vec: []float32{1, 0}}, "query", entries, 2, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].MovieID.Value())
}

func TestSearch_TopKTruncates(t *testing.T) {
	id1, _ := shared.NewMovieID(1)
	id2, _ := shared.NewMovieID(2)
	id3, _ := shared.NewMovieID(3)

	entries := []CatalogEntry{
		{MovieID: id1, Vector: []float32{1, 0}},
		{MovieID: id2, Vector: []float32{1, 0}},
		{MovieID: id3, Vector: []float32{1, 0}},
	}

	hits, err := Search(context.Background(), &fixedEmbedder{vec: []float32{1, 0}}, "query", entries, 2, 1, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestFakeEmbedder_DeterministicForSameText(t *testing.T) {
	fake := NewFakeEmbedder(16)
	v1, err := fake.Embed(context.Background(), "a warm comedy")
	require.NoError(t, err)
	v2, err := fake.Embed(context.Background(), "a warm comedy")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestFakeEmbedder_DifferentTextDifferentVector(t *testing.T) {
	fake := NewFakeEmbedder(16)
	v1, _ := fake.Embed(context.Background(), "a warm comedy")
	v2, _ := fake.Embed(context.Background(), "a dark thriller")
	assert.NotEqual(t, v1, v2)
}

type explodingEmbedder struct{}

func (e *explodingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider unreachable")
}

type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}
