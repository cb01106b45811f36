package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/catalog"
	"movie-recommend-engine/internal/config"
	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	"movie-recommend-engine/internal/embedding"
	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/pkg/logging"
	"movie-recommend-engine/pkg/metrics"
)

const testDimension = 8

func testConfig() *config.Config {
	return &config.Config{
		QuadrantThresholds: config.Thresholds{HighEmbedding: 0.60, HighMatch: 0.40},
		QuadrantWeights: config.WeightTable{
			Q1: config.Weights{Embedding: 0.50, MatchRatio: 0.20},
			Q2: config.Weights{Embedding: 0.70, MatchRatio: 0.20},
			Q4: config.Weights{Embedding: 0.30, MatchRatio: 0.30},
		},
		CandidateCounts: config.CandidateCounts{
			EmbeddingTopK:        50,
			FeatureFilterK:       20,
			FinalRecommendations: 5,
			GuaranteedTop:        2,
			RandomPoolSize:       10,
		},
		EmbeddingSearch:  config.EmbeddingSearch{MinSimilarity: -1.0},
		FeatureFiltering: config.FeatureFiltering{Tier1Threshold: 0.80, Tier2Threshold: 0.50},
		RNGSeed:          1,
		EmbeddingProvider: config.EmbeddingProvider{Dimension: testDimension},
	}
}

func testMovie(t *testing.T, id int, title string, genres, keywords, moodTags []string) movie.Movie {
	t.Helper()
	mid, err := shared.NewMovieID(id)
	require.NoError(t, err)
	rating, err := shared.NewRating(7.0)
	require.NoError(t, err)
	date := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	return movie.Movie{
		ID:          mid,
		Title:       title,
		ReleaseDate: &date,
		VoteAverage: rating,
		Genres:      genres,
		Keywords:    keywords,
		MoodTags:    moodTags,
	}
}

func buildTestStore(t *testing.T, fake *embedding.FakeEmbedder, movies []movie.Movie) *catalog.Store {
	t.Helper()
	embeddings := make([]movie.Embedding, len(movies))
	for i, m := range movies {
		vec, err := fake.Embed(context.Background(), m.Title)
		require.NoError(t, err)
		embeddings[i] = movie.Embedding{MovieID: m.ID, Vector: vec}
	}
	cat, err := catalog.NewFromSlices(movies, embeddings, testDimension)
	require.NoError(t, err)
	return catalog.NewStore(cat)
}

func TestEngine_Recommend_ReturnsRankedResults(t *testing.T) {
	fake := embedding.NewFakeEmbedder(testDimension)
	movies := []movie.Movie{
		testMovie(t, 1, "A heartbreak romance", []string{"剧情"}, []string{"heartbreak", "love"}, []string{"emotional", "melancholic"}),
		testMovie(t, 2, "A space adventure", []string{"科幻"}, []string{"space"}, []string{"exciting"}),
		testMovie(t, 3, "Another heartbreak story", []string{"剧情"}, []string{"heartbreak"}, []string{"emotional"}),
	}
	store := buildTestStore(t, fake, movies)

	engine := New(store, fake, testConfig(), logging.New(logging.LevelError), metrics.NewMetrics(logging.New(logging.LevelError), 0))

	req := feature.UserRequest{MoodLabels: []string{"失戀"}, Count: 3}
	results, trace, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.LessOrEqual(t, len(results), 3)
	assert.NotEmpty(t, results)
}

func TestEngine_Recommend_EmptyCatalogReturnsNoResults(t *testing.T) {
	fake := embedding.NewFakeEmbedder(testDimension)
	store := buildTestStore(t, fake, nil)
	engine := New(store, fake, testConfig(), logging.New(logging.LevelError), metrics.NewMetrics(logging.New(logging.LevelError), 0))

	results, _, err := engine.Recommend(context.Background(), feature.UserRequest{NaturalQuery: "anything"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Recommend_DeterministicForSameRequest(t *testing.T) {
	fake := embedding.NewFakeEmbedder(testDimension)
	movies := make([]movie.Movie, 0, 40)
	for i := 1; i <= 40; i++ {
		movies = append(movies, testMovie(t, i, "Movie", nil, nil, nil))
	}
	store := buildTestStore(t, fake, movies)
	cfg := testConfig()
	logger := logging.New(logging.LevelError)
	m := metrics.NewMetrics(logger, 0)

	engine := New(store, fake, cfg, logger, m)
	req := feature.UserRequest{NaturalQuery: "an uplifting comedy", Count: 5}

	r1, _, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)
	r2, _, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(r1), len(r2))
	for i := range r1 {
		assert.Equal(t, r1[i].Movie.ID.Value(), r2[i].Movie.ID.Value())
	}
}

func TestEngine_Recommend_RespectsHardFilters(t *testing.T) {
	fake := embedding.NewFakeEmbedder(testDimension)
	movies := []movie.Movie{
		testMovie(t, 1, "Low rated", nil, nil, nil),
		testMovie(t, 2, "High rated", nil, nil, nil),
	}
	movies[0].VoteAverage, _ = shared.NewRating(3.0)

	store := buildTestStore(t, fake, movies)
	engine := New(store, fake, testConfig(), logging.New(logging.LevelError), metrics.NewMetrics(logging.New(logging.LevelError), 0))

	minRating := 6.0
	req := feature.UserRequest{NaturalQuery: "a story", MinRating: &minRating, Count: 5}
	results, _, err := engine.Recommend(context.Background(), req)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, 2, r.Movie.ID.Value())
	}
}

func TestListMoodLabels_ReturnsNonEmptyStaticList(t *testing.T) {
	labels := ListMoodLabels()
	assert.NotEmpty(t, labels)
}
