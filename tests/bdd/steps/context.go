// Package steps holds the godog step definitions for the end-to-end
// recommendation scenarios (tests/bdd/features/recommendation.feature),
// grounded on the teacher's godog-server/step_definitions package: a single
// shared *TestContext carrying request/response state across steps,
// registered into a *godog.ScenarioContext by one Register function per
// feature area.
package steps

import (
	"context"
	"time"

	"movie-recommend-engine/internal/catalog"
	"movie-recommend-engine/internal/config"
	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	"movie-recommend-engine/internal/embedding"
	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/internal/querygen"
	"movie-recommend-engine/internal/recommend"
	"movie-recommend-engine/pkg/logging"
	"movie-recommend-engine/pkg/metrics"
)

const fixtureDimension = 8

// spyEmbedder wraps the deterministic FakeEmbedder and records the text of
// every call it receives, so steps can assert on exactly what text the
// pipeline sent to the embedding provider.
type spyEmbedder struct {
	inner     *embedding.FakeEmbedder
	lastText  string
	allTexts  []string
}

func (s *spyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.lastText = text
	s.allTexts = append(s.allTexts, text)
	return s.inner.Embed(ctx, text)
}

// TestContext carries state across the steps of a single scenario.
type TestContext struct {
	embedder *spyEmbedder
	engine   *recommend.Engine

	req feature.UserRequest

	// directNL/directMoodTags feed the "build the embedding query
	// directly" step, which exercises querygen.BuildQuery below the full
	// Engine.Recommend pipeline (used for canonical, already-English mood
	// tags that bypass the Chinese UI-label mapping in feature.Extract).
	directNL       string
	directMoodTags []string

	features feature.CanonicalFeatures
	query    querygen.Query

	results []recommend.Result
	trace   *recommend.Trace
	err     error
}

// NewTestContext builds a fresh, empty TestContext for one scenario.
func NewTestContext() *TestContext {
	return &TestContext{embedder: &spyEmbedder{inner: embedding.NewFakeEmbedder(fixtureDimension)}}
}

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
			FinalRecommendations: 10,
			GuaranteedTop:        3,
			RandomPoolSize:       10,
		},
		EmbeddingSearch:   config.EmbeddingSearch{MinSimilarity: -1.0},
		FeatureFiltering:  config.FeatureFiltering{Tier1Threshold: 0.80, Tier2Threshold: 0.50},
		RNGSeed:           42,
		EmbeddingProvider: config.EmbeddingProvider{Dimension: fixtureDimension},
	}
}

// seedFixtureCatalog builds the catalog the Background step seeds: a small
// spread of movies across genres, decades, and mood/keyword tags, enough to
// exercise every scenario's hard filters without needing a real dataset.
func (c *TestContext) seedFixtureCatalog() error {
	movies := []movie.Movie{
		fixtureMovie(1, "A Heartbreak Story", 1995, 7.2, []string{"剧情"}, []string{"heartbreak", "love"}, []string{"emotional", "melancholic"}),
		fixtureMovie(2, "Comedy Night", 1996, 6.8, []string{"喜剧"}, []string{"friendship"}, []string{"funny", "lighthearted"}),
		fixtureMovie(3, "Space Odyssey", 2015, 8.1, []string{"科幻"}, []string{"space"}, []string{"exciting"}),
		fixtureMovie(4, "Quiet Reflection", 2005, 7.5, []string{"剧情"}, []string{"mystery"}, []string{"thought-provoking", "dark"}),
		fixtureMovie(5, "Old Romance", 1991, 6.5, []string{"剧情"}, []string{"romance"}, []string{"romantic"}),
	}

	var embeddings []movie.Embedding
	for _, m := range movies {
		vec, err := c.embedder.Embed(context.Background(), m.Title)
		if err != nil {
			return err
		}
		embeddings = append(embeddings, movie.Embedding{MovieID: m.ID, Vector: vec})
	}

	cat, err := catalog.NewFromSlices(movies, embeddings, fixtureDimension)
	if err != nil {
		return err
	}

	store := catalog.NewStore(cat)
	logger := logging.New(logging.LevelError)
	m := metrics.NewMetrics(logger, 0)
	c.engine = recommend.New(store, c.embedder, testConfig(), logger, m)
	return nil
}

func fixtureMovie(id int, title string, year int, rating float64, genres, keywords, moodTags []string) movie.Movie {
	mid, _ := shared.NewMovieID(id)
	r, _ := shared.NewRating(rating)
	date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return movie.Movie{
		ID:          mid,
		Title:       title,
		ReleaseDate: &date,
		VoteAverage: r,
		Genres:      genres,
		Keywords:    keywords,
		MoodTags:    moodTags,
	}
}
