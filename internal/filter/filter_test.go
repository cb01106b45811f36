package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	"movie-recommend-engine/internal/feature"
	"movie-recommend-engine/internal/mapping"
)

func mustMovie(t *testing.T, id int, title string, year int, rating float64, genres, keywords, moodTags []string) movie.Movie {
	t.Helper()
	mid, err := shared.NewMovieID(id)
	require.NoError(t, err)
	r, err := shared.NewRating(rating)
	require.NoError(t, err)
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

func TestFilter_HardFilterExcludesWrongGenre(t *testing.T) {
	a := mustMovie(t, 1, "A", 2000, 7.0, []string{"剧情"}, nil, nil)
	b := mustMovie(t, 2, "B", 2000, 7.0, []string{"动作"}, nil, nil)

	candidates := []Candidate{{Movie: a, EmbeddingScore: 0.9}, {Movie: b, EmbeddingScore: 0.9}}
	features := feature.CanonicalFeatures{Genres: []string{"剧情"}}

	out := Filter(candidates, features, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Movie.Title)
}

func TestFilter_HardFilterExcludesLowRating(t *testing.T) {
	a := mustMovie(t, 1, "A", 2000, 4.0, nil, nil, nil)
	minRating := 6.0
	candidates := []Candidate{{Movie: a, EmbeddingScore: 0.9}}

	out := Filter(candidates, feature.CanonicalFeatures{MinRating: &minRating}, 10)
	assert.Empty(t, out)
}

func TestFilter_HardFilterExcludesOutOfYearRange(t *testing.T) {
	a := mustMovie(t, 1, "A", 1985, 7.0, nil, nil, nil)
	candidates := []Candidate{{Movie: a, EmbeddingScore: 0.9}}

	out := Filter(candidates, feature.CanonicalFeatures{YearRanges: []mapping.YearRange{{Min: 1990, Max: 1999}}}, 10)
	assert.Empty(t, out)
}

func TestFilter_NoRequestedFeaturesGivesFullMatchRatio(t *testing.T) {
	a := mustMovie(t, 1, "A", 2000, 7.0, nil, nil, nil)
	out := Filter([]Candidate{{Movie: a, EmbeddingScore: 0.5}}, feature.CanonicalFeatures{}, 10)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].MatchRatio)
	assert.Equal(t, 0, out[0].TotalFeatures)
}

func TestFilter_MatchRatioComputation(t *testing.T) {
	a := mustMovie(t, 1, "A", 2000, 7.0, []string{"剧情"}, []string{"heartbreak"}, []string{"emotional"})
	candidates := []Candidate{{Movie: a, EmbeddingScore: 0.5}}
	features := feature.CanonicalFeatures{
		Genres:   []string{"剧情"},
		Keywords: []string{"heartbreak", "love"},
		MoodTags: []string{"emotional"},
	}

	out := Filter(candidates, features, 10)
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].TotalFeatures)
	assert.Equal(t, 3, out[0].MatchCount)
	assert.InDelta(t, 0.75, out[0].MatchRatio, 0.001)
}

func TestFilter_Tier1SufficientReturnsOnlyTier1(t *testing.T) {
	high := mustMovie(t, 1, "High", 2000, 7.0, nil, []string{"heartbreak"}, nil)
	low := mustMovie(t, 2, "Low", 2000, 7.0, nil, nil, nil)

	candidates := []Candidate{
		{Movie: high, EmbeddingScore: 0.5},
		{Movie: low, EmbeddingScore: 0.9},
	}
	features := feature.CanonicalFeatures{Keywords: []string{"heartbreak"}}

	out := FilterWithTiers(candidates, features, 1, DefaultTiers())
	require.Len(t, out, 1)
	assert.Equal(t, "High", out[0].Movie.Title)
}

func TestFilter_FallsBackThroughTiersWhenTargetExceedsTier1(t *testing.T) {
	tier1 := mustMovie(t, 1, "Tier1", 2000, 7.0, []string{"剧情"}, []string{"heartbreak"}, nil)
	tier3 := mustMovie(t, 2, "Tier3", 2000, 7.0, nil, nil, nil)

	candidates := []Candidate{
		{Movie: tier1, EmbeddingScore: 0.1},
		{Movie: tier3, EmbeddingScore: 0.9},
	}
	features := feature.CanonicalFeatures{Keywords: []string{"heartbreak"}}

	out := FilterWithTiers(candidates, features, 2, DefaultTiers())
	require.Len(t, out, 2)
	assert.Equal(t, "Tier1", out[0].Movie.Title)
	assert.Equal(t, "Tier3", out[1].Movie.Title)
}

func TestFilter_EmptyAfterHardFilterReturnsNil(t *testing.T) {
	a := mustMovie(t, 1, "A", 2000, 2.0, nil, nil, nil)
	minRating := 9.0
	out := Filter([]Candidate{{Movie: a, EmbeddingScore: 0.9}}, feature.CanonicalFeatures{MinRating: &minRating}, 10)
	assert.Nil(t, out)
}
