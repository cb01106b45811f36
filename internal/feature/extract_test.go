package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/mapping"
)

func TestExtract_MoodLabelExpansion(t *testing.T) {
	features := Extract(UserRequest{MoodLabels: []string{"失戀"}}, nil)
	rec, ok := mapping.MoodLabelToDBTags["失戀"]
	require.True(t, ok)

	for _, tag := range rec.DBMoodTags {
		assert.Contains(t, features.MoodTags, tag)
	}
	for _, kw := range rec.DBKeywords {
		assert.Contains(t, features.Keywords, kw)
	}
}

func TestExtract_UnknownMoodLabelIgnored(t *testing.T) {
	features := Extract(UserRequest{MoodLabels: []string{"not_a_real_label"}}, nil)
	assert.Empty(t, features.MoodTags)
	assert.Empty(t, features.Keywords)
}

func TestExtract_GenreTranslation(t *testing.T) {
	var anyTraditional string
	for trad := range mapping.GenreTraditionalToSimplified {
		anyTraditional = trad
		break
	}
	require.NotEmpty(t, anyTraditional)

	features := Extract(UserRequest{Genres: []string{anyTraditional}}, nil)
	assert.Equal(t, []string{mapping.GenreTraditionalToSimplified[anyTraditional]}, features.Genres)
}

func TestExtract_EraToYearRange(t *testing.T) {
	features := Extract(UserRequest{Eras: []string{"90s"}}, nil)
	require.Len(t, features.YearRanges, 1)
	assert.Equal(t, mapping.EraRangeMap["90s"], features.YearRanges[0])
}

func TestExtract_YearInferenceFromQuery(t *testing.T) {
	features := Extract(UserRequest{NaturalQuery: "想看90年代的電影"}, nil)
	require.Len(t, features.YearRanges, 1)
	assert.Equal(t, mapping.YearRange{Min: 1990, Max: 1999}, features.YearRanges[0])
}

func TestExtract_ExplicitErasTakePrecedenceOverInference(t *testing.T) {
	features := Extract(UserRequest{NaturalQuery: "90年代", Eras: []string{"80s"}}, nil)
	require.Len(t, features.YearRanges, 1)
	assert.Equal(t, mapping.EraRangeMap["80s"], features.YearRanges[0])
}

func TestExtract_MinRatingIsMax(t *testing.T) {
	requestMin := 6.0
	features := Extract(UserRequest{MoodLabels: []string{"失戀"}, MinRating: &requestMin}, nil)
	require.NotNil(t, features.MinRating)
	assert.Equal(t, requestMin, *features.MinRating)
}

func TestExtract_DedupAndCap(t *testing.T) {
	features := Extract(UserRequest{MoodLabels: []string{"失戀", "想哭"}}, nil)
	seen := make(map[string]bool)
	for _, k := range features.Keywords {
		assert.False(t, seen[k], "duplicate keyword %q", k)
		seen[k] = true
	}
	assert.LessOrEqual(t, len(features.Keywords), maxKeywords)
	assert.LessOrEqual(t, len(features.MoodTags), maxMoodTags)
}

func TestExtract_EmptyRequestIsSparse(t *testing.T) {
	features := Extract(UserRequest{}, nil)
	assert.Equal(t, 0, features.TotalFeatures())
}
