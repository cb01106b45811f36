package querygen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"movie-recommend-engine/internal/moodmatrix"
)

func TestBuildQuery_NLOnly(t *testing.T) {
	q := BuildQuery("a heartfelt story about loss", nil)
	assert.Equal(t, ScenarioNLOnly, q.Scenario)
	assert.Equal(t, "a heartfelt story about loss", q.QueryText)
	assert.Nil(t, q.Relationship)
}

func TestBuildQuery_MoodOnly(t *testing.T) {
	q := BuildQuery("", []string{"emotional", "melancholic"})
	assert.Equal(t, ScenarioMoodOnly, q.Scenario)
	assert.NotEmpty(t, q.QueryText)
	if assert.NotNil(t, q.Relationship) {
		assert.Equal(t, "Intensification", string(q.Relationship.Type))
	}
}

func TestBuildQuery_Both_NLWins(t *testing.T) {
	q := BuildQuery("looking for something uplifting", []string{"dark", "tense"})
	assert.Equal(t, ScenarioBoth, q.Scenario)
	assert.Equal(t, "looking for something uplifting", q.QueryText)
	assert.NotNil(t, q.Relationship)
}

func TestBuildQuery_Empty(t *testing.T) {
	q := BuildQuery("   ", nil)
	assert.Equal(t, ScenarioEmpty, q.Scenario)
	assert.Equal(t, emptyFallbackQuery, q.QueryText)
}

func TestDetectSentimentConflict(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		moods    []string
		conflict bool
	}{
		{"positive query, negative moods", "a warm and happy story", []string{"dark", "melancholic"}, true},
		{"negative query, positive moods", "a dark and disturbing tale", []string{"cheerful", "uplifting"}, true},
		{"aligned positive", "a warm and happy story", []string{"cheerful", "hopeful"}, false},
		{"no sentiment cues", "a movie about space travel", []string{"exciting"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectSentimentConflict(tc.query, tc.moods)
			assert.Equal(t, tc.conflict, got)
		})
	}
}

func TestGenerateMoodTemplate_JourneyTwoTags(t *testing.T) {
	rel := moodmatrix.Relationship{Type: moodmatrix.Journey, Source: moodmatrix.SourceHeuristic}
	tmpl := generateMoodTemplate([]string{"melancholic", "hopeful"}, rel)
	assert.Contains(t, tmpl, "melancholic")
	assert.Contains(t, tmpl, "hopeful")
}

func TestGenerateMoodTemplate_MatrixTemplateWins(t *testing.T) {
	rel := moodmatrix.Relationship{Type: moodmatrix.Intensification, Source: moodmatrix.SourceMatrix, Template: "a curated sentence"}
	tmpl := generateMoodTemplate([]string{"emotional", "melancholic"}, rel)
	assert.Equal(t, "a curated sentence", tmpl)
}
