// Package querygen implements the embedding query generator: it turns
// natural-language text and/or mood labels into the single text string fed
// to the embedding provider, handling the four nl/mood-presence scenarios
// and advisory sentiment-conflict detection.
//
// Faithfully ported from original_source/backend/app/services/
// embedding_query_generator.py (the four scenarios, generate_mood_template's
// per-type fallback synthesis, and the closed sentiment-cue vocabularies),
// not re-derived.
package querygen

import (
	"strings"

	"movie-recommend-engine/internal/moodmatrix"
)

// Scenario identifies which of the four branches produced a Query.
type Scenario string

const (
	ScenarioNLOnly    Scenario = "nl_only"
	ScenarioMoodOnly  Scenario = "mood_only"
	ScenarioBoth      Scenario = "both"
	ScenarioEmpty     Scenario = "empty"
)

// Query is the result of BuildQuery.
type Query struct {
	QueryText    string
	Scenario     Scenario
	Relationship *moodmatrix.Relationship // nil for nl_only and empty
	Conflict     bool
}

const emptyFallbackQuery = "popular and highly rated movies"

// BuildQuery implements the four-scenario dispatch. moodTags
// is the canonical English mood-tag set (already expanded from UI labels
// or mined from NL text by the feature extractor) used for relationship
// analysis and template synthesis; it is distinct from the raw UI
// mood_labels the caller originally supplied.
func BuildQuery(naturalQuery string, moodTags []string) Query {
	hasNL := strings.TrimSpace(naturalQuery) != ""
	hasMoods := len(moodTags) > 0

	switch {
	case hasNL && !hasMoods:
		return Query{QueryText: naturalQuery, Scenario: ScenarioNLOnly}

	case hasNL && hasMoods:
		rel := moodmatrix.Analyze(moodTags)
		conflict := DetectSentimentConflict(naturalQuery, moodTags)
		return Query{
			QueryText:    naturalQuery, // NL wins
			Scenario:     ScenarioBoth,
			Relationship: &rel,
			Conflict:     conflict,
		}

	case !hasNL && hasMoods:
		rel := moodmatrix.Analyze(moodTags)
		return Query{
			QueryText:    generateMoodTemplate(moodTags, rel),
			Scenario:     ScenarioMoodOnly,
			Relationship: &rel,
		}

	default:
		return Query{QueryText: emptyFallbackQuery, Scenario: ScenarioEmpty}
	}
}

// generateMoodTemplate mirrors generate_mood_template(): the matrix's own
// template wins when one was found; otherwise synthesize per relationship
// type, parameterized by the leading tags of moodTags.
func generateMoodTemplate(moodTags []string, rel moodmatrix.Relationship) string {
	if rel.Source == moodmatrix.SourceMatrix && rel.Template != "" {
		return rel.Template
	}

	switch rel.Type {
	case moodmatrix.Journey:
		if len(moodTags) >= 2 {
			return "A story about transformation from " + moodTags[0] + " to " + moodTags[1] + ", emotional journey and character development"
		}
		return "A " + moodTags[0] + " story about personal growth and transformation"

	case moodmatrix.Paradox:
		if len(moodTags) >= 2 {
			return "A movie that blends " + moodTags[0] + " with " + moodTags[1] + ", contrasting yet harmonious"
		}
		return "A " + moodTags[0] + " film with unexpected contrasts"

	case moodmatrix.Intensification:
		if len(moodTags) >= 2 {
			return "A deeply " + moodTags[0] + " and " + moodTags[1] + " story, intensely emotional and atmospheric"
		}
		return "An intensely " + moodTags[0] + " film"

	case moodmatrix.MultiFaceted:
		n := len(moodTags)
		if n > 3 {
			n = 3
		}
		return "A complex " + strings.Join(moodTags[:n], " and ") + " film with layered storytelling"

	default: // Simple
		return "A " + strings.Join(moodTags, " and ") + " movie"
	}
}

// Closed sentiment-cue vocabularies, ported verbatim from
// detect_sentiment_conflict's POSITIVE_KEYWORDS / NEGATIVE_KEYWORDS (zh+en).
var positiveKeywords = []string{
	"溫暖", "治癒", "療癒", "開心", "快樂", "歡樂", "振奮", "激勵",
	"正能量", "希望", "光明", "美好", "幸福", "甜蜜", "浪漫",
	"warm", "healing", "happy", "cheerful", "uplifting", "inspiring",
	"hopeful", "positive", "bright", "beautiful", "sweet", "romantic",
}

var negativeKeywords = []string{
	"黑暗", "陰暗", "沉重", "悲傷", "難過", "憂鬱", "絕望", "痛苦",
	"殘酷", "恐怖", "驚悚", "壓抑", "灰暗", "冷酷",
	"dark", "gritty", "sad", "melancholic", "depressing", "disturbing",
	"harsh", "bleak", "grim", "tragic", "painful",
}

// Closed mood-tag sentiment groups, ported verbatim from POSITIVE_MOODS /
// NEGATIVE_MOODS. Note these are a distinct, overlapping vocabulary from
// moodmatrix's POSITIVE/NEGATIVE/ENERGETIC/CALM partition: that one
// classifies canonical tags for relationship analysis, this one classifies
// them for sentiment-conflict detection, matching the source's separate
// definitions.
var positiveMoods = set(
	"cheerful", "lighthearted", "feel-good", "funny", "uplifting",
	"heartwarming", "comforting", "cozy", "inspiring", "hopeful",
	"romantic", "whimsical", "playful",
)

var negativeMoods = set(
	"dark", "gritty", "disturbing", "melancholic", "bittersweet",
	"heartbreaking", "intense", "suspenseful", "creepy", "eerie",
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

// DetectSentimentConflict flags when the NL query and the mood-tag set
// pull in opposite emotional directions. It is advisory: the caller still
// uses the NL query text regardless of the result.
func DetectSentimentConflict(naturalQuery string, moodTags []string) bool {
	queryLower := strings.ToLower(naturalQuery)

	nlIsPositive := containsAny(queryLower, positiveKeywords)
	nlIsNegative := containsAny(queryLower, negativeKeywords)

	moodsArePositive := intersectsAny(moodTags, positiveMoods)
	moodsAreNegative := intersectsAny(moodTags, negativeMoods)

	return (nlIsPositive && moodsAreNegative) || (nlIsNegative && moodsArePositive)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func intersectsAny(tags []string, set map[string]bool) bool {
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}
