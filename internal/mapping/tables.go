// Package mapping holds the static, read-only vocabularies the rest of the
// recommendation pipeline is built on: Chinese surface-form dictionaries,
// the UI mood-label table, era-to-year-range, and genre script conversion.
// Every table is loaded once at init() from embedded YAML data files
// (internal/mapping/data/*.yaml) into immutable Go maps, following this
// module's pattern of keeping large tabular constant data in data files
// rather than hand-written Go literals.
//
// No other component may introduce new mood tags, keywords, or genre
// labels outside of what these tables define.
package mapping

import (
	_ "embed"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed data/mood_zh_to_en.yaml
var moodZhToEnYAML []byte

//go:embed data/keywords_zh_to_en.yaml
var keywordsZhToEnYAML []byte

//go:embed data/mood_label_to_db_tags.yaml
var moodLabelToDBTagsYAML []byte

//go:embed data/era_ranges.yaml
var eraRangesYAML []byte

//go:embed data/genre_traditional_to_simplified.yaml
var genreTraditionalToSimplifiedYAML []byte

// YearRange is an inclusive [Min, Max] year range.
type YearRange struct {
	Min int
	Max int
}

// MoodLabelRecord is one row of MOOD_LABEL_TO_DB_TAGS.
type MoodLabelRecord struct {
	DBMoodTags []string `yaml:"db_mood_tags"`
	DBKeywords []string `yaml:"db_keywords"`
	Category   string   `yaml:"category"`
	Description string  `yaml:"description"`
	MinRating  *float64 `yaml:"min_rating"`
}

var (
	// ZhToEnMood maps a Chinese surface form (lookup key, substring match)
	// to its canonical English mood tag.
	ZhToEnMood map[string]string

	// ZhToEnKeywords maps a Chinese surface form to its canonical English
	// keyword token.
	ZhToEnKeywords map[string]string

	// MoodLabelToDBTags maps a UI mood label (Chinese, closed ~26-entry
	// set) to its expansion record.
	MoodLabelToDBTags map[string]MoodLabelRecord

	// EraRangeMap maps a decade ID ("60s".."20s") to its inclusive year
	// range.
	EraRangeMap map[string]YearRange

	// GenreTraditionalToSimplified maps a traditional-Chinese genre label
	// to its simplified-Chinese canonical form.
	GenreTraditionalToSimplified map[string]string

	// GenreSimplifiedToTraditional is the inverse of the above.
	GenreSimplifiedToTraditional map[string]string
)

func init() {
	ZhToEnMood = invertGroups(mustUnmarshalGroups(moodZhToEnYAML))
	ZhToEnKeywords = invertGroups(mustUnmarshalGroups(keywordsZhToEnYAML))

	var labels map[string]MoodLabelRecord
	if err := yaml.Unmarshal(moodLabelToDBTagsYAML, &labels); err != nil {
		panic("mapping: failed to parse mood_label_to_db_tags.yaml: " + err.Error())
	}
	MoodLabelToDBTags = labels

	var eras map[string][]int
	if err := yaml.Unmarshal(eraRangesYAML, &eras); err != nil {
		panic("mapping: failed to parse era_ranges.yaml: " + err.Error())
	}
	EraRangeMap = make(map[string]YearRange, len(eras))
	for id, pair := range eras {
		if len(pair) != 2 {
			panic("mapping: era range for " + id + " must have exactly 2 years")
		}
		EraRangeMap[id] = YearRange{Min: pair[0], Max: pair[1]}
	}

	var genreMap map[string]string
	if err := yaml.Unmarshal(genreTraditionalToSimplifiedYAML, &genreMap); err != nil {
		panic("mapping: failed to parse genre_traditional_to_simplified.yaml: " + err.Error())
	}
	GenreTraditionalToSimplified = genreMap
	GenreSimplifiedToTraditional = make(map[string]string, len(genreMap))
	for trad, simp := range genreMap {
		GenreSimplifiedToTraditional[simp] = trad
	}
}

// mustUnmarshalGroups parses a YAML file shaped as
// `canonical_tag: [surface_form, surface_form, ...]`.
func mustUnmarshalGroups(raw []byte) map[string][]string {
	var groups map[string][]string
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		panic("mapping: failed to parse grouped vocabulary file: " + err.Error())
	}
	return groups
}

// invertGroups turns `canonical -> [surface forms]` into
// `surface form -> canonical`, the shape every lookup table actually needs.
func invertGroups(groups map[string][]string) map[string]string {
	inverted := make(map[string]string)
	for canonical, surfaceForms := range groups {
		for _, sf := range surfaceForms {
			inverted[sf] = canonical
		}
	}
	return inverted
}

// TraditionalGenresToSimplified translates a list of traditional-Chinese
// genre labels to their simplified-Chinese canonical forms, preserving
// order. A genre with no known mapping passes through unchanged so it still
// reaches the hard filter (where it will simply match nothing).
func TraditionalGenresToSimplified(genres []string) []string {
	out := make([]string, len(genres))
	for i, g := range genres {
		if simp, ok := GenreTraditionalToSimplified[g]; ok {
			out[i] = simp
		} else {
			out[i] = g
		}
	}
	return out
}

// FindMoodSubstrings returns every canonical English mood tag whose
// registered Chinese surface form is a substring of text. Deterministic
// order (sorted by surface form) so extract() is idempotent.
func FindMoodSubstrings(text string) []string {
	return findSubstringMatches(text, ZhToEnMood)
}

// FindKeywordSubstrings is the keyword-table analogue of
// FindMoodSubstrings.
func FindKeywordSubstrings(text string) []string {
	return findSubstringMatches(text, ZhToEnKeywords)
}

func findSubstringMatches(text string, table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var matches []string
	for _, k := range keys {
		if strings.Contains(text, k) {
			matches = append(matches, table[k])
		}
	}
	return matches
}

// MoodLabelInfo is the public shape surfaced by the list_mood_labels MCP
// tool.
type MoodLabelInfo struct {
	Label       string
	Category    string
	Description string
}

// ListMoodLabels returns every UI mood label with its category and
// description, sorted by label for deterministic output.
func ListMoodLabels() []MoodLabelInfo {
	labels := make([]string, 0, len(MoodLabelToDBTags))
	for label := range MoodLabelToDBTags {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]MoodLabelInfo, 0, len(labels))
	for _, label := range labels {
		rec := MoodLabelToDBTags[label]
		out = append(out, MoodLabelInfo{
			Label:       label,
			Category:    rec.Category,
			Description: rec.Description,
		})
	}
	return out
}
