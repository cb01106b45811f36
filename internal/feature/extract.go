// Package feature implements the feature extractor: it normalizes a
// UserRequest into CanonicalFeatures using the static mapping tables
// (internal/mapping). Extraction never fails; an under-specified or empty
// request simply produces sparse CanonicalFeatures.
package feature

import (
	"regexp"
	"strings"
	"time"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/mapping"
)

// UserRequest is the external input to the pipeline.
type UserRequest struct {
	NaturalQuery string
	MoodLabels   []string
	Genres       []string // traditional-Chinese, as supplied by the caller
	Eras         []string // decade IDs, e.g. "90s"
	MinRating    *float64
	Count        int
}

// CanonicalFeatures is the normalized output of Extract.
type CanonicalFeatures struct {
	Keywords   []string // deduplicated, capped at 15, lowercase English
	MoodTags   []string // deduplicated, capped at 10, lowercase English
	Genres     []string // deduplicated, simplified-Chinese
	YearRanges []mapping.YearRange
	MinRating  *float64

	// Informational only; the recommendation pipeline does not rely on these.
	ExactTitleMatches   []movie.Movie
	ExactKeywordMatches []movie.Movie
}

const (
	maxKeywords = 15
	maxMoodTags = 10
)

// yearInferenceRules implements the year-inference table, checked only
// when request.Eras is empty. Rules are evaluated in table order; the
// first match wins, mirroring a cascading if/elif in the source.
type yearInferenceRule struct {
	match func(query string, currentYear int) (mapping.YearRange, bool)
}

var yearInferenceRules = []yearInferenceRule{
	{
		match: func(q string, currentYear int) (mapping.YearRange, bool) {
			for _, cue := range []string{"近期", "最近", "新", "最新", "2024", "2025"} {
				if strings.Contains(q, cue) {
					return mapping.YearRange{Min: 2020, Max: currentYear}, true
				}
			}
			return mapping.YearRange{}, false
		},
	},
	{
		match: func(q string, currentYear int) (mapping.YearRange, bool) {
			for _, cue := range []string{"經典", "老片", "復古", "懷舊"} {
				if strings.Contains(q, cue) {
					return mapping.YearRange{Min: 1980, Max: 2010}, true
				}
			}
			return mapping.YearRange{}, false
		},
	},
	{
		match: func(q string, currentYear int) (mapping.YearRange, bool) {
			if strings.Contains(q, "90年代") {
				return mapping.YearRange{Min: 1990, Max: 1999}, true
			}
			return mapping.YearRange{}, false
		},
	},
	{
		match: func(q string, currentYear int) (mapping.YearRange, bool) {
			if strings.Contains(q, "2000年代") {
				return mapping.YearRange{Min: 2000, Max: 2009}, true
			}
			return mapping.YearRange{}, false
		},
	},
	{
		match: func(q string, currentYear int) (mapping.YearRange, bool) {
			if strings.Contains(q, "2010") && (strings.Contains(q, "後") || strings.Contains(q, "以後")) {
				return mapping.YearRange{Min: 2010, Max: currentYear}, true
			}
			return mapping.YearRange{}, false
		},
	},
}

// titleTokenPattern splits a query into candidate substring-search tokens
// for exact_title_matches / exact_keyword_matches: runs of non-whitespace,
// non-punctuation text of at least 3 characters.
var titleTokenPattern = regexp.MustCompile(`[\p{L}\p{N}]{3,}`)

// Extract normalizes a UserRequest into CanonicalFeatures. catalog is used
// only for the informational exact_title_matches / exact_keyword_matches
// population; it may be nil or empty.
func Extract(req UserRequest, catalog []movie.Movie) CanonicalFeatures {
	var out CanonicalFeatures

	// 1. Eras -> year ranges (order preserved, no dedup).
	for _, era := range req.Eras {
		if r, ok := mapping.EraRangeMap[era]; ok {
			out.YearRanges = append(out.YearRanges, r)
		}
	}

	// 2. Genres traditional -> simplified.
	out.Genres = dedupe(mapping.TraditionalGenresToSimplified(req.Genres))

	// 3. Mood labels -> db_mood_tags / db_keywords, tracking max min_rating.
	var maxMinRating *float64
	for _, label := range req.MoodLabels {
		rec, ok := mapping.MoodLabelToDBTags[label]
		if !ok {
			continue
		}
		out.MoodTags = append(out.MoodTags, rec.DBMoodTags...)
		out.Keywords = append(out.Keywords, rec.DBKeywords...)
		if rec.MinRating != nil {
			if maxMinRating == nil || *rec.MinRating > *maxMinRating {
				v := *rec.MinRating
				maxMinRating = &v
			}
		}
	}

	// 4. Natural-language query mining.
	if strings.TrimSpace(req.NaturalQuery) != "" {
		out.MoodTags = append(out.MoodTags, mapping.FindMoodSubstrings(req.NaturalQuery)...)
		out.Keywords = append(out.Keywords, mapping.FindKeywordSubstrings(req.NaturalQuery)...)

		if len(out.YearRanges) == 0 {
			currentYear := time.Now().Year()
			for _, rule := range yearInferenceRules {
				if r, ok := rule.match(req.NaturalQuery, currentYear); ok {
					out.YearRanges = append(out.YearRanges, r)
					break
				}
			}
		}
	}

	if req.MinRating != nil {
		if maxMinRating == nil || *req.MinRating > *maxMinRating {
			v := *req.MinRating
			maxMinRating = &v
		}
	}
	out.MinRating = maxMinRating

	// 5. Dedup + cap.
	out.Keywords = capList(dedupe(out.Keywords), maxKeywords)
	out.MoodTags = capList(dedupe(out.MoodTags), maxMoodTags)

	// 6. Informational exact matches.
	if strings.TrimSpace(req.NaturalQuery) != "" && len(catalog) > 0 {
		out.ExactTitleMatches, out.ExactKeywordMatches = findExactMatches(req.NaturalQuery, catalog)
	}

	return out
}

func findExactMatches(query string, catalog []movie.Movie) (titleMatches, keywordMatches []movie.Movie) {
	tokens := titleTokenPattern.FindAllString(query, -1)
	if len(tokens) == 0 {
		return nil, nil
	}

	for _, m := range catalog {
		for _, tok := range tokens {
			if strings.Contains(m.Title, tok) {
				titleMatches = append(titleMatches, m)
				break
			}
		}
		for _, tok := range tokens {
			if m.HasKeyword(tok) {
				keywordMatches = append(keywordMatches, m)
				break
			}
		}
	}
	return titleMatches, keywordMatches
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, i := range items {
		if i == "" || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

func capList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}

// TotalFeatures returns |keywords| + |mood_tags| + |genres| as requested by
// the user.
func (f CanonicalFeatures) TotalFeatures() int {
	return len(f.Keywords) + len(f.MoodTags) + len(f.Genres)
}
