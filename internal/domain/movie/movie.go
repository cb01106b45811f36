// Package movie defines the read-only catalog entry the recommendation
// pipeline scores and ranks. Unlike the teacher lineage's movie domain
// package, there is no create/update/delete lifecycle here: the catalog is
// loaded once at startup (internal/catalog) and never mutated.
package movie

import (
	"time"

	"movie-recommend-engine/internal/domain/shared"
)

// Movie is one catalog entry. Fields mirror the original_source Python
// model's movie table (title, overview, genres, keywords, mood_tags, ...)
// narrowed to what the recommendation pipeline actually reads.
type Movie struct {
	ID               shared.MovieID
	Title            string
	OriginalTitle    string
	Overview         string
	Tagline          string
	PosterPath       string
	ReleaseDate      *time.Time
	OriginalLanguage string
	VoteAverage      shared.Rating
	VoteCount        int
	Popularity       float64
	Runtime          *int

	// Genres holds the simplified-Chinese canonical genre labels (e.g.
	// "剧情", "动作"), in catalog order.
	Genres []string

	// Keywords holds lowercase English topic tokens.
	Keywords []string

	// MoodTags holds lowercase English mood tokens drawn from the closed
	// 16-tag vocabulary defined by the mapping tables (internal/mapping).
	MoodTags []string
}

// ReleaseYear returns the release year, or (0, false) if unknown.
func (m Movie) ReleaseYear() (int, bool) {
	if m.ReleaseDate == nil {
		return 0, false
	}
	return m.ReleaseDate.Year(), true
}

// HasGenre reports whether g (already simplified-Chinese) appears in the
// movie's genre list.
func (m Movie) HasGenre(g string) bool {
	for _, x := range m.Genres {
		if x == g {
			return true
		}
	}
	return false
}

// HasAnyGenre reports whether any of genres intersects the movie's genres.
func (m Movie) HasAnyGenre(genres []string) bool {
	for _, g := range genres {
		if m.HasGenre(g) {
			return true
		}
	}
	return false
}

// HasKeyword reports case-insensitive membership of k in the movie's
// keyword set.
func (m Movie) HasKeyword(k string) bool {
	return containsFold(m.Keywords, k)
}

// HasMoodTag reports case-insensitive membership of tag in the movie's mood
// tag set.
func (m Movie) HasMoodTag(tag string) bool {
	return containsFold(m.MoodTags, tag)
}

func containsFold(haystack []string, needle string) bool {
	lower := toLower(needle)
	for _, x := range haystack {
		if toLower(x) == lower {
			return true
		}
	}
	return false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Embedding is the movie's precomputed dense vector, keyed by the same ID.
// The core treats the vector as opaque; only its dimension is validated
// (against the catalog's configured dimension) on load.
type Embedding struct {
	MovieID shared.MovieID
	Vector  []float32
}
