// Package catalog implements the read-only movie catalog collaborator the
// recommendation pipeline scans during global semantic search: a bulk,
// startup-time load of every movie and its precomputed embedding vector
// into an immutable in-memory snapshot.
//
// Grounded on the teacher's internal/infrastructure/sqlite/movie_repository.go
// row-scanning idiom (a dbMovie struct with sql.Null* fields and
// JSON-encoded array columns for genres/keywords/mood_tags), adapted from
// per-ID CRUD to a single LoadAll bulk read, plus a parallel
// movie_embeddings table holding each movie's vector as a little-endian
// float32 BLOB.
package catalog

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	pkgerrors "movie-recommend-engine/pkg/errors"
)

// Schema is the sqlite DDL this loader expects. Catalog ingestion (writing
// rows from a third-party movie API) is out of scope; this schema exists
// so the loader and its tests share one source of truth for the shape
// being read.
const Schema = `
CREATE TABLE IF NOT EXISTS movies (
	id                 INTEGER PRIMARY KEY,
	title              TEXT NOT NULL,
	original_title     TEXT NOT NULL DEFAULT '',
	overview           TEXT NOT NULL DEFAULT '',
	tagline            TEXT NOT NULL DEFAULT '',
	poster_path        TEXT,
	release_date       TEXT,
	original_language  TEXT NOT NULL DEFAULT '',
	vote_average       REAL NOT NULL DEFAULT 0,
	vote_count         INTEGER NOT NULL DEFAULT 0,
	popularity         REAL NOT NULL DEFAULT 0,
	runtime            INTEGER,
	genres             TEXT NOT NULL DEFAULT '[]',
	keywords           TEXT NOT NULL DEFAULT '[]',
	mood_tags          TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS movie_embeddings (
	movie_id INTEGER PRIMARY KEY REFERENCES movies(id),
	vector   BLOB NOT NULL
);
`

// Catalog is the immutable, process-scoped snapshot the pipeline scans. The
// zero value is not usable; construct with NewFromSlices or LoadAll.
type Catalog struct {
	movies     []movie.Movie
	byID       map[int]movie.Movie
	embeddings map[int][]float32
	dimension  int
}

// NewFromSlices builds a Catalog from already-decoded movies and
// embeddings, validating that every stored vector matches dimension.
// A dimension mismatch is a precomputation-pipeline defect and is reported
// as CatalogCorrupt, not silently truncated or padded.
func NewFromSlices(movies []movie.Movie, embeddings []movie.Embedding, dimension int) (*Catalog, error) {
	byID := make(map[int]movie.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID.Value()] = m
	}

	embByID := make(map[int][]float32, len(embeddings))
	for _, e := range embeddings {
		if len(e.Vector) != dimension {
			return nil, pkgerrors.NewCatalogCorrupt(
				fmt.Sprintf("embedding vector has dimension %d, want %d", len(e.Vector), dimension),
				e.MovieID.Value(),
			)
		}
		if _, ok := byID[e.MovieID.Value()]; !ok {
			return nil, pkgerrors.NewCatalogCorrupt("embedding references unknown movie id", e.MovieID.Value())
		}
		embByID[e.MovieID.Value()] = e.Vector
	}

	sorted := append([]movie.Movie{}, movies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Value() < sorted[j].ID.Value() })

	return &Catalog{
		movies:     sorted,
		byID:       byID,
		embeddings: embByID,
		dimension:  dimension,
	}, nil
}

// Movies returns every catalog entry, sorted by ID. The slice is shared and
// must not be mutated by callers.
func (c *Catalog) Movies() []movie.Movie { return c.movies }

// Movie looks up a single entry by ID.
func (c *Catalog) Movie(id shared.MovieID) (movie.Movie, bool) {
	m, ok := c.byID[id.Value()]
	return m, ok
}

// Embedding returns the stored vector for id, if the movie has been indexed.
func (c *Catalog) Embedding(id shared.MovieID) ([]float32, bool) {
	v, ok := c.embeddings[id.Value()]
	return v, ok
}

// Embeddings returns every (movie, vector) pair as movie.Embedding records,
// the shape internal/embedding.EntriesFromCatalog expects.
func (c *Catalog) Embeddings() []movie.Embedding {
	out := make([]movie.Embedding, 0, len(c.embeddings))
	for _, m := range c.movies {
		if v, ok := c.embeddings[m.ID.Value()]; ok {
			out = append(out, movie.Embedding{MovieID: m.ID, Vector: v})
		}
	}
	return out
}

// Dimension returns the embedding vector dimension this catalog was
// validated against.
func (c *Catalog) Dimension() int { return c.dimension }

// Len returns the number of movies in the catalog (indexed or not).
func (c *Catalog) Len() int { return len(c.movies) }

// MovieCount satisfies pkg/health.CatalogSource.
func (c *Catalog) MovieCount() int { return c.Len() }

// EmbeddingDimension satisfies pkg/health.CatalogSource.
func (c *Catalog) EmbeddingDimension() int { return c.dimension }

// Store is an atomically-swappable Catalog handle: readers observe one
// atomic snapshot for the duration of a request, and a future reload (out
// of scope to trigger, not to support structurally) is a single atomic
// pointer swap rather than a lock.
type Store struct {
	ptr atomic.Pointer[Catalog]
}

// NewStore wraps an initial Catalog in a Store.
func NewStore(initial *Catalog) *Store {
	s := &Store{}
	s.ptr.Store(initial)
	return s
}

// Load returns the current Catalog snapshot.
func (s *Store) Load() *Catalog { return s.ptr.Load() }

// Swap atomically replaces the snapshot, e.g. after a reload.
func (s *Store) Swap(next *Catalog) { s.ptr.Store(next) }

// dbMovie mirrors one row of the movies table, grounded on the teacher's
// dbMovie scanning idiom (sql.Null* fields for nullable columns, JSON text
// for array-valued columns).
type dbMovie struct {
	ID               int
	Title            string
	OriginalTitle    string
	Overview         string
	Tagline          string
	PosterPath       sql.NullString
	ReleaseDate      sql.NullString
	OriginalLanguage string
	VoteAverage      float64
	VoteCount        int
	Popularity       float64
	Runtime          sql.NullInt64
	GenresJSON       string
	KeywordsJSON     string
	MoodTagsJSON     string
}

// LoadAll bulk-reads every movie and its embedding (if any) from db and
// returns a validated Catalog. This is the one place the core touches SQL;
// everything downstream works against the in-memory Catalog interface.
func LoadAll(ctx context.Context, db *sql.DB, dimension int) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, original_title, overview, tagline, poster_path,
		       release_date, original_language, vote_average, vote_count,
		       popularity, runtime, genres, keywords, mood_tags
		FROM movies
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query movies: %w", err)
	}
	defer rows.Close()

	var movies []movie.Movie
	for rows.Next() {
		var d dbMovie
		if err := rows.Scan(
			&d.ID, &d.Title, &d.OriginalTitle, &d.Overview, &d.Tagline, &d.PosterPath,
			&d.ReleaseDate, &d.OriginalLanguage, &d.VoteAverage, &d.VoteCount,
			&d.Popularity, &d.Runtime, &d.GenresJSON, &d.KeywordsJSON, &d.MoodTagsJSON,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan movie row: %w", err)
		}
		m, err := toDomainMovie(d)
		if err != nil {
			return nil, fmt.Errorf("catalog: movie %d: %w", d.ID, err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate movie rows: %w", err)
	}

	embRows, err := db.QueryContext(ctx, `SELECT movie_id, vector FROM movie_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query movie_embeddings: %w", err)
	}
	defer embRows.Close()

	var embeddings []movie.Embedding
	for embRows.Next() {
		var movieID int
		var blob []byte
		if err := embRows.Scan(&movieID, &blob); err != nil {
			return nil, fmt.Errorf("catalog: scan embedding row: %w", err)
		}
		id, err := shared.NewMovieID(movieID)
		if err != nil {
			return nil, fmt.Errorf("catalog: embedding movie id: %w", err)
		}
		embeddings = append(embeddings, movie.Embedding{MovieID: id, Vector: DecodeVector(blob)})
	}
	if err := embRows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate embedding rows: %w", err)
	}

	return NewFromSlices(movies, embeddings, dimension)
}

func toDomainMovie(d dbMovie) (movie.Movie, error) {
	id, err := shared.NewMovieID(d.ID)
	if err != nil {
		return movie.Movie{}, err
	}
	rating, err := shared.NewRating(d.VoteAverage)
	if err != nil {
		return movie.Movie{}, err
	}

	var genres, keywords, moodTags []string
	if err := json.Unmarshal([]byte(d.GenresJSON), &genres); err != nil {
		return movie.Movie{}, fmt.Errorf("decode genres: %w", err)
	}
	if err := json.Unmarshal([]byte(d.KeywordsJSON), &keywords); err != nil {
		return movie.Movie{}, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(d.MoodTagsJSON), &moodTags); err != nil {
		return movie.Movie{}, fmt.Errorf("decode mood_tags: %w", err)
	}

	m := movie.Movie{
		ID:               id,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		OriginalLanguage: d.OriginalLanguage,
		VoteAverage:      rating,
		VoteCount:        d.VoteCount,
		Popularity:       d.Popularity,
		Genres:           genres,
		Keywords:         keywords,
		MoodTags:         moodTags,
	}
	if d.PosterPath.Valid {
		m.PosterPath = d.PosterPath.String
	}
	if d.Runtime.Valid {
		rt := int(d.Runtime.Int64)
		m.Runtime = &rt
	}
	if d.ReleaseDate.Valid && d.ReleaseDate.String != "" {
		t, err := parseReleaseDate(d.ReleaseDate.String)
		if err != nil {
			return movie.Movie{}, fmt.Errorf("parse release_date: %w", err)
		}
		m.ReleaseDate = t
	}
	return m, nil
}

// parseReleaseDate parses the ISO-8601 date string stored in the
// release_date column.
func parseReleaseDate(s string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// EncodeVector serializes a float32 vector as a little-endian BLOB, the
// wire format LoadAll's movie_embeddings.vector column uses.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is EncodeVector's inverse.
func DecodeVector(blob []byte) []float32 {
	n := len(blob) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
