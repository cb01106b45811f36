package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
)

// openTestDB follows the teacher's movie_repository_test.go convention: an
// in-memory sqlite database with _time_format=sqlite so timestamp columns
// round-trip.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return db
}

func seedMovie(t *testing.T, db *sql.DB, id int, title string, vector []float32) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO movies (id, title, original_title, overview, tagline, release_date,
			original_language, vote_average, vote_count, popularity, runtime, genres, keywords, mood_tags)
		VALUES (?, ?, '', '', '', '2000-01-01', 'en', 7.5, 100, 10.0, 120, '["剧情"]', '["love"]', '["romantic"]')`,
		id, title)
	require.NoError(t, err)

	if vector != nil {
		_, err = db.Exec(`INSERT INTO movie_embeddings (movie_id, vector) VALUES (?, ?)`, id, EncodeVector(vector))
		require.NoError(t, err)
	}
}

func TestLoadAll_ReadsMoviesAndEmbeddings(t *testing.T) {
	db := openTestDB(t)
	seedMovie(t, db, 1, "First", []float32{0.1, 0.2, 0.3})
	seedMovie(t, db, 2, "Second", nil)

	cat, err := LoadAll(context.Background(), db, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 3, cat.Dimension())

	id1, _ := shared.NewMovieID(1)
	m, ok := cat.Movie(id1)
	require.True(t, ok)
	assert.Equal(t, "First", m.Title)
	assert.Equal(t, []string{"剧情"}, m.Genres)

	vec, ok := cat.Embedding(id1)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	id2, _ := shared.NewMovieID(2)
	_, ok = cat.Embedding(id2)
	assert.False(t, ok)
}

func TestLoadAll_MoviesOrderedByID(t *testing.T) {
	db := openTestDB(t)
	seedMovie(t, db, 5, "E", nil)
	seedMovie(t, db, 1, "A", nil)

	cat, err := LoadAll(context.Background(), db, 3)
	require.NoError(t, err)
	require.Len(t, cat.Movies(), 2)
	assert.Equal(t, "A", cat.Movies()[0].Title)
	assert.Equal(t, "E", cat.Movies()[1].Title)
}

func TestNewFromSlices_RejectsDimensionMismatch(t *testing.T) {
	id, _ := shared.NewMovieID(1)
	movies := []movie.Movie{{ID: id}}
	embeddings := []movie.Embedding{{MovieID: id, Vector: []float32{1, 2}}}

	_, err := NewFromSlices(movies, embeddings, 3)
	require.Error(t, err)
}

func TestNewFromSlices_RejectsOrphanedEmbedding(t *testing.T) {
	knownID, _ := shared.NewMovieID(1)
	orphanID, _ := shared.NewMovieID(2)
	movies := []movie.Movie{{ID: knownID}}
	embeddings := []movie.Embedding{{MovieID: orphanID, Vector: []float32{1, 2, 3}}}

	_, err := NewFromSlices(movies, embeddings, 3)
	require.Error(t, err)
}

func TestEncodeDecodeVector_RoundTrips(t *testing.T) {
	v := []float32{0.5, -1.25, 3.0, 0}
	assert.Equal(t, v, DecodeVector(EncodeVector(v)))
}

func TestStore_LoadReflectsSwap(t *testing.T) {
	initial, err := NewFromSlices(nil, nil, 3)
	require.NoError(t, err)
	store := NewStore(initial)
	assert.Equal(t, 0, store.Load().Len())

	id, _ := shared.NewMovieID(1)
	next, err := NewFromSlices([]movie.Movie{{ID: id}}, nil, 3)
	require.NoError(t, err)
	store.Swap(next)
	assert.Equal(t, 1, store.Load().Len())
}

func TestCatalog_MovieCountAndEmbeddingDimensionSatisfyHealthInterface(t *testing.T) {
	cat, err := NewFromSlices(nil, nil, 1536)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.MovieCount())
	assert.Equal(t, 1536, cat.EmbeddingDimension())
}
