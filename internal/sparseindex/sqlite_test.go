package sparseindex

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/knoguchi/paperfind/internal/retrieval"
	"github.com/stretchr/testify/require"
)

// newFixture builds a throwaway sparse index on disk with a small, fixed
// corpus of three documents and two overlapping terms, matching the shape
// of the schema the scorer queries against.
func newFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sparse_index.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE documents (id INTEGER PRIMARY KEY, filename TEXT);
		CREATE TABLE inverted_index (term INTEGER, document_id INTEGER, score REAL);

		INSERT INTO documents (id, filename) VALUES (1, 'attention.pdf'), (2, 'bert.pdf'), (3, 'resnet.pdf');

		INSERT INTO inverted_index (term, document_id, score) VALUES
			(10, 1, 2.0),
			(10, 2, 1.0),
			(20, 1, 0.5),
			(20, 3, 3.0);
	`)
	require.NoError(t, err)

	return path
}

func TestSQLiteScorer_Search(t *testing.T) {
	path := newFixture(t)
	scorer, err := OpenSQLiteScorer(path)
	require.NoError(t, err)
	defer scorer.Close()

	query := retrieval.SparseVector{10: 1.0, 20: 1.0}
	results, err := scorer.Search(context.Background(), query, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// attention.pdf: 2.0*1 + 0.5*1 = 2.5
	// resnet.pdf:    3.0*1         = 3.0
	// bert.pdf:      1.0*1         = 1.0
	require.Equal(t, "resnet.pdf", results[0].DocumentID)
	require.InDelta(t, 3.0, results[0].Score, 1e-9)
	require.Equal(t, "attention.pdf", results[1].DocumentID)
	require.InDelta(t, 2.5, results[1].Score, 1e-9)
	require.Equal(t, "bert.pdf", results[2].DocumentID)
	require.InDelta(t, 1.0, results[2].Score, 1e-9)
}

func TestSQLiteScorer_Search_RespectsLimit(t *testing.T) {
	path := newFixture(t)
	scorer, err := OpenSQLiteScorer(path)
	require.NoError(t, err)
	defer scorer.Close()

	results, err := scorer.Search(context.Background(), retrieval.SparseVector{10: 1.0, 20: 1.0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "resnet.pdf", results[0].DocumentID)
}

func TestSQLiteScorer_Search_EmptyQuery(t *testing.T) {
	path := newFixture(t)
	scorer, err := OpenSQLiteScorer(path)
	require.NoError(t, err)
	defer scorer.Close()

	results, err := scorer.Search(context.Background(), retrieval.SparseVector{}, 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSQLiteScorer_DocumentIndex(t *testing.T) {
	path := newFixture(t)
	scorer, err := OpenSQLiteScorer(path)
	require.NoError(t, err)
	defer scorer.Close()

	idx, err := scorer.DocumentIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[int]string{1: "attention.pdf", 2: "bert.pdf", 3: "resnet.pdf"}, idx)
}

func TestOpenSQLiteScorer_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	require.NoError(t, os.WriteFile(path, []byte("not a sqlite database"), 0o644))

	_, err := OpenSQLiteScorer(path)
	require.Error(t, err)
}
