package sparseindex

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/retrieval"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO
)

// SQLiteScorer implements Scorer over a sparse index built as:
//
//	documents(id INTEGER PRIMARY KEY, filename TEXT)
//	inverted_index(term INTEGER, document_id INTEGER, score REAL)
//
// The index is produced offline and opened here read-only, since the
// service never mutates it at serve time.
type SQLiteScorer struct {
	db *sql.DB
}

// OpenSQLiteScorer opens an existing sparse index file read-only, with WAL
// allowed for readers and a busy timeout so concurrent access from other
// processes doesn't surface as a hard error.
func OpenSQLiteScorer(path string) (*SQLiteScorer, error) {
	if err := validateIntegrity(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrIndexCorruption, path, err)
	}

	dsn := path + "?mode=ro&_busy_timeout=5000&_query_only=1"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sparseindex: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA query_only = 1",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sparseindex: set pragma: %w", err)
		}
	}

	return &SQLiteScorer{db: db}, nil
}

// validateIntegrity opens path read-only and runs PRAGMA integrity_check
// before the scorer trusts it, matching the defensive open pattern used for
// the dense index.
func validateIntegrity(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('documents', 'inverted_index')`).Scan(&count); err != nil {
		return fmt.Errorf("query schema: %w", err)
	}
	if count != 2 {
		return fmt.Errorf("expected tables documents and inverted_index, found %d", count)
	}

	return nil
}

// Search binds the query's (term, weight) pairs as a VALUES relation,
// joins it against inverted_index, groups by document, sums the product of
// posting weight and query weight, and returns the top k documents
// descending by that sum.
func (s *SQLiteScorer) Search(ctx context.Context, query retrieval.SparseVector, k int) ([]retrieval.ScoredDoc, error) {
	if len(query) == 0 {
		return nil, nil
	}

	// Deterministic term ordering keeps the bound parameter list stable,
	// which matters for testing against a fixed fixture.
	termIDs := make([]int, 0, len(query))
	for term := range query {
		termIDs = append(termIDs, term)
	}
	sort.Ints(termIDs)

	placeholders := make([]string, 0, len(termIDs))
	args := make([]any, 0, len(termIDs)*2+1)
	for _, term := range termIDs {
		placeholders = append(placeholders, "(?,?)")
		args = append(args, term, query[term])
	}
	args = append(args, k)

	sqlQuery := fmt.Sprintf(`
		WITH query_terms(term, weight) AS (
			VALUES %s
		)
		SELECT
			d.filename AS document,
			SUM(idx.score * q.weight) AS total_score
		FROM
			inverted_index AS idx
		JOIN
			query_terms AS q ON idx.term = q.term
		JOIN
			documents AS d ON idx.document_id = d.id
		GROUP BY
			idx.document_id, d.filename
		ORDER BY
			total_score DESC
		LIMIT ?
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: sparse query: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var results []retrieval.ScoredDoc
	for rows.Next() {
		var doc retrieval.ScoredDoc
		if err := rows.Scan(&doc.DocumentID, &doc.Score); err != nil {
			return nil, fmt.Errorf("sparseindex: scan row: %w", err)
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}

// Documents returns every document row in the index.
func (s *SQLiteScorer) Documents(ctx context.Context) ([]retrieval.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filename FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sparseindex: list documents: %w", err)
	}
	defer rows.Close()

	var docs []retrieval.Document
	for rows.Next() {
		var id int
		var filename string
		if err := rows.Scan(&id, &filename); err != nil {
			return nil, fmt.Errorf("sparseindex: scan document row: %w", err)
		}
		docs = append(docs, retrieval.Document{ID: filename})
	}
	return docs, rows.Err()
}

// DocumentIndex returns the numeric-id to filename mapping used to resolve
// the ANN index's internal slot ids back to external document ids.
func (s *SQLiteScorer) DocumentIndex(ctx context.Context) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filename FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("sparseindex: document index: %w", err)
	}
	defer rows.Close()

	index := make(map[int]string)
	for rows.Next() {
		var id int
		var filename string
		if err := rows.Scan(&id, &filename); err != nil {
			return nil, fmt.Errorf("sparseindex: scan document index row: %w", err)
		}
		index[id] = filename
	}
	return index, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteScorer) Close() error {
	return s.db.Close()
}

var _ Scorer = (*SQLiteScorer)(nil)
