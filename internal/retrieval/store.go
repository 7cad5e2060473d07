package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds a single vector search so a slow index scan
// cannot stall the request.
const searchTimeout = 10 * time.Second

// querier is the common interface satisfied by *pgxpool.Pool and
// pgx.Tx. Store depends on it rather than the pool so tests can
// substitute a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// searchChunksSQL runs the cosine similarity lookup. The pgvector
// <=> operator is cosine distance, so similarity = 1 - distance.
// An empty $3 disables the document filter.
const searchChunksSQL = `SELECT document_id, page, content, source_name,
	1 - (embedding <=> $1) AS similarity
FROM chunks
WHERE 1 - (embedding <=> $1) >= $2
	AND ($3::text = '' OR document_id = $3::text)
ORDER BY embedding <=> $1
LIMIT $4`

// Store executes similarity searches against PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger *slog.Logger
}

// NewStore creates a Store over an open pgx pool (or transaction).
func NewStore(db querier, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// Search returns the chunks nearest to the query embedding, best
// first, subject to the threshold/limit policy in opts.
//
// Example:
//
//	chunks, err := store.Search(ctx, embedding,
//	    retrieval.WithThreshold(0.7),
//	    retrieval.WithLimit(10))
func (s *Store) Search(ctx context.Context, embedding []float32, opts ...SearchOption) ([]ScoredChunk, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(queryCtx, searchChunksSQL, vec, cfg.threshold, cfg.document, cfg.limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("similarity search timeout: %w", err)
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var chunks []ScoredChunk
	for rows.Next() {
		var (
			c    ScoredChunk
			page pgtype.Int4
		)
		if err := rows.Scan(&c.DocumentID, &page, &c.Content, &c.SourceName, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		if page.Valid {
			c.Page = int(page.Int32)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk rows: %w", err)
	}

	s.logger.Debug("similarity search completed",
		"matches", len(chunks),
		"threshold", cfg.threshold,
		"limit", cfg.limit,
	)
	return chunks, nil
}

// Count reports the number of indexed chunks. Used by the readiness
// probe.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
