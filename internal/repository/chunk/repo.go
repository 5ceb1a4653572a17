package chunk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kailas-cloud/hybridrag/internal/db"
	"github.com/kailas-cloud/hybridrag/internal/db/postgres"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	domchunk "github.com/kailas-cloud/hybridrag/internal/domain/chunk"
)

const (
	insertSQL = `INSERT INTO chunks (id, content, embedding) VALUES ($1, $2, $3::vector)`
	selectSQL = `SELECT id, content, embedding::text FROM chunks ORDER BY id`
	countSQL  = `SELECT count(*) FROM chunks`
	deleteSQL = `DELETE FROM chunks WHERE id = ANY($1)`
)

// store is the consumer interface for the Postgres pool (ISP).
type store interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo persists chunks in Postgres with pgvector.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert writes chunks in one transaction. Nothing is written if any row fails.
// A repeated id fails with ErrDuplicateID; other failures with ErrStore.
func (r *Repo) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return &db.Error{Op: db.OpPrepare, Err: err}
		}
		defer stmt.Close()

		for i := range chunks {
			c := &chunks[i]
			if _, err := stmt.ExecContext(ctx, c.ID(), c.Content(), c.Embedding()); err != nil {
				if postgres.IsUniqueViolation(err) {
					return fmt.Errorf("%w: %s", domain.ErrDuplicateID, c.ID())
				}
				return &db.Error{Op: db.OpInsert, Err: err}
			}
		}
		return nil
	})
	return classify(err)
}

// Delete removes the given ids in one transaction. Missing ids are ignored.
func (r *Repo) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteSQL, pq.Array(ids)); err != nil {
			return &db.Error{Op: db.OpDelete, Err: err}
		}
		return nil
	})
	return classify(err)
}

// Each streams every stored chunk in id order, batchSize at a time.
func (r *Repo) Each(ctx context.Context, batchSize int, fn func([]domchunk.Chunk) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	rows, err := r.store.QueryContext(ctx, selectSQL)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	batch := make([]domchunk.Chunk, 0, batchSize)
	for rows.Next() {
		var (
			id, content string
			vec         domain.Vector
		)
		if err := rows.Scan(&id, &content, &vec); err != nil {
			return classify(&db.Error{Op: db.OpSelect, Err: err})
		}
		batch = append(batch, domchunk.Reconstruct(id, content, vec))
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]domchunk.Chunk, 0, batchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return classify(&db.Error{Op: db.OpSelect, Err: err})
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// Count returns the number of stored chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, classify(&db.Error{Op: db.OpSelect, Err: err})
	}
	return n, nil
}

// classify maps driver failures onto ErrStore, leaving domain errors intact.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrDuplicateID) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStore, err)
}
