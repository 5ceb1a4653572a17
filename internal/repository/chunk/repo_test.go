package chunk

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/hybridrag/internal/db/postgres"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	domchunk "github.com/kailas-cloud/hybridrag/internal/domain/chunk"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(postgres.NewStoreForTest(sqlDB)), mock
}

func testChunks() []domchunk.Chunk {
	return []domchunk.Chunk{
		domchunk.Reconstruct("a", "The sky is blue", domain.Vector{0.1, 0.2}),
		domchunk.Reconstruct("b", "The grass is green", domain.Vector{1, -0.5}),
	}
}

func TestInsert_Commit(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertSQL))
	prep.ExpectExec().WithArgs("a", "The sky is blue", "[0.1,0.2]").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("b", "The grass is green", "[1,-0.5]").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Insert(context.Background(), testChunks()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DuplicateRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertSQL))
	prep.ExpectExec().WithArgs("a", "The sky is blue", "[0.1,0.2]").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("b", "The grass is green", "[1,-0.5]").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Insert(context.Background(), testChunks())
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.NotErrorIs(t, err, domain.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DriverErrorIsStoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(insertSQL))
	prep.ExpectExec().WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Insert(context.Background(), testChunks())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_BeginError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := repo.Insert(context.Background(), testChunks())
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	assert.NoError(t, repo.Insert(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEach_Batches(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "content", "embedding"}).
		AddRow("a", "one", "[1,0]").
		AddRow("b", "two", "[0,1]").
		AddRow("c", "three", "[0.5,0.5]")
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).WillReturnRows(rows)

	var batches [][]domchunk.Chunk
	err := repo.Each(context.Background(), 2, func(b []domchunk.Chunk) error {
		batches = append(batches, b)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, "c", batches[1][0].ID())
	assert.Equal(t, domain.Vector{0.5, 0.5}, batches[1][0].Embedding())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEach_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).WillReturnError(errors.New("relation does not exist"))

	err := repo.Each(context.Background(), 10, func([]domchunk.Chunk) error { return nil })
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Commit(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).
		WithArgs(pq.Array([]string{"a", "b"})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), []string{"a", "b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_DriverErrorIsStoreError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteSQL)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	require.NoError(t, repo.Delete(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
