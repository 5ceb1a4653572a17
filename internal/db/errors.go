package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrKeyExists     = errors.New("db: key already exists")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrIndexNotFound = errors.New("db: index not found")
)

// Op names for error context: Redis command names for the cache and index, SQL verbs for Postgres.
const (
	OpPing        = "PING"
	OpGet         = "GET"
	OpSet         = "SET"
	OpHSet        = "HSET"
	OpExec        = "EXEC"
	OpExists      = "EXISTS"
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpBegin       = "BEGIN"
	OpPrepare     = "PREPARE"
	OpInsert      = "INSERT"
	OpDelete      = "DELETE"
	OpCommit      = "COMMIT"
	OpSelect      = "SELECT"
	OpMigrate     = "MIGRATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
