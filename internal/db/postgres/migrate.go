package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers postgres:// for migrate
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations. It dials its own connection
// from dsn, which must be a postgres:// URL.
func Migrate(dsn string, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("load migrations: %w", err)}
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return &db.Error{Op: db.OpMigrate, Err: fmt.Errorf("create migrator: %w", err)}
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No migrations to apply")
	case err != nil:
		return &db.Error{Op: db.OpMigrate, Err: err}
	default:
		version, _, _ := m.Version()
		logger.Info("Database migrations applied", zap.Uint("version", version))
	}
	return nil
}
