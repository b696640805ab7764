// Package schema carries the source-store schema as goose migrations. The
// production store is owned upstream; these migrations build fixture and
// development databases with the same shape the fetcher reads.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"rollupload/internal/infra/persistence"
	"rollupload/internal/platform/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func provider(db *sql.DB, dialect persistence.Dialect) (*goose.Provider, error) {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(gooseDialect(dialect), db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Apply runs every pending migration against db and returns the file names
// it applied. Each applied migration is logged on log when it is non-nil.
func Apply(ctx context.Context, db *sql.DB, dialect persistence.Dialect, log *logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.NewNop()
	}
	p, err := provider(db, dialect)
	if err != nil {
		return nil, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	applied := make([]string, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Path)
		log.Info("schema migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	return applied, nil
}

// Version reports the current schema version.
func Version(ctx context.Context, db *sql.DB, dialect persistence.Dialect) (int64, error) {
	p, err := provider(db, dialect)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

func gooseDialect(d persistence.Dialect) goose.Dialect {
	if d == persistence.DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}
