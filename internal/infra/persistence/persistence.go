// Package persistence opens the read-only relational source the rollup
// fetches from and knows the placeholder style of each supported dialect.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"rollupload/internal/infra/persistence/postgres"
	"rollupload/internal/infra/persistence/sqlite"
)

// Dialect identifies the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Open connects to the source store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite:
		db, err := sqlite.Open(ctx, dsn)
		return db, DialectSQLite, err
	case DialectPostgres:
		db, err := postgres.Open(ctx, dsn)
		return db, DialectPostgres, err
	default:
		return nil, "", fmt.Errorf("unknown source driver %q", driver)
	}
}

// Rebind rewrites '?' placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Placeholders returns n comma-separated '?' markers for IN lists.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
