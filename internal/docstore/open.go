package docstore

import (
	"context"

	"github.com/rotisserie/eris"
)

// Open returns the Store for driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn, table string, pool *PoolConfig) (Store, error) {
	switch driver {
	case "postgres", "":
		return NewPostgres(ctx, dsn, table, pool)
	case "sqlite":
		return NewSQLite(dsn, table)
	default:
		return nil, eris.Errorf("docstore: unknown driver %q", driver)
	}
}
