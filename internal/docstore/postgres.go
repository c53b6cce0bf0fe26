package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PoolConfig holds optional connection pool sizing.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresStore keeps documents in a JSONB column.
type PostgresStore struct {
	pool  Pool
	table string
}

// NewPostgres connects to connString and returns a store over table.
func NewPostgres(ctx context.Context, connString, table string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "docstore: postgres: ping")
	}
	return newPostgresStore(pool, table), nil
}

func newPostgresStore(pool Pool, table string) *PostgresStore {
	if table == "" {
		table = "documents"
	}
	return &PostgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// Migrate creates the documents table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	seq        BIGSERIAL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	return eris.Wrap(err, "docstore: postgres: migrate")
}

// Find returns matching documents in insertion order.
func (s *PostgresStore) Find(ctx context.Context, f Filter, p Projection) ([]model.Document, error) {
	var (
		sb   strings.Builder
		args []any
	)
	fmt.Fprintf(&sb, "SELECT body FROM %s", s.table)
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		sb.WriteString(" WHERE id = ANY($1)")
	}
	sb.WriteString(" ORDER BY seq")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: postgres: find")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "docstore: postgres: scan")
		}
		doc, err := decode(body, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "docstore: postgres: rows")
	}
	return docs, nil
}

// Put upserts docs in one transaction.
func (s *PostgresStore) Put(ctx context.Context, docs []json.RawMessage) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "docstore: postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`INSERT INTO %s (id, body) VALUES ($1, $2::jsonb)
ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`, s.table)
	for _, raw := range docs {
		id, err := DocumentID(raw)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, query, id, string(raw)); err != nil {
			return 0, eris.Wrapf(err, "docstore: postgres: put %s", id)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "docstore: postgres: commit")
	}
	zap.L().Info("docstore: documents written", zap.String("table", s.table), zap.Int("count", len(docs)))
	return len(docs), nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
