package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/address-compare/internal/model"
)

// SQLiteStore keeps documents as JSON text in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLite opens dsn and configures WAL mode.
func NewSQLite(dsn, table string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "docstore: sqlite: exec %s", pragma)
		}
	}
	if table == "" {
		table = "documents"
	}
	return &SQLiteStore{db: db, table: `"` + strings.ReplaceAll(table, `"`, `""`) + `"`}, nil
}

// Migrate creates the documents table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	body       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
)`, s.table))
	return eris.Wrap(err, "docstore: sqlite: migrate")
}

// Find returns matching documents in insertion order.
func (s *SQLiteStore) Find(ctx context.Context, f Filter, p Projection) ([]model.Document, error) {
	var (
		sb   strings.Builder
		args []any
	)
	fmt.Fprintf(&sb, "SELECT body FROM %s", s.table)
	if len(f.IDs) > 0 {
		sb.WriteString(" WHERE id IN (?" + strings.Repeat(", ?", len(f.IDs)-1) + ")")
		for _, id := range f.IDs {
			args = append(args, id)
		}
	}
	sb.WriteString(" ORDER BY seq")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: sqlite: find")
	}
	defer rows.Close() //nolint:errcheck

	var docs []model.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "docstore: sqlite: scan")
		}
		doc, err := decode([]byte(body), p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "docstore: sqlite: rows")
}

// Put upserts docs in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, docs []json.RawMessage) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "docstore: sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`INSERT INTO %s (id, body) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = datetime('now')`, s.table)
	for _, raw := range docs {
		id, err := DocumentID(raw)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, query, id, string(raw)); err != nil {
			return 0, eris.Wrapf(err, "docstore: sqlite: put %s", id)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "docstore: sqlite: commit")
	}
	return len(docs), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
