// Package storage persists pipeline tables in an embedded SQLite database.
// All writes are transactional full-table replacements.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"PmdaPipeline/internal/ports"
	"PmdaPipeline/internal/table"
)

// SQLiteStore implements ports.TableStore on a file-backed SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.TableStore = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent table replacements.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// HasTable reports whether the named table exists.
func (s *SQLiteStore) HasTable(ctx context.Context, name string) (bool, error) {
	query, args, err := sq.Select("name").
		From("sqlite_master").
		Where(sq.Eq{"type": "table", "name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build table lookup: %w", err)
	}

	var found string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", name, err)
	}
	return true, nil
}

// ReadTable materializes the named table fully in memory.
func (s *SQLiteStore) ReadTable(ctx context.Context, name string) (table.Table, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(name)))
	if err != nil {
		return table.Table{}, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return table.Table{}, fmt.Errorf("columns of %s: %w", name, err)
	}

	out := table.New(columns...)
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return table.Table{}, fmt.Errorf("scan row of %s: %w", name, err)
		}

		row := make(table.Row, len(columns))
		for i, col := range columns {
			if cells[i].Valid {
				v := cells[i].String
				row[col] = &v
			} else {
				row[col] = nil
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("iterate %s: %w", name, err)
	}
	return out, nil
}

// ReplaceTable atomically swaps the named table for the given batch: drop,
// recreate with TEXT columns, bulk insert, all in one transaction. A failed
// replacement leaves the previous contents untouched.
func (s *SQLiteStore) ReplaceTable(ctx context.Context, name string, t table.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("replace table %s: no columns", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace of %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(name))); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}

	defs := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		defs[i] = quoteIdent(col) + " TEXT"
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	for _, row := range t.Rows {
		builder := sq.Insert(quoteIdent(name)).Columns(quotedColumns(t.Columns)...)
		values := make([]any, len(t.Columns))
		for i, col := range t.Columns {
			if v := row.Get(col); v != nil {
				values[i] = *v
			} else {
				values[i] = nil
			}
		}
		query, args, err := builder.Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert for %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace of %s: %w", name, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func quotedColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
