package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// Dialect captures the few SQL differences between SQLite and PostgreSQL.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	RealType    string
	IntegerType string
}

var SQLiteDialect = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	RealType:    "REAL",
	IntegerType: "INTEGER",
}

var PostgresDialect = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	RealType:    "DOUBLE PRECISION",
	IntegerType: "BIGINT",
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	batchSize int
	logger    *slog.Logger
}

func NewSQLStore(db *sql.DB, dialect Dialect, batchSize int) *SQLStore {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &SQLStore{
		db:        db,
		dialect:   dialect,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "sql-store", "dialect", dialect.Name),
	}
}

func (s *SQLStore) columnType(t ColumnType) string {
	switch t {
	case Real:
		return s.dialect.RealType
	case Integer:
		return s.dialect.IntegerType
	default:
		return "TEXT"
	}
}

func names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func (s *SQLStore) placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = s.dialect.Placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}

// Recreate drops t if it exists and creates it empty.
func (s *SQLStore) Recreate(ctx context.Context, t Table) error {
	defs := make([]string, 0, len(t.Key)+len(t.Value)+1)
	for _, c := range t.Columns() {
		defs = append(defs, fmt.Sprintf("%s %s NOT NULL", c.Name, s.columnType(c.Type)))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(names(t.Key), ", ")))

	stmts := []string{
		"DROP TABLE IF EXISTS " + t.Name,
		fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", ")),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Newf(apperrors.ErrStorage, "recreating table %s: %v", t.Name, err)
		}
	}
	s.logger.Debug("table recreated", "table", t.Name)
	return nil
}

// Put inserts records in transactions of at most batchSize rows. Rows whose
// key already exists are ignored.
func (s *SQLStore) Put(ctx context.Context, t Table, records []Record) error {
	cols := t.Columns()
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		t.Name,
		strings.Join(names(cols), ", "),
		s.placeholders(1, len(cols)),
		strings.Join(names(t.Key), ", "),
	)
	for start := 0; start < len(records); start += s.batchSize {
		end := min(start+s.batchSize, len(records))
		if err := s.putBatch(ctx, t, query, records[start:end]); err != nil {
			return err
		}
	}
	s.logger.Debug("records stored", "table", t.Name, "count", len(records))
	return nil
}

func (s *SQLStore) putBatch(ctx context.Context, t Table, query string, batch []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "beginning transaction: %v", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return apperrors.Newf(apperrors.ErrStorage, "preparing insert into %s: %v", t.Name, err)
	}
	defer stmt.Close()
	for _, r := range batch {
		if err := checkRecord(t, r); err != nil {
			tx.Rollback()
			return apperrors.New(apperrors.ErrStorage, err.Error())
		}
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			tx.Rollback()
			return apperrors.Newf(apperrors.ErrStorage, "inserting into %s: %v", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "committing batch into %s: %v", t.Name, err)
	}
	return nil
}

// Get returns the row whose key equals key.
func (s *SQLStore) Get(ctx context.Context, t Table, key ...any) (Record, bool, error) {
	if len(key) != len(t.Key) {
		return nil, false, apperrors.Newf(apperrors.ErrStorage, "table %s: got %d key values, want %d", t.Name, len(key), len(t.Key))
	}
	conds := make([]string, len(t.Key))
	for i, c := range t.Key {
		conds[i] = fmt.Sprintf("%s = %s", c.Name, s.dialect.Placeholder(i+1))
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(names(t.Columns()), ", "), t.Name, strings.Join(conds, " AND "))

	rec, dest := scanTargets(t)
	err := s.db.QueryRowContext(ctx, query, key...).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Newf(apperrors.ErrStorage, "reading %s: %v", t.Name, err)
	}
	return rec(), true, nil
}

// ScanAll calls fn for every row of t in key order.
func (s *SQLStore) ScanAll(ctx context.Context, t Table, fn func(Record) error) error {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(names(t.Columns()), ", "), t.Name, strings.Join(names(t.Key), ", "))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "scanning %s: %v", t.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		rec, dest := scanTargets(t)
		if err := rows.Scan(dest...); err != nil {
			return apperrors.Newf(apperrors.ErrStorage, "scanning %s: %v", t.Name, err)
		}
		if err := fn(rec()); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "scanning %s: %v", t.Name, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// scanTargets returns typed scan destinations for t and a function building
// the Record from them once scanned.
func scanTargets(t Table) (func() Record, []any) {
	cols := t.Columns()
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c.Type {
		case Real:
			dest[i] = new(float64)
		case Integer:
			dest[i] = new(int64)
		default:
			dest[i] = new(string)
		}
	}
	return func() Record {
		rec := make(Record, len(dest))
		for i, d := range dest {
			switch v := d.(type) {
			case *float64:
				rec[i] = *v
			case *int64:
				rec[i] = *v
			case *string:
				rec[i] = *v
			}
		}
		return rec
	}, dest
}
