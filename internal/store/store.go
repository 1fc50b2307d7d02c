// Package store persists the evaluation tables behind a small storage
// contract: batched insert, exact-key lookup and full-table scan. The same
// contract is served by SQLite, PostgreSQL and an in-memory map.
package store

import (
	"context"
	"fmt"
	"strings"
)

type ColumnType int

const (
	Text ColumnType = iota
	Real
	Integer
)

type Column struct {
	Name string
	Type ColumnType
}

// Table describes a table whose primary key is the Key columns.
type Table struct {
	Name  string
	Key   []Column
	Value []Column
}

// Columns returns the key columns followed by the value columns.
func (t Table) Columns() []Column {
	cols := make([]Column, 0, len(t.Key)+len(t.Value))
	cols = append(cols, t.Key...)
	return append(cols, t.Value...)
}

// Record holds one row: key values first, then value columns, as string,
// float64 or int64 according to the column types.
type Record []any

// Store is the storage collaborator. Put inserts records whose key is not
// present yet and leaves existing rows untouched.
type Store interface {
	Recreate(ctx context.Context, t Table) error
	Put(ctx context.Context, t Table, records []Record) error
	Get(ctx context.Context, t Table, key ...any) (Record, bool, error)
	ScanAll(ctx context.Context, t Table, fn func(Record) error) error
	Close() error
}

func checkRecord(t Table, r Record) error {
	cols := t.Columns()
	if len(r) != len(cols) {
		return fmt.Errorf("table %s: record has %d values, want %d", t.Name, len(r), len(cols))
	}
	for i, c := range cols {
		if err := checkValue(c, r[i]); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return nil
}

func checkValue(c Column, v any) error {
	ok := false
	switch c.Type {
	case Text:
		_, ok = v.(string)
	case Real:
		_, ok = v.(float64)
	case Integer:
		_, ok = v.(int64)
	}
	if !ok {
		return fmt.Errorf("column %s: unexpected value type %T", c.Name, v)
	}
	return nil
}

func keyString(key []any) string {
	parts := make([]string, len(key))
	for i, k := range key {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, "\x00")
}
