package store

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// MemoryStore keeps tables in process memory. It is used for tests and for
// one-shot runs that need no persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]Record)}
}

func (m *MemoryStore) Recreate(_ context.Context, t Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = make(map[string]Record)
	return nil
}

func (m *MemoryStore) table(t Table) (map[string]Record, error) {
	rows, ok := m.tables[t.Name]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrStorage, "table %s does not exist", t.Name)
	}
	return rows, nil
}

func (m *MemoryStore) Put(_ context.Context, t Table, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, err := m.table(t)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := checkRecord(t, r); err != nil {
			return apperrors.New(apperrors.ErrStorage, err.Error())
		}
		k := keyString(r[:len(t.Key)])
		if _, exists := rows[k]; exists {
			continue
		}
		rows[k] = append(Record(nil), r...)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, t Table, key ...any) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(key) != len(t.Key) {
		return nil, false, apperrors.Newf(apperrors.ErrStorage, "table %s: got %d key values, want %d", t.Name, len(key), len(t.Key))
	}
	rows, err := m.table(t)
	if err != nil {
		return nil, false, err
	}
	r, ok := rows[keyString(key)]
	if !ok {
		return nil, false, nil
	}
	return append(Record(nil), r...), true, nil
}

// ScanAll visits rows in key order. fn must not write to the store.
func (m *MemoryStore) ScanAll(_ context.Context, t Table, fn func(Record) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, err := m.table(t)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(append(Record(nil), rows[k]...)); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
