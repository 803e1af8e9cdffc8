package storage

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It applies the same
// schema whitelist and value normalization as SQLiteStore.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Record)}
}

func (m *MemoryStore) List(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error) {
	if _, err := columnsOf(table); err != nil {
		return nil, err
	}
	want := make(Record, len(filter))
	for col, v := range filter {
		k, err := kindOf(table, col)
		if err != nil {
			return nil, err
		}
		c, err := canonical(k, v)
		if err != nil {
			return nil, fmt.Errorf("filter %s.%s: %w", table, col, err)
		}
		want[col] = c
	}
	if order != nil {
		if _, err := kindOf(table, order.Column); err != nil {
			return nil, err
		}
	}

	m.mu.RLock()
	var out []Record
	for _, rec := range m.tables[table] {
		if matches(rec, want) {
			out = append(out, rec.Clone())
		}
	}
	m.mu.RUnlock()

	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][order.Column], out[j][order.Column])
			if c == 0 {
				return out[i].Text("id") < out[j].Text("id")
			}
			if order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out, nil
}

func (m *MemoryStore) Create(ctx context.Context, table string, rec Record) (Record, error) {
	rec, err := prepareCreate(table, rec)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tables[table] {
		if existing.Text("id") == rec.Text("id") {
			return nil, fmt.Errorf("failed to create %s record: duplicate id %q", table, rec.Text("id"))
		}
	}
	m.tables[table] = append(m.tables[table], rec.Clone())
	return rec, nil
}

func (m *MemoryStore) Update(ctx context.Context, table, id string, changes Record) error {
	changes, err := normalize(table, changes)
	if err != nil {
		return err
	}
	delete(changes, "id")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.tables[table] {
		if rec.Text("id") == id {
			for col, v := range changes {
				rec[col] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
}

func matches(rec, want Record) bool {
	for col, v := range want {
		if compareValues(rec[col], v) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders canonical column values. nil sorts first, as in SQLite.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int:
		y, _ := b.(int)
		return cmp.Compare(x, y)
	case string:
		y, _ := b.(string)
		return cmp.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		return cmp.Compare(boolInt(x), boolInt(y))
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
