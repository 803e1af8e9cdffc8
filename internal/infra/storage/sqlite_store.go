package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore implements Store for SQLite. Table and column names come only
// from the schema whitelist; values are always bound as parameters.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) List(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error) {
	cols, err := columnsOf(table)
	if err != nil {
		return nil, err
	}
	names := sortedKeys(cols)

	var (
		where []string
		args  []interface{}
	)
	for _, col := range sortedKeys(filter) {
		k, err := kindOf(table, col)
		if err != nil {
			return nil, err
		}
		v, err := encode(k, filter[col])
		if err != nil {
			return nil, fmt.Errorf("filter %s.%s: %w", table, col, err)
		}
		where = append(where, col+" = ?")
		args = append(args, v)
	}

	query := "SELECT " + strings.Join(names, ", ") + " FROM " + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if order != nil {
		if _, err := kindOf(table, order.Column); err != nil {
			return nil, err
		}
		query += " ORDER BY " + order.Column
		if order.Desc {
			query += " DESC"
		} else {
			query += " ASC"
		}
		query += ", id ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		raw := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		rec := make(Record, len(names))
		for i, col := range names {
			v, err := canonical(cols[col], raw[i])
			if err != nil {
				return nil, fmt.Errorf("decode %s.%s: %w", table, col, err)
			}
			rec[col] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, table string, rec Record) (Record, error) {
	rec, err := prepareCreate(table, rec)
	if err != nil {
		return nil, err
	}

	cols := sortedKeys(rec)
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		k, _ := kindOf(table, col)
		if args[i], err = encode(k, rec[col]); err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", table, col, err)
		}
	}

	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", table, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, table, id string, changes Record) error {
	changes, err := normalize(table, changes)
	if err != nil {
		return err
	}
	delete(changes, "id")
	if len(changes) == 0 {
		return nil
	}

	cols := sortedKeys(changes)
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		k, _ := kindOf(table, col)
		v, err := encode(k, changes[col])
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", table, col, err)
		}
		sets[i] = col + " = ?"
		args = append(args, v)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, "UPDATE "+table+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update %s record: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
	}
	return nil
}

// prepareCreate validates rec and fills in id and created_at.
func prepareCreate(table string, rec Record) (Record, error) {
	rec, err := normalize(table, rec)
	if err != nil {
		return nil, err
	}
	if rec.Text("id") == "" {
		rec["id"] = uuid.NewString()
	}
	if _, ok := schema[table]["created_at"]; ok && rec["created_at"] == nil {
		rec["created_at"] = time.Now().UTC()
	}
	return rec, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
