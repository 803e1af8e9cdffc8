package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Record is one row of a record-store table.
type Record map[string]interface{}

type columnKind uint8

const (
	kindText columnKind = iota
	kindInt
	kindBool
	kindJSON
	kindTime
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// schema whitelists the columns of every table. Anything else is rejected.
var schema = map[string]map[string]columnKind{
	TableMaterials: {
		"id": kindText, "user_id": kindText, "name": kindText, "rarity": kindText,
		"quantity": kindInt, "description": kindText, "created_at": kindTime,
	},
	TableEquipment: {
		"id": kindText, "user_id": kindText, "name": kindText, "type": kindText,
		"rarity": kindText, "stats": kindJSON, "equipped": kindBool, "crafted": kindBool,
		"created_at": kindTime,
	},
	TableBestiary: {
		"id": kindText, "user_id": kindText, "ghost_name": kindText, "location_id": kindText,
		"encounters": kindInt, "defeats": kindInt, "first_encounter": kindTime, "last_encounter": kindTime,
	},
	TableSkills: {
		"id": kindText, "user_id": kindText, "skill_id": kindText, "name": kindText,
		"skill_type": kindText, "level": kindInt, "max_level": kindInt, "unlocked": kindBool,
		"description": kindText,
	},
	TableRecipes: {
		"id": kindText, "item_name": kindText, "item_type": kindText, "rarity": kindText,
		"required_materials": kindJSON, "stats": kindJSON, "description": kindText,
	},
	TableWallet: {
		"id": kindText, "user_id": kindText, "ectos": kindInt, "updated_at": kindTime,
	},
}

func columnsOf(table string) (map[string]columnKind, error) {
	cols, ok := schema[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return cols, nil
}

func kindOf(table, column string) (columnKind, error) {
	cols, err := columnsOf(table)
	if err != nil {
		return 0, err
	}
	k, ok := cols[column]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, column)
	}
	return k, nil
}

// canonical converts v to the in-memory form of kind k:
// string, int, bool, time.Time, or decoded JSON.
func canonical(k columnKind, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case kindText:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case fmt.Stringer:
			return x.String(), nil
		}
		return fmt.Sprint(v), nil
	case kindInt:
		switch x := v.(type) {
		case int:
			return x, nil
		case int32:
			return int(x), nil
		case int64:
			return int(x), nil
		case float64:
			return int(x), nil
		case bool:
			if x {
				return 1, nil
			}
			return 0, nil
		case string:
			return strconv.Atoi(x)
		}
	case kindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int:
			return x != 0, nil
		case int64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		}
	case kindTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC(), nil
		case string:
			return time.Parse(timeLayout, x)
		}
	case kindJSON:
		raw, ok := v.(string)
		if !ok {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			raw = string(b)
		}
		var out interface{}
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, kindName(k))
}

// encode converts v to the value bound into SQL.
func encode(k columnKind, v interface{}) (interface{}, error) {
	c, err := canonical(k, v)
	if err != nil || c == nil {
		return c, err
	}
	switch k {
	case kindBool:
		if c.(bool) {
			return 1, nil
		}
		return 0, nil
	case kindTime:
		return c.(time.Time).Format(timeLayout), nil
	case kindJSON:
		b, err := json.Marshal(c)
		return string(b), err
	}
	return c, nil
}

// normalize validates every column of rec against table and returns a
// canonical copy.
func normalize(table string, rec Record) (Record, error) {
	cols, err := columnsOf(table)
	if err != nil {
		return nil, err
	}
	out := make(Record, len(rec))
	for col, v := range rec {
		k, ok := cols[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, col)
		}
		c, err := canonical(k, v)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", table, col, err)
		}
		out[col] = c
	}
	return out, nil
}

func kindName(k columnKind) string {
	switch k {
	case kindText:
		return "text"
	case kindInt:
		return "int"
	case kindBool:
		return "bool"
	case kindJSON:
		return "json"
	case kindTime:
		return "time"
	}
	return "unknown"
}

// Typed accessors. Missing or mistyped values yield the zero value.

func (r Record) Text(key string) string {
	s, _ := r[key].(string)
	return s
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r Record) Time(key string) time.Time {
	t, _ := r[key].(time.Time)
	return t
}

// IntMap reads a JSON object column of integer values.
func (r Record) IntMap(key string) map[string]int {
	out := make(map[string]int)
	switch m := r[key].(type) {
	case map[string]interface{}:
		for k, v := range m {
			switch n := v.(type) {
			case float64:
				out[k] = int(n)
			case int:
				out[k] = n
			}
		}
	case map[string]int:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
