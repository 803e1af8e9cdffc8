package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "ghg.db"), 1)
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func TestStoreCreateAndList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		rec, err := s.Create(ctx, TableEquipment, Record{
			"user_id":  "u1",
			"name":     "Ecto-Forged Blade",
			"type":     "weapon",
			"rarity":   "uncommon",
			"stats":    map[string]int{"damage": 30},
			"equipped": false,
			"crafted":  true,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Text("id") == "" || rec.Time("created_at").IsZero() {
			t.Fatalf("Create did not fill id/created_at: %+v", rec)
		}

		got, err := s.List(ctx, TableEquipment, Filter{"user_id": "u1"}, nil)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("List returned %d records", len(got))
		}
		r := got[0]
		if r.Text("name") != "Ecto-Forged Blade" || !r.Bool("crafted") || r.Bool("equipped") {
			t.Errorf("round trip = %+v", r)
		}
		if r.IntMap("stats")["damage"] != 30 {
			t.Errorf("stats = %+v", r["stats"])
		}
		if !r.Time("created_at").Equal(rec.Time("created_at")) {
			t.Errorf("created_at %v != %v", r.Time("created_at"), rec.Time("created_at"))
		}

		other, err := s.List(ctx, TableEquipment, Filter{"user_id": "u2"}, nil)
		if err != nil || len(other) != 0 {
			t.Fatalf("other user's listing = %v, %v", other, err)
		}
	})
}

func TestStoreOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2024, 10, 31, 20, 0, 0, 0, time.UTC)
		for i, name := range []string{"b", "c", "a"} {
			if _, err := s.Create(ctx, TableBestiary, Record{
				"user_id":        "u1",
				"ghost_name":     name,
				"encounters":     i + 1,
				"last_encounter": base.Add(time.Duration(i) * time.Minute),
			}); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}

		got, err := s.List(ctx, TableBestiary, Filter{"user_id": "u1"}, &Order{Column: "last_encounter", Desc: true})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 3 || got[0].Text("ghost_name") != "a" || got[2].Text("ghost_name") != "b" {
			t.Fatalf("desc order = %v", names(got, "ghost_name"))
		}

		got, _ = s.List(ctx, TableBestiary, nil, &Order{Column: "ghost_name"})
		if got[0].Text("ghost_name") != "a" || got[1].Text("ghost_name") != "b" {
			t.Fatalf("asc order = %v", names(got, "ghost_name"))
		}
	})
}

func TestStoreUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rec, err := s.Create(ctx, TableWallet, Record{"id": "u1", "user_id": "u1", "ectos": 10})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := s.Update(ctx, TableWallet, rec.Text("id"), Record{"ectos": 35}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, _ := s.List(ctx, TableWallet, Filter{"user_id": "u1"}, nil)
		if len(got) != 1 || got[0].Int("ectos") != 35 {
			t.Fatalf("wallet after update = %+v", got)
		}

		err = s.Update(ctx, TableWallet, "missing", Record{"ectos": 1})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update missing = %v, want ErrNotFound", err)
		}
	})
}

func TestStoreRejectsUnknownNames(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.List(ctx, "users; DROP TABLE wallet", nil, nil); !errors.Is(err, ErrUnknownTable) {
			t.Errorf("List bad table = %v", err)
		}
		if _, err := s.Create(ctx, TableMaterials, Record{"user_id": "u1", "name": "x", "password": "y"}); !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("Create bad column = %v", err)
		}
		if _, err := s.List(ctx, TableMaterials, Filter{"1=1 OR name": "x"}, nil); !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("List bad filter = %v", err)
		}
		if _, err := s.List(ctx, TableMaterials, nil, &Order{Column: "random()"}); !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("List bad order = %v", err)
		}
		if err := s.Update(ctx, TableMaterials, "id", Record{"nope": 1}); !errors.Is(err, ErrUnknownColumn) {
			t.Errorf("Update bad column = %v", err)
		}
	})
}

func TestStoreBoolFilter(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, equipped := range []bool{true, false, false} {
			if _, err := s.Create(ctx, TableEquipment, Record{"user_id": "u1", "name": "n", "type": "shield", "equipped": equipped}); err != nil {
				t.Fatal(err)
			}
		}
		got, err := s.List(ctx, TableEquipment, Filter{"user_id": "u1", "equipped": false}, nil)
		if err != nil || len(got) != 2 {
			t.Fatalf("unequipped = %d, %v", len(got), err)
		}
	})
}

func names(rs []Record, col string) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Text(col)
	}
	return out
}
