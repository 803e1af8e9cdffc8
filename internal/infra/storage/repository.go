// Package storage provides the persistence layer for the guild server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

var (
	ErrUnknownTable  = errors.New("storage: unknown table")
	ErrUnknownColumn = errors.New("storage: unknown column")
	ErrNotFound      = errors.New("storage: record not found")
)

// Tables owned by the record store.
const (
	TableMaterials = "materials"
	TableEquipment = "equipment"
	TableBestiary  = "bestiary"
	TableSkills    = "skill_tree"
	TableRecipes   = "crafting_recipes"
	TableWallet    = "wallet"
)

// Filter matches records whose columns equal every given value.
type Filter map[string]interface{}

// Order sorts a listing by one column.
type Order struct {
	Column string
	Desc   bool
}

// Store is the key-value/record collaborator the guild persists through.
// Records are keyed by "id"; user-owned tables carry a "user_id" column.
type Store interface {
	// List returns the records of table matching filter, sorted by order
	// when it is non-nil.
	List(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error)

	// Create inserts rec and returns it as stored. A missing id is generated.
	Create(ctx context.Context, table string, rec Record) (Record, error)

	// Update overwrites the given columns of the record with id.
	Update(ctx context.Context, table, id string, changes Record) error
}

// GameEvent is the persisted form of a combat history event.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	UserID    string                 `json:"user_id" db:"user_id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for combat history persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByUserID retrieves all events of a user in chronological order.
	GetByUserID(ctx context.Context, userID string) ([]GameEvent, error)

	// GetByEventType retrieves a user's events of one type.
	GetByEventType(ctx context.Context, userID, eventType string) ([]GameEvent, error)
}
