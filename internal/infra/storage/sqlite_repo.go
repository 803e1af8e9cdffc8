package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, user_id, session_id, timestamp, event_type, target_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.UserID, event.SessionID, event.Timestamp.UTC().Format(timeLayout),
		event.EventType, event.TargetID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var ts, payloadStr string
		err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &ts, &e.EventType, &e.TargetID, &payloadStr)
		if err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("event %s timestamp: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByUserID(ctx context.Context, userID string) ([]GameEvent, error) {
	query := `SELECT id, user_id, session_id, timestamp, event_type, target_id, payload FROM events WHERE user_id = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, userID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, userID, eventType string) ([]GameEvent, error) {
	query := `SELECT id, user_id, session_id, timestamp, event_type, target_id, payload FROM events WHERE user_id = ? AND event_type = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, userID, eventType)
}
