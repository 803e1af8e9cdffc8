package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ghostguild/ghg-server/internal/events"
)

// HistoryWriter persists the combat history subset of the event log.
// It implements events.EventPersister.
type HistoryWriter struct {
	repo    EventRepository
	userID  string
	timeout time.Duration
}

func NewHistoryWriter(repo EventRepository, userID string) *HistoryWriter {
	return &HistoryWriter{repo: repo, userID: userID, timeout: 5 * time.Second}
}

// Append stores e if it belongs in the history; other events are skipped.
func (w *HistoryWriter) Append(e events.GameEvent) error {
	if !events.IsHistory(e.Type) {
		return nil
	}
	payload, err := toMap(e.Payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	return w.repo.Append(ctx, GameEvent{
		ID:        e.ID,
		UserID:    w.userID,
		SessionID: e.ActorID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		TargetID:  e.TargetID,
		Payload:   payload,
	})
}

// toMap flattens a typed payload into its JSON object form.
func toMap(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return map[string]interface{}{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
