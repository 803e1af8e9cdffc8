package guild

import (
	"context"
	"fmt"
	"time"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
)

// PollInterval is how often the ledger checks the event log for rewards.
const PollInterval = 200 * time.Millisecond

// Ledger turns the encounter's reward intents (ECTOS, material drops,
// bestiary sightings and banishments) into guild records. The encounter
// never waits on it; failures are logged and the event is skipped.
type Ledger struct {
	svc      *Service
	eventLog *events.EventLog
	userID   string
	logger   *logger.Logger
	cursor   int
}

// ledgerReader names the ledger's cursor in the event log.
const ledgerReader = "guild-ledger"

func NewLedger(svc *Service, eventLog *events.EventLog, userID string, log *logger.Logger) *Ledger {
	eventLog.Ack(ledgerReader, 0)
	return &Ledger{
		svc:      svc,
		eventLog: eventLog,
		userID:   userID,
		logger:   log,
	}
}

// Run polls the event log until ctx is done.
func (l *Ledger) Run(ctx context.Context) error {
	poll := time.NewTicker(PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Drain(context.WithoutCancel(ctx))
			return nil
		case <-poll.C:
			l.Drain(ctx)
		}
	}
}

// Drain applies every event appended since the last call and returns how
// many reward intents were applied.
func (l *Ledger) Drain(ctx context.Context) int {
	fresh := l.eventLog.Since(l.cursor)
	applied := 0
	for _, e := range fresh {
		l.cursor = e.Seq
		ok, err := l.Apply(ctx, e)
		if err != nil {
			l.logger.With("event", e.ID).Error(fmt.Sprintf("Failed to apply %s: %v", e.Type, err))
			continue
		}
		if ok {
			applied++
		}
	}
	l.eventLog.Ack(ledgerReader, l.cursor)
	return applied
}

// Apply persists a single reward intent. Non-reward events are ignored.
func (l *Ledger) Apply(ctx context.Context, e events.GameEvent) (bool, error) {
	switch p := e.Payload.(type) {
	case events.EctosGrantedPayload:
		if e.Type != events.EventTypeEctosGranted {
			return false, nil
		}
		_, err := l.svc.AddEctos(ctx, l.userID, p.Amount)
		return err == nil, err

	case events.MaterialDroppedPayload:
		if e.Type != events.EventTypeMaterialDropped {
			return false, nil
		}
		drop := catalog.MaterialDrop{Name: p.Name, Rarity: catalog.Rarity(p.Rarity), Description: p.Description}
		err := l.svc.AddMaterial(ctx, l.userID, drop, p.Quantity)
		return err == nil, err

	case events.BestiaryPayload:
		var defeated bool
		switch e.Type {
		case events.EventTypeBestiarySighting:
		case events.EventTypeBestiaryDefeat:
			defeated = true
		default:
			return false, nil
		}
		at := e.Timestamp
		if at.IsZero() {
			at = l.svc.now()
		}
		err := l.svc.RecordBestiary(ctx, l.userID, p.GhostName, p.LocationID, defeated, at)
		return err == nil, err
	}
	return false, nil
}
