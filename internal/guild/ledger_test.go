package guild

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/infra/storage/mocks"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
)

func rewardEvents(at time.Time) []events.GameEvent {
	return []events.GameEvent{
		{Type: events.EventTypeBestiarySighting, Timestamp: at, Payload: events.BestiaryPayload{GhostName: "Phantom Lord", LocationID: "hospital", Difficulty: 3}},
		{Type: events.EventTypeLogLine, Timestamp: at, Payload: events.LogLinePayload{Text: "👻 A Phantom Lord materializes from the ethereal plane!"}},
		{Type: events.EventTypeEctosGranted, Timestamp: at, Payload: events.EctosGrantedPayload{Amount: 45}},
		{Type: events.EventTypeMaterialDropped, Timestamp: at, Payload: events.MaterialDroppedPayload{Name: "Phantom Crown Shard", Rarity: "rare", Quantity: 3}},
		{Type: events.EventTypeBestiaryDefeat, Timestamp: at.Add(time.Second), Payload: events.BestiaryPayload{GhostName: "Phantom Lord", LocationID: "hospital", Difficulty: 3}},
	}
}

func TestLedgerAppliesRewards(t *testing.T) {
	svc, _ := newTestService()
	el := events.NewEventLog(nil)
	ledger := NewLedger(svc, el, testUser, logger.NewDiscard())
	ctx := context.Background()
	at := time.Date(2024, 10, 31, 23, 0, 0, 0, time.UTC)

	for _, e := range rewardEvents(at) {
		el.Append(e)
	}
	if n := ledger.Drain(ctx); n != 4 {
		t.Fatalf("applied %d intents, want 4", n)
	}
	// Already consumed.
	if n := ledger.Drain(ctx); n != 0 {
		t.Fatalf("second drain applied %d", n)
	}

	p := svc.LoadProfile(ctx, testUser)
	if p.Ectos != 45 {
		t.Errorf("ectos = %d, want 45", p.Ectos)
	}
	if len(p.Materials) != 1 || p.Materials[0].Name != "Phantom Crown Shard" || p.Materials[0].Quantity != 3 {
		t.Errorf("materials = %+v", p.Materials)
	}
	if len(p.Bestiary) != 1 || p.Bestiary[0].Encounters != 1 || p.Bestiary[0].Defeats != 1 {
		t.Errorf("bestiary = %+v", p.Bestiary)
	}

	el.Append(events.GameEvent{Type: events.EventTypeEctosGranted, Payload: events.EctosGrantedPayload{Amount: 5}})
	ledger.Drain(ctx)
	if ectos, _ := svc.Ectos(ctx, testUser); ectos != 50 {
		t.Errorf("ectos after second grant = %d, want 50", ectos)
	}
}

func TestLedgerSkipsFailedWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("disk full")).Times(4)

	el := events.NewEventLog(nil)
	ledger := NewLedger(NewService(store, logger.NewDiscard()), el, testUser, logger.NewDiscard())
	for _, e := range rewardEvents(time.Now()) {
		el.Append(e)
	}

	if n := ledger.Drain(context.Background()); n != 0 {
		t.Errorf("applied %d intents against a failing store", n)
	}
	// The cursor still advances past failed events.
	if n := ledger.Drain(context.Background()); n != 0 {
		t.Errorf("failed events were retried")
	}
}

func TestLedgerRunStopsOnCancel(t *testing.T) {
	svc, _ := newTestService()
	el := events.NewEventLog(nil)
	ledger := NewLedger(svc, el, testUser, logger.NewDiscard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ledger.Run(ctx) }()

	el.Append(events.GameEvent{Type: events.EventTypeEctosGranted, Payload: events.EctosGrantedPayload{Amount: 7}})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// Cancel drains what was pending.
	if ectos, _ := svc.Ectos(context.Background(), testUser); ectos != 7 {
		t.Errorf("ectos = %d, want 7", ectos)
	}
}
