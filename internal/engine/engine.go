package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

var (
	ErrUnknownHunter    = errors.New("engine: unknown hunter")
	ErrUnknownLocation  = errors.New("engine: unknown location")
	ErrUnknownEquipment = errors.New("engine: unknown equipment")
	ErrEngineStopped    = errors.New("engine: stopped")
)

// StartRequest selects the loadout for a new encounter by catalog id.
type StartRequest struct {
	HunterID   string `json:"hunter_id"`
	WeaponID   string `json:"weapon_id"`
	ShieldID   string `json:"shield_id"`
	LocationID string `json:"location_id"`
}

// ResolveLoadout looks every id of r up in the catalog.
func ResolveLoadout(r StartRequest) (Loadout, error) {
	var l Loadout
	var ok bool
	if l.Hunter, ok = catalog.HunterByID(r.HunterID); !ok {
		return l, fmt.Errorf("%w: %q", ErrUnknownHunter, r.HunterID)
	}
	if l.Weapon, ok = catalog.WeaponByID(r.WeaponID); !ok {
		return l, fmt.Errorf("%w: weapon %q", ErrUnknownEquipment, r.WeaponID)
	}
	if l.Shield, ok = catalog.ShieldByID(r.ShieldID); !ok {
		return l, fmt.Errorf("%w: shield %q", ErrUnknownEquipment, r.ShieldID)
	}
	if l.Location, ok = catalog.LocationByID(r.LocationID); !ok {
		return l, fmt.Errorf("%w: %q", ErrUnknownLocation, r.LocationID)
	}
	return l, nil
}

// Options tune an Engine.
type Options struct {
	TickRate time.Duration
	Seed     int64
	Metrics  *metrics.Collector
}

// Engine is the actor that owns the encounter. All state changes happen on
// the goroutine running Run; public methods post commands to it.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	tickRate time.Duration

	sched     *Scheduler
	encounter *Encounter

	commands chan func()
	done     chan struct{}
}

// NewEngine wires the encounter core to its event log.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, opts Options) *Engine {
	m := opts.Metrics
	if m == nil {
		m = metrics.Get()
	}
	sched := NewScheduler(time.Now())
	rng := rand.New(rand.NewSource(opts.Seed))
	return &Engine{
		eventLog:  eventLog,
		logger:    log,
		metrics:   m,
		tickRate:  opts.TickRate,
		sched:     sched,
		encounter: NewEncounter(sched, rng, eventLog, log, m),
		commands:  make(chan func()),
		done:      make(chan struct{}),
	}
}

// Run processes commands and advances the clock until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Starting encounter engine...")
	ticker := NewTicker(e.tickRate)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Encounter engine stopped.")
			return nil
		case cmd := <-e.commands:
			cmd()
		case now := <-ticker.C():
			start := time.Now()
			e.sched.Advance(ticker.Elapsed(now))
			e.metrics.RecordTick(time.Since(start))
		}
	}
}

// do runs fn on the engine goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		defer close(finished)
		fn()
	}
	select {
	case e.commands <- cmd:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		return ErrEngineStopped
	}
}

// StartEncounter validates the loadout and begins a new game.
func (e *Engine) StartEncounter(ctx context.Context, req StartRequest) (Snapshot, error) {
	l, err := ResolveLoadout(req)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err = e.do(ctx, func() {
		e.encounter.Start(l)
		snap = e.encounter.Snapshot()
	})
	return snap, err
}

// Reset stops the running encounter, cancelling all spawn schedules.
func (e *Engine) Reset(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.do(ctx, func() {
		e.encounter.Stop()
		snap = e.encounter.Snapshot()
	})
	return snap, err
}

// Snapshot returns a deep copy of the encounter state.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.do(ctx, func() { snap = e.encounter.Snapshot() })
	return snap, err
}

// EventLog exposes the log the engine writes to.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}
