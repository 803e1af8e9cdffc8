// Package events provides the append-only log of everything an encounter emits.
// Presentation events (log lines, damage numbers, banners) and reward intents
// share one ordered stream that the hub, the ledger and the history store consume.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	// Presentation
	EventTypeLogLine      EventType = "LOG_LINE"
	EventTypeDamageNumber EventType = "DAMAGE_NUMBER"
	EventTypeEffectBanner EventType = "EFFECT_BANNER"

	// Lifecycle
	EventTypeEncounterStarted EventType = "ENCOUNTER_STARTED"
	EventTypeEncounterStopped EventType = "ENCOUNTER_STOPPED"
	EventTypeGhostSpawned     EventType = "GHOST_SPAWNED"
	EventTypeGhostTargeting   EventType = "GHOST_TARGETING"
	EventTypeConfrontation    EventType = "CONFRONTATION"
	EventTypeCombatInitiated  EventType = "COMBAT_INITIATED"
	EventTypeCombatResolved   EventType = "COMBAT_RESOLVED"
	EventTypeGhostAbandoned   EventType = "GHOST_ABANDONED"
	EventTypeLevelUp          EventType = "LEVEL_UP"
	EventTypeRecoveryStart    EventType = "RECOVERY_START"
	EventTypeRecoveryComplete EventType = "RECOVERY_COMPLETE"

	// Reward intents, applied by the guild ledger
	EventTypeEctosGranted     EventType = "ECTOS_GRANTED"
	EventTypeMaterialDropped  EventType = "MATERIAL_DROPPED"
	EventTypeBestiarySighting EventType = "BESTIARY_SIGHTING"
	EventTypeBestiaryDefeat   EventType = "BESTIARY_DEFEAT"
)

// PresentationLifetime is how long damage numbers and banners stay visible.
const PresentationLifetime = 2 * time.Second

// IsHistory reports whether events of type t belong in the combat history.
func IsHistory(t EventType) bool {
	switch t {
	case EventTypeCombatResolved, EventTypeLevelUp, EventTypeRecoveryStart:
		return true
	}
	return false
}

// DamageKind distinguishes the colour of a floating number.
type DamageKind string

const (
	DamageKindDamage DamageKind = "damage"
	DamageKindHeal   DamageKind = "heal"
	DamageKindShield DamageKind = "shield"
)

type LogLinePayload struct {
	Text string `json:"text"`
}

type DamageNumberPayload struct {
	Amount   int        `json:"amount"`
	Critical bool       `json:"critical"`
	Kind     DamageKind `json:"kind"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

type EffectBannerPayload struct {
	Text string `json:"text"`
}

// EncounterPayload describes the loadout an encounter was started with.
type EncounterPayload struct {
	HunterID   string `json:"hunter_id"`
	WeaponID   string `json:"weapon_id"`
	ShieldID   string `json:"shield_id"`
	LocationID string `json:"location_id"`
	Difficulty int    `json:"difficulty"`
}

// GhostPayload identifies a hostile in lifecycle events.
type GhostPayload struct {
	GhostID   int     `json:"ghost_id"`
	Name      string  `json:"name"`
	Pattern   string  `json:"move_pattern,omitempty"`
	MaxHealth int     `json:"max_health,omitempty"`
	Damage    int     `json:"damage,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Reason    string  `json:"reason,omitempty"`
}

// CombatResolvedPayload records the outcome of one confrontation.
type CombatResolvedPayload struct {
	GhostID    int     `json:"ghost_id"`
	GhostName  string  `json:"ghost_name"`
	LocationID string  `json:"location_id"`
	Difficulty int     `json:"difficulty"`
	HunterWon  bool    `json:"hunter_won"`
	Roll       float64 `json:"roll"`
	XPGained   int     `json:"xp_gained"`
	Ectos      int     `json:"ectos"`
}

type LevelUpPayload struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

type RecoveryPayload struct {
	Seconds int `json:"seconds"`
}

type EctosGrantedPayload struct {
	Amount int `json:"amount"`
}

type MaterialDroppedPayload struct {
	Name        string `json:"name"`
	Rarity      string `json:"rarity"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type BestiaryPayload struct {
	GhostName  string `json:"ghost_name"`
	LocationID string `json:"location_id"`
	Difficulty int    `json:"difficulty"`
}

// GameEvent represents an immutable record of something the encounter did.
type GameEvent struct {
	ID        string      `json:"id"`
	Seq       int         `json:"seq"` // 1-based position in the log
	Timestamp time.Time   `json:"timestamp"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"` // zero for durable events
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // session that produced it
	TargetID  string      `json:"target_id"` // ghost id, when relevant
	Payload   interface{} `json:"payload"`
}

// Ephemeral reports whether the event self-expires.
func (e GameEvent) Ephemeral() bool {
	return !e.ExpiresAt.IsZero()
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// PersistQueueSize bounds the events waiting for write-through.
const PersistQueueSize = 1024

// ErrPersistBacklog is reported to the error hook for events dropped
// because the write-through queue was full.
var ErrPersistBacklog = errors.New("events: persist queue full")

// EventLog is the in-memory append-only log of game events.
//
// With a retention set, events older than the newest retain are trimmed once
// every reader registered through Ack has moved past them. Seq numbers keep
// counting across trims.
type EventLog struct {
	mu      sync.RWMutex
	events  []GameEvent
	base    int         // Seq of the last trimmed event
	live    []GameEvent // unexpired presentation events
	retain  int
	readers map[string]int

	persister EventPersister
	queue     chan GameEvent
	onError   func(GameEvent, error)
}

// NewEventLog creates a new event log with an optional persister. Events
// are written through in append order by RunPersister.
func NewEventLog(persister EventPersister) *EventLog {
	el := &EventLog{
		events:    make([]GameEvent, 0),
		readers:   make(map[string]int),
		persister: persister,
	}
	if persister != nil {
		el.queue = make(chan GameEvent, PersistQueueSize)
	}
	return el
}

// OnPersistError installs a callback for failed write-throughs.
func (el *EventLog) OnPersistError(fn func(GameEvent, error)) {
	el.mu.Lock()
	el.onError = fn
	el.mu.Unlock()
}

// SetRetention keeps at least the newest n events in memory. Zero keeps
// everything.
func (el *EventLog) SetRetention(n int) {
	el.mu.Lock()
	el.retain = max(0, n)
	el.mu.Unlock()
}

// Ack records that reader has consumed every event up to seq. A registered
// reader pins the events after its last ack against trimming.
func (el *EventLog) Ack(reader string, seq int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if prev, ok := el.readers[reader]; !ok || seq > prev {
		el.readers[reader] = seq
	}
}

// Append adds a new event to the log, filling in ID and Seq, and returns it.
// Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	event.Seq = el.base + len(el.events) + 1
	el.events = append(el.events, event)
	if !event.Timestamp.IsZero() {
		el.pruneLive(event.Timestamp)
	}
	if event.Ephemeral() {
		el.live = append(el.live, event)
	}
	el.trim()

	queued := true
	if el.queue != nil {
		// Enqueued under the lock so the writer sees append order.
		select {
		case el.queue <- event:
		default:
			queued = false
		}
	}
	onError := el.onError
	el.mu.Unlock()

	if !queued && onError != nil {
		onError(event, ErrPersistBacklog)
	}
	return event
}

// RunPersister writes queued events through the persister one at a time,
// in append order, until ctx is done. Whatever is still queued then is
// flushed before it returns.
func (el *EventLog) RunPersister(ctx context.Context) error {
	if el.queue == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case e := <-el.queue:
			el.persist(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-el.queue:
					el.persist(e)
				default:
					return nil
				}
			}
		}
	}
}

func (el *EventLog) persist(e GameEvent) {
	if err := el.persister.Append(e); err != nil {
		el.mu.RLock()
		onError := el.onError
		el.mu.RUnlock()
		if onError != nil {
			onError(e, err)
		}
	}
}

// pruneLive drops presentation events that have expired at now.
// Caller holds the write lock.
func (el *EventLog) pruneLive(now time.Time) {
	kept := el.live[:0]
	for _, e := range el.live {
		if now.Before(e.ExpiresAt) {
			kept = append(kept, e)
		}
	}
	clear(el.live[len(kept):])
	el.live = kept
}

// trim drops events behind both the retention window and every reader.
// It runs once the log holds twice the retention. Caller holds the write lock.
func (el *EventLog) trim() {
	if el.retain == 0 || len(el.events) < 2*el.retain {
		return
	}
	cut := len(el.events) - el.retain
	for _, seq := range el.readers {
		cut = min(cut, seq-el.base)
	}
	if cut <= 0 {
		return
	}
	el.events = append(make([]GameEvent, 0, len(el.events)-cut+el.retain), el.events[cut:]...)
	el.base += cut
}

// Len returns the number of events appended so far, trimmed ones included.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.base + len(el.events)
}

// Since returns retained events with Seq > seq, in order.
func (el *EventLog) Since(seq int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	i := max(0, seq-el.base)
	if i >= len(el.events) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-i)
	copy(out, el.events[i:])
	return out
}

// GetByType returns the retained events of the given type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetByActor returns the retained events produced by a session.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// Visible returns the ephemeral events that have not expired at now.
func (el *EventLog) Visible(now time.Time) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.live {
		if now.Before(e.ExpiresAt) {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained event.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
