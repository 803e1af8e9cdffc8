// Package engine contains the encounter core: spawning, movement, combat,
// progression and recovery, all driven by timers on a virtual clock.
//
// ARCHITECTURAL RULE: all encounter state is owned by one Encounter and
// mutated only from scheduler callbacks or Engine commands, which run on a
// single goroutine. Every callback re-validates the encounter generation and
// the ghost it refers to before touching state.
package engine

import (
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ghostguild/ghg-server/internal/domain/arena"
	"github.com/ghostguild/ghg-server/internal/domain/catalog"
	"github.com/ghostguild/ghg-server/internal/domain/ghost"
	"github.com/ghostguild/ghg-server/internal/domain/hunter"
	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

// Encounter timings.
const (
	SpawnInterval      = 15 * time.Second
	TargetingDelay     = 2 * time.Second
	MovementBatch      = 1000 * time.Millisecond
	MovementActuation  = 800 * time.Millisecond
	ConfrontationDelay = 1500 * time.Millisecond
	ResolutionDelay    = 2 * time.Second
	RecoveryStep       = time.Second
)

// Loadout is the immutable reference data one encounter is played with.
type Loadout struct {
	Hunter   catalog.HunterProfile `json:"hunter"`
	Weapon   catalog.Equipment     `json:"weapon"`
	Shield   catalog.Equipment     `json:"shield"`
	Location catalog.Location      `json:"location"`
}

// Encounter is the single context object for one hunter's fight.
type Encounter struct {
	eventLog *events.EventLog
	base     *logger.Logger
	logger   *logger.Logger
	metrics  *metrics.Collector
	sched    *Scheduler
	rng      *rand.Rand
	roll     func() float64 // combat coin flip, rng.Float64 unless overridden

	sessionID string
	loadout   Loadout
	hunter    *hunter.Hunter
	ghosts    map[int]*ghost.Ghost

	active      bool
	generation  uint64
	nextGhostID int
	lastSpawnAt time.Time
	hasSpawned  bool
	combatGhost int // id of the ghost in combat, 0 if none
}

// NewEncounter creates an idle encounter. Nothing is scheduled until Start.
func NewEncounter(sched *Scheduler, rng *rand.Rand, eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *Encounter {
	if m == nil {
		m = metrics.New()
	}
	e := &Encounter{
		eventLog: eventLog,
		base:     log,
		logger:   log,
		metrics:  m,
		sched:    sched,
		rng:      rng,
		ghosts:   make(map[int]*ghost.Ghost),
	}
	e.roll = rng.Float64
	return e
}

// SetRoll replaces the combat roll source. Scripted scenarios use it to
// force outcomes; fn must return values in [0,1).
func (e *Encounter) SetRoll(fn func() float64) {
	e.roll = fn
}

// Scheduler returns the virtual clock the encounter runs on.
func (e *Encounter) Scheduler() *Scheduler {
	return e.sched
}

// Start begins a new game with the given loadout. Any running encounter is
// stopped first; the hunter is rebuilt from the selected profile.
func (e *Encounter) Start(l Loadout) {
	if e.active {
		e.stop()
	}
	e.sessionID = uuid.NewString()
	e.loadout = l
	e.hunter = hunter.New(l.Hunter.ID, l.Hunter.Name, l.Hunter.MaxHealth)
	e.logger = e.base.With("session", e.sessionID)

	e.emit(events.EventTypeEncounterStarted, "", events.EncounterPayload{
		HunterID:   l.Hunter.ID,
		WeaponID:   l.Weapon.ID,
		ShieldID:   l.Shield.ID,
		LocationID: l.Location.ID,
		Difficulty: l.Location.Difficulty,
	})
	e.logLine("🏚️ Entering " + l.Location.Name + "...")
	e.logger.Info("Encounter started at " + l.Location.Name + " with " + l.Hunter.Name)

	e.arm()
}

// Stop cancels every pending timer and clears the hostile set.
// The hunter is reset to its initial values.
func (e *Encounter) Stop() bool {
	if !e.active {
		return false
	}
	e.stop()
	e.hunter.Reset()
	e.emit(events.EventTypeEncounterStopped, "", nil)
	e.logger.Info("Encounter stopped")
	return true
}

// arm starts the spawn cadence (first spawn immediately) and the movement loop.
func (e *Encounter) arm() {
	e.active = true
	e.hasSpawned = false
	gen := e.generation
	e.sched.After(0, func() { e.spawnTick(gen) })
	e.sched.After(MovementBatch, func() { e.movementBatch(gen) })
}

// stop invalidates every outstanding callback and purges hostiles.
func (e *Encounter) stop() {
	e.generation++
	e.sched.CancelAll()
	e.purgeGhosts()
	e.active = false
}

func (e *Encounter) purgeGhosts() {
	for id := range e.ghosts {
		delete(e.ghosts, id)
	}
	e.combatGhost = 0
}

// stale reports whether a callback armed in generation gen should no-op.
func (e *Encounter) stale(gen uint64) bool {
	return !e.active || gen != e.generation
}

func (e *Encounter) spawnTick(gen uint64) {
	if e.stale(gen) {
		return
	}
	e.trySpawn()
	e.sched.After(SpawnInterval, func() { e.spawnTick(gen) })
}

// trySpawn adds one hostile if the arena has room, the hunter is able to
// fight and the cooldown has elapsed.
func (e *Encounter) trySpawn() (*ghost.Ghost, bool) {
	if len(e.ghosts) >= rules.MaxActiveGhosts || e.hunter.InRecovery {
		return nil, false
	}
	now := e.sched.Now()
	if e.hasSpawned && now.Sub(e.lastSpawnAt) < SpawnInterval {
		return nil, false
	}

	d := e.loadout.Location.Difficulty
	e.nextGhostID++
	g := ghost.New(
		e.nextGhostID,
		ghost.Names[e.rng.Intn(len(ghost.Names))],
		rules.GhostMaxHealth(d),
		rules.GhostDamage(d),
		arena.Vec2{X: arena.SpawnX, Y: 20 + e.rng.Float64()*60},
		ghost.Patterns[e.rng.Intn(len(ghost.Patterns))],
	)
	e.ghosts[g.ID] = g
	e.lastSpawnAt = now
	e.hasSpawned = true
	e.metrics.RecordSpawn()

	e.logLine("👻 A " + g.Name + " materializes from the ethereal plane!")
	e.emit(events.EventTypeGhostSpawned, ghostTarget(g.ID), events.GhostPayload{
		GhostID:   g.ID,
		Name:      g.Name,
		Pattern:   string(g.Pattern),
		MaxHealth: g.MaxHealth,
		Damage:    g.Damage,
		X:         g.Position.X,
		Y:         g.Position.Y,
	})
	e.emit(events.EventTypeBestiarySighting, ghostTarget(g.ID), events.BestiaryPayload{
		GhostName:  g.Name,
		LocationID: e.loadout.Location.ID,
		Difficulty: d,
	})

	gen, id := e.generation, g.ID
	e.sched.After(TargetingDelay, func() { e.beginTargeting(gen, id) })
	return g, true
}

// beginTargeting is the automatic roaming -> targeting edge.
func (e *Encounter) beginTargeting(gen uint64, id int) {
	if e.stale(gen) {
		return
	}
	g, ok := e.ghosts[id]
	if !ok {
		e.logger.Debug("targeting skipped: ghost " + strconv.Itoa(id) + " is gone")
		return
	}
	if e.hunter.InRecovery {
		e.logger.Debug("targeting suppressed during recovery for ghost " + strconv.Itoa(id))
		return
	}
	if !g.Transition(ghost.StateTargeting) {
		return
	}
	e.emit(events.EventTypeGhostTargeting, ghostTarget(id), ghostPayload(g, ""))
}

// sortedGhostIDs returns active ids in spawn order.
func (e *Encounter) sortedGhostIDs() []int {
	ids := make([]int, 0, len(e.ghosts))
	for id := range e.ghosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Presentation helpers.

func (e *Encounter) emit(t events.EventType, target string, payload interface{}) events.GameEvent {
	ev := events.GameEvent{
		Timestamp: e.sched.Now(),
		Type:      t,
		ActorID:   e.sessionID,
		TargetID:  target,
		Payload:   payload,
	}
	if t == events.EventTypeDamageNumber || t == events.EventTypeEffectBanner {
		ev.ExpiresAt = ev.Timestamp.Add(events.PresentationLifetime)
	}
	start := time.Now()
	ev = e.eventLog.Append(ev)
	e.metrics.RecordEventWrite(time.Since(start), nil)
	return ev
}

func (e *Encounter) logLine(text string) {
	e.emit(events.EventTypeLogLine, "", events.LogLinePayload{Text: text})
}

func (e *Encounter) banner(text string) {
	e.emit(events.EventTypeEffectBanner, "", events.EffectBannerPayload{Text: text})
}

func (e *Encounter) damageNumber(amount int, critical bool, kind events.DamageKind) {
	e.emit(events.EventTypeDamageNumber, "", events.DamageNumberPayload{
		Amount:   amount,
		Critical: critical,
		Kind:     kind,
		X:        20 + e.rng.Float64()*60,
		Y:        30 + e.rng.Float64()*40,
	})
}

func ghostTarget(id int) string {
	return "ghost-" + strconv.Itoa(id)
}

func ghostPayload(g *ghost.Ghost, reason string) events.GhostPayload {
	return events.GhostPayload{
		GhostID: g.ID,
		Name:    g.Name,
		Pattern: string(g.Pattern),
		X:       g.Position.X,
		Y:       g.Position.Y,
		Reason:  reason,
	}
}

// Snapshot is a deep copy of the encounter state.
type Snapshot struct {
	SessionID string             `json:"session_id"`
	Active    bool               `json:"active"`
	Now       time.Time          `json:"now"`
	Loadout   Loadout            `json:"loadout"`
	Hunter    *hunter.Hunter     `json:"hunter,omitempty"`
	Ghosts    []ghost.Ghost      `json:"ghosts"`
	Visible   []events.GameEvent `json:"visible"`
	LastSeq   int                `json:"last_seq"`
	Required  int                `json:"required_xp"`
}

// Snapshot copies the current state. It shares no memory with the encounter.
func (e *Encounter) Snapshot() Snapshot {
	s := Snapshot{
		SessionID: e.sessionID,
		Active:    e.active,
		Now:       e.sched.Now(),
		Loadout:   e.loadout,
		Ghosts:    make([]ghost.Ghost, 0, len(e.ghosts)),
		Visible:   e.eventLog.Visible(e.sched.Now()),
		LastSeq:   e.eventLog.Len(),
	}
	if e.hunter != nil {
		h := *e.hunter
		s.Hunter = &h
		s.Required = rules.RequiredXP(h.Level)
	}
	for _, id := range e.sortedGhostIDs() {
		s.Ghosts = append(s.Ghosts, e.ghosts[id].Clone())
	}
	return s
}
