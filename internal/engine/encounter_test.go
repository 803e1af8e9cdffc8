package engine

import (
	"math/rand"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/ghostguild/ghg-server/internal/domain/arena"
	"github.com/ghostguild/ghg-server/internal/domain/ghost"
	"github.com/ghostguild/ghg-server/internal/domain/hunter"
	"github.com/ghostguild/ghg-server/internal/domain/rules"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

const step = 100 * time.Millisecond

func newTestEncounter(seed int64) (*Encounter, *events.EventLog) {
	el := events.NewEventLog(nil)
	sched := NewScheduler(epoch)
	enc := NewEncounter(sched, rand.New(rand.NewSource(seed)), el, logger.NewDiscard(), metrics.New())
	return enc, el
}

// tb is the subset of testing.TB that *rapid.T also implements.
type tb interface {
	Helper()
	Fatalf(format string, args ...any)
}

func testLoadout(t tb, hunterID, locationID string) Loadout {
	t.Helper()
	l, err := ResolveLoadout(StartRequest{
		HunterID:   hunterID,
		WeaponID:   "sword",
		ShieldID:   "tower",
		LocationID: locationID,
	})
	if err != nil {
		t.Fatalf("ResolveLoadout: %v", err)
	}
	return l
}

// advanceUntil steps the clock until cond holds or limit elapses.
func advanceUntil(enc *Encounter, limit time.Duration, cond func() bool) bool {
	for elapsed := time.Duration(0); elapsed <= limit; elapsed += step {
		if cond() {
			return true
		}
		enc.sched.Advance(step)
	}
	return cond()
}

func countType(el *events.EventLog, t events.EventType) int {
	return len(el.GetByType(t))
}

func TestStartSpawnsImmediately(t *testing.T) {
	enc, el := newTestEncounter(1)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(0)

	if len(enc.ghosts) != 1 {
		t.Fatalf("ghosts = %d after start, want 1", len(enc.ghosts))
	}
	g := enc.ghosts[enc.sortedGhostIDs()[0]]
	if g.MaxHealth != 80 || g.Health != 80 || g.Damage != 20 {
		t.Errorf("difficulty-1 stats = %d/%d dmg %d", g.Health, g.MaxHealth, g.Damage)
	}
	if g.Position.X != arena.SpawnX || g.Position.Y < 20 || g.Position.Y > 80 {
		t.Errorf("spawn position = %+v", g.Position)
	}
	if g.State != ghost.StateRoaming {
		t.Errorf("state = %v, want roaming", g.State)
	}
	if countType(el, events.EventTypeGhostSpawned) != 1 || countType(el, events.EventTypeBestiarySighting) != 1 {
		t.Error("spawn did not emit GHOST_SPAWNED and BESTIARY_SIGHTING")
	}

	h := enc.hunter
	if h.Health != 120 || h.Shield != 100 || h.Energy != 100 || h.Level != 1 || h.Position != arena.HunterStart {
		t.Errorf("hunter start = %+v", h)
	}
}

func TestTargetingAfterDelay(t *testing.T) {
	enc, el := newTestEncounter(2)
	enc.Start(testLoadout(t, "mage", "cemetery"))
	enc.sched.Advance(TargetingDelay - time.Millisecond)

	id := enc.sortedGhostIDs()[0]
	if enc.ghosts[id].State != ghost.StateRoaming {
		t.Fatalf("ghost targeting before delay elapsed")
	}
	enc.sched.Advance(time.Millisecond)
	if enc.ghosts[id].State != ghost.StateTargeting {
		t.Fatalf("state = %v at +2s, want targeting", enc.ghosts[id].State)
	}
	if countType(el, events.EventTypeGhostTargeting) != 1 {
		t.Error("missing GHOST_TARGETING event")
	}
}

func TestSpawnCadenceAndCap(t *testing.T) {
	enc, _ := newTestEncounter(3)
	enc.Start(testLoadout(t, "warrior", "hospital"))
	// The hunter always wins so recovery never pauses spawning.
	enc.roll = func() float64 { return 0.99 }

	enc.sched.Advance(SpawnInterval - time.Millisecond)
	if enc.nextGhostID != 1 {
		t.Fatalf("spawned %d before cooldown elapsed", enc.nextGhostID)
	}
	enc.sched.Advance(time.Millisecond)
	if enc.nextGhostID != 2 {
		t.Fatalf("spawned %d at 15s, want 2", enc.nextGhostID)
	}
	for i := 0; i < 600; i++ {
		enc.sched.Advance(step)
		if len(enc.ghosts) > rules.MaxActiveGhosts {
			t.Fatalf("%d ghosts active", len(enc.ghosts))
		}
	}
}

func TestVictoryScenario(t *testing.T) {
	enc, el := newTestEncounter(4)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.roll = func() float64 { return 0.9 }

	if !advanceUntil(enc, 30*time.Second, func() bool {
		return countType(el, events.EventTypeCombatResolved) > 0
	}) {
		t.Fatal("no combat resolved within 30s")
	}

	h := enc.hunter
	if h.KillCount != 1 {
		t.Errorf("kills = %d, want 1", h.KillCount)
	}
	if h.Level != 2 || h.XP != 0 {
		t.Errorf("level %d xp %d, want level 2 xp 0", h.Level, h.XP)
	}
	if h.Ectos != 10 {
		t.Errorf("ectos = %d, want 10", h.Ectos)
	}
	if h.Health != 120 || h.Energy != 100 {
		t.Errorf("restoration exceeded caps: health %d energy %d", h.Health, h.Energy)
	}
	if len(enc.ghosts) != 0 {
		t.Errorf("defeated ghost still active")
	}
	if countType(el, events.EventTypeLevelUp) != 1 {
		t.Error("missing LEVEL_UP")
	}

	drops := el.GetByType(events.EventTypeMaterialDropped)
	if len(drops) != 1 || drops[0].Payload.(events.MaterialDroppedPayload).Quantity != 1 {
		t.Errorf("material drops = %+v", drops)
	}

	var sawCrit bool
	for _, ev := range el.GetByType(events.EventTypeDamageNumber) {
		p := ev.Payload.(events.DamageNumberPayload)
		if p.Amount == 50 && p.Critical {
			sawCrit = true
		}
		if p.X < 20 || p.X > 80 || p.Y < 30 || p.Y > 70 {
			t.Errorf("damage number off screen: %+v", p)
		}
		if ev.ExpiresAt.Sub(ev.Timestamp) != events.PresentationLifetime {
			t.Errorf("damage number lifetime = %v", ev.ExpiresAt.Sub(ev.Timestamp))
		}
	}
	if !sawCrit {
		t.Error("missing critical 50 damage number")
	}
}

func TestConfrontationTimeline(t *testing.T) {
	enc, el := newTestEncounter(5)
	enc.Start(testLoadout(t, "paladin", "mansion"))
	enc.roll = func() float64 { return 0.9 }

	if !advanceUntil(enc, 30*time.Second, func() bool {
		return countType(el, events.EventTypeConfrontation) > 0
	}) {
		t.Fatal("no confrontation within 30s")
	}
	confronted := el.GetByType(events.EventTypeConfrontation)[0].Timestamp

	advanceUntil(enc, 10*time.Second, func() bool {
		return countType(el, events.EventTypeCombatResolved) > 0
	})
	initiated := el.GetByType(events.EventTypeCombatInitiated)[0].Timestamp
	resolved := el.GetByType(events.EventTypeCombatResolved)[0].Timestamp

	if d := initiated.Sub(confronted); d != ConfrontationDelay {
		t.Errorf("confrontation -> initiation = %v, want %v", d, ConfrontationDelay)
	}
	if d := resolved.Sub(initiated); d != ResolutionDelay {
		t.Errorf("initiation -> resolution = %v, want %v", d, ResolutionDelay)
	}
}

func TestDefeatScenario(t *testing.T) {
	for _, loc := range []string{"mansion", "cemetery", "hospital"} {
		t.Run(loc, func(t *testing.T) {
			enc, el := newTestEncounter(6)
			enc.Start(testLoadout(t, "warrior", loc))
			enc.roll = func() float64 { return 0.1 }

			if !advanceUntil(enc, 30*time.Second, func() bool { return enc.hunter.InRecovery }) {
				t.Fatal("hunter never entered recovery")
			}
			h := enc.hunter
			if h.Health != 0 || h.Shield != 0 || h.Energy != 0 {
				t.Errorf("vitals after defeat = %d/%d/%d", h.Health, h.Shield, h.Energy)
			}
			if h.RecoveryRemaining != rules.RecoverySeconds {
				t.Errorf("recovery remaining = %d, want 180", h.RecoveryRemaining)
			}
			if len(enc.ghosts) != 0 {
				t.Errorf("ghosts = %d after defeat, want 0", len(enc.ghosts))
			}
			if countType(el, events.EventTypeRecoveryStart) != 1 {
				t.Error("missing RECOVERY_START")
			}
			if h.KillCount != 0 || h.XP != 0 {
				t.Errorf("defeat granted progression: %+v", h)
			}
		})
	}
}

func TestRecoveryCompletion(t *testing.T) {
	enc, el := newTestEncounter(7)
	enc.Start(testLoadout(t, "mage", "cemetery"))
	enc.roll = func() float64 { return 0.1 }

	advanceUntil(enc, 30*time.Second, func() bool { return enc.hunter.InRecovery })
	enteredAt := el.GetByType(events.EventTypeRecoveryStart)[0].Timestamp

	// No spawns during recovery.
	spawned := enc.nextGhostID
	enc.sched.Advance(179 * time.Second)
	if !enc.hunter.InRecovery || enc.hunter.RecoveryRemaining != 1 {
		t.Fatalf("after 179s: recovery=%v remaining=%d", enc.hunter.InRecovery, enc.hunter.RecoveryRemaining)
	}
	if enc.nextGhostID != spawned {
		t.Fatalf("%d ghosts spawned during recovery", enc.nextGhostID-spawned)
	}

	enc.sched.Advance(time.Second)
	h := enc.hunter
	if h.InRecovery || h.Health != h.MaxHealth || h.Shield != hunter.MaxShield || h.Energy != hunter.MaxEnergy {
		t.Fatalf("hunter after recovery = %+v", h)
	}
	if h.Level != 1 || h.KillCount != 0 {
		t.Fatalf("progression changed by recovery: %+v", h)
	}
	done := el.GetByType(events.EventTypeRecoveryComplete)
	if len(done) != 1 || done[0].Timestamp.Sub(enteredAt) != 180*time.Second {
		t.Fatalf("RECOVERY_COMPLETE = %+v", done)
	}

	// Spawning re-arms with an immediate spawn of a fresh hostile.
	if len(enc.ghosts) != 1 {
		t.Fatalf("ghosts = %d after re-arm, want 1", len(enc.ghosts))
	}
	for id := range enc.ghosts {
		if id <= spawned {
			t.Fatalf("ghost %d survived recovery", id)
		}
	}
}

func TestRecoveryPurgesEveryGhost(t *testing.T) {
	enc, el := newTestEncounter(8)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(0)
	enc.hasSpawned = false
	if _, ok := enc.trySpawn(); !ok {
		t.Fatal("second spawn refused")
	}
	enc.sched.Advance(TargetingDelay)
	for _, g := range enc.ghosts {
		if g.State != ghost.StateTargeting {
			t.Fatalf("ghost %d is %v, want targeting", g.ID, g.State)
		}
	}

	if !enc.EnterRecovery(3) {
		t.Fatal("EnterRecovery refused")
	}
	if enc.EnterRecovery(3) {
		t.Fatal("EnterRecovery accepted while already recovering")
	}
	for _, g := range enc.ghosts {
		if g.State != ghost.StateRoaming {
			t.Errorf("ghost %d is %v during recovery, want roaming", g.ID, g.State)
		}
	}

	// Targeting timers and movement passes are inert while recovering.
	enc.sched.Advance(2 * time.Second)
	for _, g := range enc.ghosts {
		if g.State != ghost.StateRoaming {
			t.Errorf("ghost %d resumed targeting during recovery", g.ID)
		}
	}

	enc.sched.Advance(time.Second)
	if enc.hunter.InRecovery {
		t.Fatal("still recovering")
	}
	if countType(el, events.EventTypeRecoveryComplete) != 1 {
		t.Fatal("missing RECOVERY_COMPLETE")
	}
	for id := range enc.ghosts {
		if id <= 2 {
			t.Errorf("pre-recovery ghost %d survived", id)
		}
	}
}

func TestDefeatKeepsBystanderUntilRecoveryEnds(t *testing.T) {
	enc, el := newTestEncounter(10)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(0)
	enc.hasSpawned = false
	if _, ok := enc.trySpawn(); !ok {
		t.Fatal("second spawn refused")
	}
	enc.sched.Advance(TargetingDelay)

	ids := enc.sortedGhostIDs()
	winner, bystander := enc.ghosts[ids[0]], ids[1]
	if !enc.confront(winner) {
		t.Fatal("confront refused")
	}
	enc.roll = func() float64 { return 0.1 }
	if !enc.Resolve(winner.ID) {
		t.Fatal("Resolve refused")
	}

	h := enc.hunter
	if !h.InRecovery || h.RecoveryRemaining != rules.RecoverySeconds {
		t.Fatalf("recovery = %v/%d after defeat", h.InRecovery, h.RecoveryRemaining)
	}
	// Only the ghost that won leaves; the other waits out recovery inert.
	if len(enc.ghosts) != 1 {
		t.Fatalf("ghosts = %d after defeat, want 1", len(enc.ghosts))
	}
	g, ok := enc.ghosts[bystander]
	if !ok || g.State != ghost.StateRoaming {
		t.Fatalf("bystander = %+v, want roaming ghost %d", g, bystander)
	}

	enc.sched.Advance(time.Duration(rules.RecoverySeconds) * time.Second)
	if countType(el, events.EventTypeRecoveryComplete) != 1 {
		t.Fatal("missing RECOVERY_COMPLETE")
	}
	if _, ok := enc.ghosts[bystander]; ok {
		t.Error("bystander survived recovery completion")
	}
	if countType(el, events.EventTypeCombatInitiated) != 0 {
		t.Error("combat initiated with a ghost removed by the defeat")
	}
}

func TestAbandonedConfrontation(t *testing.T) {
	enc, el := newTestEncounter(9)
	enc.Start(testLoadout(t, "warrior", "mansion"))

	if !advanceUntil(enc, 30*time.Second, func() bool { return enc.combatGhost != 0 }) {
		t.Fatal("no confrontation within 30s")
	}
	id := enc.combatGhost
	enc.EnterRecovery(rules.RecoverySeconds)

	enc.sched.Advance(ConfrontationDelay)
	if _, ok := enc.ghosts[id]; ok {
		t.Fatal("abandoned ghost still active")
	}
	if countType(el, events.EventTypeGhostAbandoned) != 1 {
		t.Fatal("missing GHOST_ABANDONED")
	}
	if countType(el, events.EventTypeCombatResolved) != 0 || countType(el, events.EventTypeCombatInitiated) != 0 {
		t.Fatal("abandoned confrontation was resolved")
	}
}

func TestResetCancelsSpawning(t *testing.T) {
	enc, el := newTestEncounter(10)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(5 * time.Second)

	if !enc.Stop() {
		t.Fatal("Stop returned false on a running encounter")
	}
	spawned := countType(el, events.EventTypeGhostSpawned)
	if len(enc.ghosts) != 0 {
		t.Fatalf("ghosts = %d after reset", len(enc.ghosts))
	}
	if enc.sched.Pending() != 0 {
		t.Fatalf("%d timers pending after reset", enc.sched.Pending())
	}

	enc.sched.Advance(time.Minute)
	if got := countType(el, events.EventTypeGhostSpawned); got != spawned {
		t.Fatalf("%d ghosts spawned after reset", got-spawned)
	}
	if enc.Stop() {
		t.Fatal("second Stop returned true")
	}
}

func TestRestartIssuesFreshGhostIDs(t *testing.T) {
	enc, _ := newTestEncounter(11)
	l := testLoadout(t, "warrior", "mansion")
	enc.Start(l)
	enc.sched.Advance(0)
	first := enc.sortedGhostIDs()[0]

	enc.Start(l)
	enc.sched.Advance(0)
	second := enc.sortedGhostIDs()[0]
	if second <= first {
		t.Fatalf("ghost id reused across games: %d then %d", first, second)
	}
}

func TestResolveMissingGhostIsNoop(t *testing.T) {
	enc, el := newTestEncounter(12)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(0)
	before := el.Len()

	if enc.Resolve(999) {
		t.Fatal("Resolve of a missing ghost reported true")
	}
	// Roaming ghost is not in combat.
	if enc.Resolve(enc.sortedGhostIDs()[0]) {
		t.Fatal("Resolve of a roaming ghost reported true")
	}
	if el.Len() != before {
		t.Fatal("no-op resolution emitted events")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	enc, _ := newTestEncounter(13)
	enc.Start(testLoadout(t, "warrior", "mansion"))
	enc.sched.Advance(0)

	snap := enc.Snapshot()
	snap.Hunter.Health = 1
	snap.Ghosts[0].Abilities[0] = "mutated"

	if enc.hunter.Health == 1 {
		t.Error("snapshot shares hunter")
	}
	if enc.ghosts[snap.Ghosts[0].ID].Abilities[0] == "mutated" {
		t.Error("snapshot shares ghost abilities")
	}
	if snap.Required != 50 {
		t.Errorf("required xp = %d, want 50", snap.Required)
	}
}

// Invariants that must hold at every instant of any run.
func TestEncounterInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		loc := rapid.SampledFrom([]string{"mansion", "cemetery", "hospital"}).Draw(t, "location")
		hunterID := rapid.SampledFrom([]string{"warrior", "mage", "paladin"}).Draw(t, "hunter")

		enc, el := newTestEncounter(seed)
		l := testLoadout(t, hunterID, loc)
		enc.Start(l)
		d := l.Location.Difficulty

		for i := 0; i < 2400; i++ {
			enc.sched.Advance(step)

			if len(enc.ghosts) > rules.MaxActiveGhosts {
				t.Fatalf("t=%v: %d ghosts", enc.sched.Now().Sub(epoch), len(enc.ghosts))
			}
			inCombat := 0
			for _, g := range enc.ghosts {
				if g.MaxHealth != rules.GhostMaxHealth(d) || g.Damage != rules.GhostDamage(d) {
					t.Fatalf("ghost %d stats %d/%d at difficulty %d", g.ID, g.MaxHealth, g.Damage, d)
				}
				if g.Position.X < arena.Min || g.Position.X > arena.Max || g.Position.Y < arena.Min || g.Position.Y > arena.Max {
					t.Fatalf("ghost %d out of arena at %+v", g.ID, g.Position)
				}
				if g.State == ghost.StateInCombat {
					inCombat++
					if enc.hunter.InRecovery {
						t.Fatalf("ghost %d in combat during recovery", g.ID)
					}
				}
				if g.State == ghost.StateTargeting && enc.hunter.InRecovery {
					t.Fatalf("ghost %d targeting during recovery", g.ID)
				}
			}
			if inCombat > 1 {
				t.Fatalf("%d ghosts in combat", inCombat)
			}
			h := enc.hunter
			if h.InRecovery && (h.RecoveryRemaining < 0 || h.RecoveryRemaining > rules.RecoverySeconds) {
				t.Fatalf("recovery remaining %d", h.RecoveryRemaining)
			}
			if h.Health < 0 || h.Health > h.MaxHealth || h.Energy < 0 || h.Energy > hunter.MaxEnergy {
				t.Fatalf("vitals out of range: %+v", h)
			}
		}

		// Every confrontation outcome is accounted for.
		resolved := countType(el, events.EventTypeCombatResolved)
		if resolved != enc.hunter.KillCount+countType(el, events.EventTypeRecoveryStart) {
			t.Fatalf("resolved %d, kills %d, defeats %d", resolved, enc.hunter.KillCount, countType(el, events.EventTypeRecoveryStart))
		}
	})
}
