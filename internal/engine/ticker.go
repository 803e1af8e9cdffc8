package engine

import "time"

// TickRate defines how often the engine advances the encounter clock (in real time).
const TickRate = 100 * time.Millisecond

// Ticker is the wall-clock heartbeat of the engine. Each beat reports how
// much real time has passed so the virtual clock can follow it.
// It does NOT know about ghosts or hunters - only time progression.
type Ticker struct {
	rate   time.Duration
	ticker *time.Ticker
	last   time.Time
}

// NewTicker starts a heartbeat at rate. Non-positive rates use TickRate.
func NewTicker(rate time.Duration) *Ticker {
	if rate <= 0 {
		rate = TickRate
	}
	return &Ticker{
		rate:   rate,
		ticker: time.NewTicker(rate),
		last:   time.Now(),
	}
}

// C delivers the beats.
func (t *Ticker) C() <-chan time.Time {
	return t.ticker.C
}

// Elapsed returns the real time since the previous beat and records now.
func (t *Ticker) Elapsed(now time.Time) time.Duration {
	d := now.Sub(t.last)
	t.last = now
	if d < 0 {
		return 0
	}
	return d
}

// Rate returns the configured beat interval.
func (t *Ticker) Rate() time.Duration {
	return t.rate
}

// Stop halts the heartbeat.
func (t *Ticker) Stop() {
	t.ticker.Stop()
}
