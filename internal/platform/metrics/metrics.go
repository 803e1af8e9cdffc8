// Package metrics provides observability for the guild server.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and gameplay metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Encounter metrics
	GhostsSpawned int64
	Victories     int64
	Defeats       int64
	Abandoned     int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New returns an empty collector. Tests use their own instance.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records an engine heartbeat completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	storeMax(&c.EventWriteLatMax, int64(latency))

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordPersistError counts a failed history write-through.
func (c *Collector) RecordPersistError() {
	atomic.AddInt64(&c.EventWriteErrors, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordSpawn counts a hostile entering the arena.
func (c *Collector) RecordSpawn() {
	atomic.AddInt64(&c.GhostsSpawned, 1)
}

// RecordOutcome counts a resolved confrontation.
func (c *Collector) RecordOutcome(hunterWon bool) {
	if hunterWon {
		atomic.AddInt64(&c.Victories, 1)
	} else {
		atomic.AddInt64(&c.Defeats, 1)
	}
}

// RecordAbandoned counts a confrontation dropped without resolution.
func (c *Collector) RecordAbandoned() {
	atomic.AddInt64(&c.Abandoned, 1)
}

// storeMax raises *dst to v when v is larger.
func storeMax(dst *int64, v int64) {
	for {
		cur := atomic.LoadInt64(dst)
		if v <= cur || atomic.CompareAndSwapInt64(dst, cur, v) {
			return
		}
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"encounter": map[string]interface{}{
			"ghosts_spawned": atomic.LoadInt64(&c.GhostsSpawned),
			"victories":      atomic.LoadInt64(&c.Victories),
			"defeats":        atomic.LoadInt64(&c.Defeats),
			"abandoned":      atomic.LoadInt64(&c.Abandoned),
		},
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter(w, "ghg_tick_count", "Total engine heartbeats", atomic.LoadInt64(&c.TickCount))
		fmt.Fprintf(w, "# HELP ghg_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE ghg_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "ghg_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter(w, "ghg_events_written", "Total events persisted", atomic.LoadInt64(&c.EventsWritten))
		counter(w, "ghg_event_write_errors", "Total event write errors", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP ghg_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE ghg_ws_connections gauge\n")
		fmt.Fprintf(w, "ghg_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP ghg_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE ghg_ws_messages_total counter\n")
		fmt.Fprintf(w, "ghg_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "ghg_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		counter(w, "ghg_ghosts_spawned", "Hostiles spawned", atomic.LoadInt64(&c.GhostsSpawned))
		fmt.Fprintf(w, "# HELP ghg_confrontations_total Resolved confrontations\n")
		fmt.Fprintf(w, "# TYPE ghg_confrontations_total counter\n")
		fmt.Fprintf(w, "ghg_confrontations_total{outcome=\"victory\"} %d\n", atomic.LoadInt64(&c.Victories))
		fmt.Fprintf(w, "ghg_confrontations_total{outcome=\"defeat\"} %d\n", atomic.LoadInt64(&c.Defeats))
		fmt.Fprintf(w, "ghg_confrontations_total{outcome=\"abandoned\"} %d\n", atomic.LoadInt64(&c.Abandoned))
	}
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n\n", name, v)
}
