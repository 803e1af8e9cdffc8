package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSnapshotCounts(t *testing.T) {
	c := New()
	c.RecordTick(2 * time.Millisecond)
	c.RecordTick(4 * time.Millisecond)
	c.RecordEventWrite(time.Millisecond, errors.New("disk full"))
	c.RecordPersistError()
	c.RecordSpawn()
	c.RecordOutcome(true)
	c.RecordOutcome(false)
	c.RecordAbandoned()

	snap := c.Snapshot()

	tick := snap["tick"].(map[string]interface{})
	if tick["count"].(int64) != 2 {
		t.Errorf("tick count = %v, want 2", tick["count"])
	}
	if tick["max_latency_ms"].(float64) != 4 {
		t.Errorf("max latency = %v, want 4", tick["max_latency_ms"])
	}

	ev := snap["events"].(map[string]interface{})
	if ev["errors"].(int64) != 2 {
		t.Errorf("event errors = %v, want 2", ev["errors"])
	}

	enc := snap["encounter"].(map[string]interface{})
	if enc["victories"].(int64) != 1 || enc["defeats"].(int64) != 1 || enc["abandoned"].(int64) != 1 {
		t.Errorf("encounter counters = %v", enc)
	}
}

func TestPrometheusHandler(t *testing.T) {
	c := New()
	c.RecordOutcome(true)

	rec := httptest.NewRecorder()
	c.PrometheusHandler()(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `ghg_confrontations_total{outcome="victory"} 1`) {
		t.Errorf("victory counter missing from:\n%s", body)
	}
}
