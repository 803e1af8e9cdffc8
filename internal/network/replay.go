package network

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
)

// ReplayHandler serves the in-memory event history to late-joining
// clients and to tools that poll instead of holding a websocket.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayResponse is the API response for an event replay.
type ReplayResponse struct {
	Since       int                `json:"since"`
	LastSeq     int                `json:"last_seq"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleEvents returns events after a sequence number.
// GET /api/events?since=N&type=COMBAT_RESOLVED
func (rh *ReplayHandler) HandleEvents(c *gin.Context) {
	since := 0
	if s := c.Query("since"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
			return
		}
		since = n
	}
	eventType := c.Query("type")

	all := rh.eventLog.Since(since)
	out := make([]events.GameEvent, 0, len(all))
	for _, e := range all {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		out = append(out, e)
	}

	c.JSON(http.StatusOK, ReplayResponse{
		Since:       since,
		LastSeq:     rh.eventLog.Len(),
		TotalEvents: len(out),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	})
}

// HandleEventDetail returns one event by id.
// GET /api/events/:id
func (rh *ReplayHandler) HandleEventDetail(c *gin.Context) {
	id := c.Param("id")
	for _, e := range rh.eventLog.Replay() {
		if e.ID == id {
			c.JSON(http.StatusOK, e)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
}

// HandleStats returns per-type counts over the whole log.
// GET /api/stats
func (rh *ReplayHandler) HandleStats(c *gin.Context) {
	all := rh.eventLog.Replay()

	byType := make(map[string]int)
	var wins, losses int
	for _, e := range all {
		byType[string(e.Type)]++
		if p, ok := e.Payload.(events.CombatResolvedPayload); ok {
			if p.HunterWon {
				wins++
			} else {
				losses++
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"by_type":      byType,
		"victories":    wins,
		"defeats":      losses,
	})
}

// RegisterRoutes sets up the replay routes on an /api group.
func (rh *ReplayHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/events", rh.HandleEvents)
	api.GET("/events/:id", rh.HandleEventDetail)
	api.GET("/stats", rh.HandleStats)
}
