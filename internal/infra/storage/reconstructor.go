// Package storage - reconstructor.go
// Career recap: rebuilds a hunter's record from the combat history.
// state = f(events).
package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// Reconstructor rebuilds career statistics from the event ledger.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new career reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// LocationRecord is the win/loss tally at one haunted site.
type LocationRecord struct {
	LocationID string `json:"location_id"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// Career is the reconstructed lifetime record of a user.
type Career struct {
	UserID       string           `json:"user_id"`
	Sessions     int              `json:"sessions"`
	Wins         int              `json:"wins"`
	Losses       int              `json:"losses"`
	XPGained     int              `json:"xp_gained"`
	LevelsGained int              `json:"levels_gained"`
	HighestLevel int              `json:"highest_level"`
	EctosEarned  int              `json:"ectos_earned"`
	Recoveries   int              `json:"recoveries"`
	Locations    []LocationRecord `json:"locations"`
	Recent       []RecapEvent     `json:"recent"`
}

// RecapEvent is a simplified event for the career screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// BuildCareer folds the user's history into a Career. recent caps the
// number of recap lines, newest first.
func (r *Reconstructor) BuildCareer(ctx context.Context, userID string, recent int) (*Career, error) {
	events, err := r.eventRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for user: %w", err)
	}

	c := &Career{UserID: userID, HighestLevel: 1}
	sessions := make(map[string]bool)
	byLocation := make(map[string]*LocationRecord)

	for _, e := range events {
		sessions[e.SessionID] = true
		r.applyEvent(c, byLocation, e)
	}
	c.Sessions = len(sessions)

	for _, rec := range byLocation {
		c.Locations = append(c.Locations, *rec)
	}
	sort.Slice(c.Locations, func(i, j int) bool {
		return c.Locations[i].LocationID < c.Locations[j].LocationID
	})

	for i := len(events) - 1; i >= 0 && len(c.Recent) < recent; i-- {
		e := events[i]
		c.Recent = append(c.Recent, RecapEvent{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04:05"),
			EventType: e.EventType,
			Summary:   r.summarizeEvent(e),
			Impact:    r.determineImpact(e),
		})
	}
	return c, nil
}

// applyEvent folds one event into the career.
func (r *Reconstructor) applyEvent(c *Career, byLocation map[string]*LocationRecord, e GameEvent) {
	switch e.EventType {
	case "COMBAT_RESOLVED":
		loc, _ := e.Payload["location_id"].(string)
		rec, ok := byLocation[loc]
		if !ok {
			rec = &LocationRecord{LocationID: loc}
			byLocation[loc] = rec
		}
		if won, _ := e.Payload["hunter_won"].(bool); won {
			c.Wins++
			rec.Wins++
			c.XPGained += payloadInt(e.Payload, "xp_gained")
			c.EctosEarned += payloadInt(e.Payload, "ectos")
		} else {
			c.Losses++
			rec.Losses++
		}
	case "LEVEL_UP":
		c.LevelsGained++
		if lvl := payloadInt(e.Payload, "level"); lvl > c.HighestLevel {
			c.HighestLevel = lvl
		}
	case "RECOVERY_START":
		c.Recoveries++
	}
}

// summarizeEvent creates a human-readable summary.
func (r *Reconstructor) summarizeEvent(e GameEvent) string {
	switch e.EventType {
	case "COMBAT_RESOLVED":
		name, _ := e.Payload["ghost_name"].(string)
		if won, _ := e.Payload["hunter_won"].(bool); won {
			return "Banished a " + name + "."
		}
		return "Was overwhelmed by a " + name + "."
	case "LEVEL_UP":
		return "Reached level " + strconv.Itoa(payloadInt(e.Payload, "level")) + "."
	case "RECOVERY_START":
		return "Spent " + strconv.Itoa(payloadInt(e.Payload, "seconds")) + " seconds in recovery."
	default:
		return "Something stirred in the dark."
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch e.EventType {
	case "COMBAT_RESOLVED":
		if won, _ := e.Payload["hunter_won"].(bool); won {
			return "POSITIVE"
		}
		return "NEGATIVE"
	case "LEVEL_UP":
		return "POSITIVE"
	case "RECOVERY_START":
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}

func payloadInt(p map[string]interface{}, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
