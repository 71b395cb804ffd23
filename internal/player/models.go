package player

import (
	"errors"
	"time"
)

// Session tracks a single walk through a placelist. Sessions live in memory
// only; a restart loses in-flight walks and the client simply starts over.
type Session struct {
	ID          string
	PlacelistID string
	OwnerID     string
	Current     int
	Unlocked    []string
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the walk has unlocked every waypoint.
func (s *Session) Completed(waypointCount int) bool {
	return s.Current >= waypointCount
}

var ErrSessionNotFound = errors.New("session not found")
