// Package placelist provides placelist management and the placelist text
// dialects.
package placelist

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrPlacelistNotFound = errors.New("placelist not found")
)

// LatLng is a coordinate pair in degrees. Values are carried through as
// written; only finiteness is enforced, not geographic range.
type LatLng struct {
	Lat float64
	Lng float64
}

// Waypoint is one stop in a placelist: a location, the track it unlocks, and
// an optional availability rule. OnlyDuring is raw rule text carried verbatim;
// the player interprets it at play time, this package never does.
type Waypoint struct {
	Location       LatLng
	TrackReference string
	OnlyDuring     string
}

// Placelist is an ordered sequence of waypoints. Order is the travel and
// unlock order; a waypoint has no identity beyond its position.
type Placelist struct {
	ID          string
	OwnerID     string
	Name        string
	Description *string
	Waypoints   []Waypoint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
