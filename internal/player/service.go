package player

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/schedule"
	"github.com/soundtrail/soundtrail/pkg/geo"
)

// DefaultUnlockRadiusMeters is how close to a waypoint the listener must be
// before its track unlocks.
const DefaultUnlockRadiusMeters = 30.0

var ErrEmptyPlacelist = errors.New("placelist has no waypoints")

// SessionRepository stores play sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

var _ SessionRepository = (*InMemorySessionRepository)(nil)

// PlacelistSource is the slice of the placelist repository the player needs.
type PlacelistSource interface {
	GetByOwnerAndID(ctx context.Context, ownerID, placelistID string) (*placelist.Placelist, error)
}

// Progress is the outcome of a single position report.
type Progress struct {
	Session        *Session
	DistanceMeters float64
	BearingDegrees float64
	Schedule       schedule.Status
	Unlocked       bool
	TrackID        string
	Completed      bool
}

type Service struct {
	sessions     SessionRepository
	placelists   PlacelistSource
	unlockRadius float64
}

func NewService(sessions SessionRepository, placelists PlacelistSource) *Service {
	return &Service{
		sessions:     sessions,
		placelists:   placelists,
		unlockRadius: DefaultUnlockRadiusMeters,
	}
}

// Start begins a walk through the given placelist.
func (s *Service) Start(ctx context.Context, userID, placelistID string) (*Session, error) {
	pl, err := s.placelists.GetByOwnerAndID(ctx, userID, placelistID)
	if err != nil {
		return nil, err
	}
	if len(pl.Waypoints) == 0 {
		return nil, ErrEmptyPlacelist
	}

	now := time.Now().UTC()
	session := &Session{
		ID:          "ps_" + uuid.NewString()[:22],
		PlacelistID: pl.ID,
		OwnerID:     userID,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session as last saved, along with whether it is complete.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (*Session, int, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if session.OwnerID != userID {
		return nil, 0, ErrSessionNotFound
	}
	pl, err := s.placelists.GetByOwnerAndID(ctx, userID, session.PlacelistID)
	if err != nil {
		return nil, 0, err
	}
	return session, len(pl.Waypoints), nil
}

// Position reports the listener's location and advances the session when the
// current waypoint unlocks. A waypoint with a malformed availability rule is
// treated as always open; a stale schedule should never strand a walk.
func (s *Service) Position(ctx context.Context, userID, sessionID string, lat, lng float64, at time.Time) (*Progress, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerID != userID {
		return nil, ErrSessionNotFound
	}

	pl, err := s.placelists.GetByOwnerAndID(ctx, userID, session.PlacelistID)
	if err != nil {
		return nil, err
	}

	if session.Completed(len(pl.Waypoints)) {
		return &Progress{
			Session:   session,
			Schedule:  schedule.AlwaysOpen(),
			Completed: true,
		}, nil
	}

	waypoint := pl.Waypoints[session.Current]
	distance := geo.Distance(lat, lng, waypoint.Location.Lat, waypoint.Location.Lng)
	bearing := geo.Bearing(lat, lng, waypoint.Location.Lat, waypoint.Location.Lng)
	status := waypointStatus(waypoint, at)

	progress := &Progress{
		Session:        session,
		DistanceMeters: distance,
		BearingDegrees: bearing,
		Schedule:       status,
	}

	if status.Open && distance <= s.unlockRadius {
		progress.Unlocked = true
		progress.TrackID = waypoint.TrackReference
		session.Unlocked = append(session.Unlocked, waypoint.TrackReference)
		session.Current++
	}
	progress.Completed = session.Completed(len(pl.Waypoints))

	session.UpdatedAt = at.UTC()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return progress, nil
}

func waypointStatus(w placelist.Waypoint, at time.Time) schedule.Status {
	if w.OnlyDuring == "" {
		return schedule.AlwaysOpen()
	}
	rule, err := schedule.Parse(w.OnlyDuring)
	if err != nil {
		return schedule.AlwaysOpen()
	}
	return schedule.Evaluate(at, rule)
}

// IsNotFound reports whether err indicates a missing session or placelist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || placelist.IsNotFound(err)
}
