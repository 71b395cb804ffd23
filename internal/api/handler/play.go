package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soundtrail/soundtrail/internal/api/models"
	"github.com/soundtrail/soundtrail/internal/api/response"
	"github.com/soundtrail/soundtrail/internal/player"
)

// PlayHandler handles play session endpoints.
type PlayHandler struct {
	service *player.Service
}

func NewPlayHandler(service *player.Service) *PlayHandler {
	return &PlayHandler{service: service}
}

// Start handles POST /v1/play - start a session over a placelist.
func (h *PlayHandler) Start(w http.ResponseWriter, r *http.Request) {
	var input models.PlayStartRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.PlacelistID == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "placelistId", Message: "placelistId is required"},
		})
		return
	}

	session, err := h.service.Start(r.Context(), GetUserID(r.Context()), input.PlacelistID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/play/%s", session.ID)
	response.Created(w, r, location, toAPISession(session, false))
}

// Get handles GET /v1/play/{sessionId}.
func (h *PlayHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	session, waypointCount, err := h.service.Get(r.Context(), GetUserID(r.Context()), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toAPISession(session, session.Completed(waypointCount)))
}

// Position handles POST /v1/play/{sessionId}/position - report the
// traveler's location and learn whether the current track unlocked.
func (h *PlayHandler) Position(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var input models.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "lat", Message: "coordinates out of range"},
		})
		return
	}

	progress, err := h.service.Position(r.Context(), GetUserID(r.Context()), sessionID, input.Lat, input.Lng, time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := models.PlayProgress{
		Session:        toAPISession(progress.Session, progress.Completed),
		DistanceMeters: progress.DistanceMeters,
		BearingDegrees: progress.BearingDegrees,
		Schedule: models.ScheduleStatus{
			Open:              progress.Schedule.Open,
			NextOpenInMinutes: progress.Schedule.NextOpenInMinutes,
			TimeZone:          progress.Schedule.TimeZone,
		},
		Unlocked: progress.Unlocked,
	}
	if progress.Unlocked {
		trackID := progress.TrackID
		result.TrackID = &trackID
	}

	response.JSON(w, r, http.StatusOK, result)
}

func (h *PlayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, player.ErrEmptyPlacelist):
		response.BadRequest(w, r, "placelist has no waypoints", nil)
	case player.IsNotFound(err):
		response.NotFound(w, r, "session or placelist not found")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func toAPISession(s *player.Session, completed bool) models.PlaySession {
	unlocked := s.Unlocked
	if unlocked == nil {
		unlocked = []string{}
	}
	return models.PlaySession{
		ID:             s.ID,
		PlacelistID:    s.PlacelistID,
		CurrentIndex:   s.Current,
		UnlockedTracks: unlocked,
		Completed:      completed,
		StartedAt:      models.Timestamp(s.StartedAt),
		UpdatedAt:      models.Timestamp(s.UpdatedAt),
	}
}
