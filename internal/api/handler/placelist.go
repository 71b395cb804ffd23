package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soundtrail/soundtrail/internal/api/models"
	"github.com/soundtrail/soundtrail/internal/api/response"
	"github.com/soundtrail/soundtrail/internal/placelist"
)

// maxTextBody caps the raw text accepted by the text endpoint.
const maxTextBody = 1 << 20

// PlacelistHandler handles placelist endpoints.
type PlacelistHandler struct {
	service *placelist.Service
}

func NewPlacelistHandler(service *placelist.Service) *PlacelistHandler {
	return &PlacelistHandler{service: service}
}

// List handles GET /v1/me/placelists.
func (h *PlacelistHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	result, err := h.service.List(r.Context(), GetUserID(r.Context()), limit)
	if err != nil {
		response.InternalError(w, r, "could not list placelists")
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// Create handles POST /v1/me/placelists.
func (h *PlacelistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.PlacelistCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.service.Create(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/me/placelists/%s", created.ID)
	response.Created(w, r, location, created)
}

// Get handles GET /v1/me/placelists/{placelistId}.
func (h *PlacelistHandler) Get(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	result, err := h.service.Get(r.Context(), GetUserID(r.Context()), placelistID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// Update handles PUT /v1/me/placelists/{placelistId}.
func (h *PlacelistHandler) Update(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	var input models.PlacelistUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), GetUserID(r.Context()), placelistID, &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

// Delete handles DELETE /v1/me/placelists/{placelistId}.
func (h *PlacelistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	if err := h.service.Delete(r.Context(), GetUserID(r.Context()), placelistID); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// Reorder handles POST /v1/me/placelists/{placelistId}/reorder.
func (h *PlacelistHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	var input models.PlacelistReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	reordered, err := h.service.Reorder(r.Context(), GetUserID(r.Context()), placelistID, input.Order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, reordered)
}

// Text handles GET /v1/me/placelists/{placelistId}/text - the placelist
// serialized in the structured dialect.
func (h *PlacelistHandler) Text(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	text, err := h.service.Text(r.Context(), GetUserID(r.Context()), placelistID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Text(w, r, http.StatusOK, text)
}

// SetText handles PUT /v1/me/placelists/{placelistId}/text - replace the
// waypoints from raw text in either dialect.
func (h *PlacelistHandler) SetText(w http.ResponseWriter, r *http.Request) {
	placelistID := chi.URLParam(r, "placelistId")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTextBody))
	if err != nil {
		response.BadRequest(w, r, "could not read request body", nil)
		return
	}

	updated, err := h.service.SetText(r.Context(), GetUserID(r.Context()), placelistID, string(body))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *PlacelistHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *placelist.ValidationError
	switch {
	case errors.As(err, &valErr):
		response.BadRequest(w, r, "validation failed", valErr.Errors)
	case placelist.IsNotFound(err):
		response.NotFound(w, r, "placelist not found")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
