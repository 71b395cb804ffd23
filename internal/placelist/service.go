package placelist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundtrail/soundtrail/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 500
	MaxWaypoints         = 200
)

// Service provides placelist operations.
type Service struct {
	repo Repository
}

// NewService creates a new placelist service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all placelists for an owner.
func (s *Service) List(ctx context.Context, ownerID string, limit int) (*models.PagedPlacelists, error) {
	result, err := s.repo.List(ctx, ownerID, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	items := make([]models.Placelist, 0, len(result.Items))
	for _, pl := range result.Items {
		items = append(items, s.toAPIPlacelist(pl))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedPlacelists{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a placelist by ID for an owner.
func (s *Service) Get(ctx context.Context, ownerID, placelistID string) (*models.Placelist, error) {
	pl, err := s.repo.GetByOwnerAndID(ctx, ownerID, placelistID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIPlacelist(pl)
	return &result, nil
}

// Create creates a new placelist for an owner.
func (s *Service) Create(ctx context.Context, ownerID string, input *models.PlacelistCreateRequest) (*models.Placelist, error) {
	var errs []models.FieldError
	errs = append(errs, validateName(input.Name, true)...)
	errs = append(errs, validateDescription(input.Description)...)

	waypoints, wpErrs := s.resolveWaypoints(input.Waypoints, input.Text)
	errs = append(errs, wpErrs...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := time.Now()
	pl := &Placelist{
		ID:          "pl_" + uuid.New().String()[:22],
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Waypoints:   waypoints,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, pl); err != nil {
		return nil, err
	}

	result := s.toAPIPlacelist(pl)
	return &result, nil
}

// Update updates an existing placelist for an owner.
func (s *Service) Update(ctx context.Context, ownerID, placelistID string, input *models.PlacelistUpdateRequest) (*models.Placelist, error) {
	pl, err := s.repo.GetByOwnerAndID(ctx, ownerID, placelistID)
	if err != nil {
		return nil, err
	}

	var errs []models.FieldError
	if input.Name != nil {
		errs = append(errs, validateName(*input.Name, false)...)
	}
	errs = append(errs, validateDescription(input.Description)...)

	if input.Waypoints != nil || input.Text != nil {
		var structural []models.Waypoint
		if input.Waypoints != nil {
			structural = *input.Waypoints
		}
		waypoints, wpErrs := s.resolveWaypoints(structural, input.Text)
		if len(wpErrs) > 0 {
			errs = append(errs, wpErrs...)
		} else {
			pl.Waypoints = waypoints
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if input.Name != nil {
		pl.Name = *input.Name
	}
	if input.Description != nil {
		pl.Description = input.Description
	}
	pl.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, pl); err != nil {
		return nil, err
	}

	result := s.toAPIPlacelist(pl)
	return &result, nil
}

// Delete deletes a placelist for an owner.
func (s *Service) Delete(ctx context.Context, ownerID, placelistID string) error {
	if _, err := s.repo.GetByOwnerAndID(ctx, ownerID, placelistID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, placelistID)
}

// Reorder permutes a placelist's waypoints. order lists the current zero-based
// positions in their new sequence and must be a permutation of 0..n-1;
// reordering is a pure list operation, waypoints have no identity of their own.
func (s *Service) Reorder(ctx context.Context, ownerID, placelistID string, order []int) (*models.Placelist, error) {
	pl, err := s.repo.GetByOwnerAndID(ctx, ownerID, placelistID)
	if err != nil {
		return nil, err
	}

	if len(order) != len(pl.Waypoints) {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "order", Message: "must list every waypoint position exactly once"},
		}}
	}
	seen := make([]bool, len(order))
	for _, pos := range order {
		if pos < 0 || pos >= len(order) || seen[pos] {
			return nil, &ValidationError{Errors: []models.FieldError{
				{Field: "order", Message: "must be a permutation of the current positions"},
			}}
		}
		seen[pos] = true
	}

	reordered := make([]Waypoint, len(order))
	for i, pos := range order {
		reordered[i] = pl.Waypoints[pos]
	}
	pl.Waypoints = reordered
	pl.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, pl); err != nil {
		return nil, err
	}

	result := s.toAPIPlacelist(pl)
	return &result, nil
}

// Text returns the placelist rendered in the structured dialect.
func (s *Service) Text(ctx context.Context, ownerID, placelistID string) (string, error) {
	pl, err := s.repo.GetByOwnerAndID(ctx, ownerID, placelistID)
	if err != nil {
		return "", err
	}
	return Serialize(pl.Waypoints), nil
}

// SetText replaces a placelist's waypoints from raw text in either dialect.
func (s *Service) SetText(ctx context.Context, ownerID, placelistID, text string) (*models.Placelist, error) {
	return s.Update(ctx, ownerID, placelistID, &models.PlacelistUpdateRequest{Text: &text})
}

// resolveWaypoints picks the waypoint source: structural input when present,
// otherwise raw text through the two-dialect combinator.
func (s *Service) resolveWaypoints(structural []models.Waypoint, text *string) ([]Waypoint, []models.FieldError) {
	if len(structural) > 0 {
		return fromAPIWaypoints(structural)
	}

	if text == nil || strings.TrimSpace(*text) == "" {
		return nil, nil
	}

	waypoints := ParseText(*text)
	if len(waypoints) == 0 {
		// Structured parsing failed and the legacy scavenger found nothing
		// either; this is the one case the editor surfaces to the user.
		return nil, []models.FieldError{
			{Field: "text", Message: "could not parse placelist text; check the format"},
		}
	}
	return waypoints, nil
}

func fromAPIWaypoints(input []models.Waypoint) ([]Waypoint, []models.FieldError) {
	if len(input) > MaxWaypoints {
		return nil, []models.FieldError{
			{Field: "waypoints", Message: "too many waypoints"},
		}
	}

	var errs []models.FieldError
	waypoints := make([]Waypoint, 0, len(input))
	for i, wp := range input {
		// Coordinates pass through unclamped; only non-finite values are
		// rejected, matching the syntactic-not-semantic validation of the
		// text dialects.
		if !isFinite(wp.Location.Lat) || !isFinite(wp.Location.Lng) {
			errs = append(errs, models.FieldError{
				Field:   fieldAt("waypoints", i, "location"),
				Message: "lat and lng must be finite numbers",
			})
		}
		if wp.TrackReference == "" {
			errs = append(errs, models.FieldError{
				Field:   fieldAt("waypoints", i, "trackReference"),
				Message: "is required",
			})
		}

		only := ""
		if wp.OnlyDuring != nil {
			only = *wp.OnlyDuring
		}
		waypoints = append(waypoints, Waypoint{
			Location:       LatLng{Lat: wp.Location.Lat, Lng: wp.Location.Lng},
			TrackReference: wp.TrackReference,
			OnlyDuring:     only,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return waypoints, nil
}

func validateName(name string, required bool) []models.FieldError {
	if name == "" {
		if required {
			return []models.FieldError{{Field: "name", Message: "is required"}}
		}
		return []models.FieldError{{Field: "name", Message: "cannot be empty"}}
	}
	if len(name) > MaxNameLength {
		return []models.FieldError{{Field: "name", Message: "must be at most 120 characters"}}
	}
	return nil
}

func validateDescription(desc *string) []models.FieldError {
	if desc != nil && len(*desc) > MaxDescriptionLength {
		return []models.FieldError{{Field: "description", Message: "must be at most 500 characters"}}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func fieldAt(prefix string, index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", prefix, index, field)
}

// toAPIPlacelist converts a domain Placelist to an API Placelist.
func (s *Service) toAPIPlacelist(pl *Placelist) models.Placelist {
	waypoints := make([]models.Waypoint, 0, len(pl.Waypoints))
	for _, wp := range pl.Waypoints {
		api := models.Waypoint{
			Location:       models.LatLng{Lat: wp.Location.Lat, Lng: wp.Location.Lng},
			TrackReference: wp.TrackReference,
		}
		if wp.OnlyDuring != "" {
			only := wp.OnlyDuring
			api.OnlyDuring = &only
		}
		waypoints = append(waypoints, api)
	}

	return models.Placelist{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Waypoints:   waypoints,
		CreatedAt:   models.Timestamp(pl.CreatedAt),
		UpdatedAt:   models.Timestamp(pl.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IsNotFound reports whether err is the repository's not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlacelistNotFound)
}
