package placelist

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	lists map[string]*Placelist
}

// NewInMemoryRepository creates a new in-memory placelist repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		lists: make(map[string]*Placelist),
	}
}

// Get retrieves a placelist by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Placelist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pl, ok := r.lists[id]
	if !ok {
		return nil, ErrPlacelistNotFound
	}
	return copyPlacelist(pl), nil
}

// GetByOwnerAndID retrieves a placelist by owner ID and placelist ID.
func (r *InMemoryRepository) GetByOwnerAndID(_ context.Context, ownerID, placelistID string) (*Placelist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pl, ok := r.lists[placelistID]
	if !ok || pl.OwnerID != ownerID {
		return nil, ErrPlacelistNotFound
	}
	return copyPlacelist(pl), nil
}

// List retrieves all placelists for an owner with pagination.
func (r *InMemoryRepository) List(_ context.Context, ownerID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Placelist
	for _, pl := range r.lists {
		if pl.OwnerID == ownerID {
			items = append(items, copyPlacelist(pl))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// ListAll retrieves every placelist.
func (r *InMemoryRepository) ListAll(_ context.Context) ([]*Placelist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Placelist, 0, len(r.lists))
	for _, pl := range r.lists {
		items = append(items, copyPlacelist(pl))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// Create creates a new placelist.
func (r *InMemoryRepository) Create(_ context.Context, pl *Placelist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lists[pl.ID] = copyPlacelist(pl)
	return nil
}

// Update updates an existing placelist.
func (r *InMemoryRepository) Update(_ context.Context, pl *Placelist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lists[pl.ID]; !ok {
		return ErrPlacelistNotFound
	}
	r.lists[pl.ID] = copyPlacelist(pl)
	return nil
}

// Delete deletes a placelist by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lists, id)
	return nil
}

// copyPlacelist deep-copies a placelist so callers cannot alias stored state.
func copyPlacelist(pl *Placelist) *Placelist {
	cpy := *pl
	cpy.Waypoints = append([]Waypoint(nil), pl.Waypoints...)
	if pl.Description != nil {
		desc := *pl.Description
		cpy.Description = &desc
	}
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
