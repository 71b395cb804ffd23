package placelist

import "context"

// ListOptions contains options for listing placelists.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing placelists.
type ListResult struct {
	Items      []*Placelist
	NextCursor string
}

// Repository defines the interface for placelist persistence.
type Repository interface {
	// Get retrieves a placelist by ID.
	Get(ctx context.Context, id string) (*Placelist, error)

	// GetByOwnerAndID retrieves a placelist by owner ID and placelist ID.
	// Returns ErrPlacelistNotFound if it doesn't exist or belongs to someone else.
	GetByOwnerAndID(ctx context.Context, ownerID, placelistID string) (*Placelist, error)

	// List retrieves all placelists for an owner with pagination.
	List(ctx context.Context, ownerID string, opts ListOptions) (*ListResult, error)

	// ListAll retrieves every placelist. Used by background jobs.
	ListAll(ctx context.Context) ([]*Placelist, error)

	// Create creates a new placelist.
	Create(ctx context.Context, pl *Placelist) error

	// Update updates an existing placelist.
	Update(ctx context.Context, pl *Placelist) error

	// Delete deletes a placelist by ID.
	Delete(ctx context.Context, id string) error
}
