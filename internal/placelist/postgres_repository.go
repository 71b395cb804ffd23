package placelist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. Waypoints
// are stored as the serialized structured dialect, so the same text round-trip
// the editor relies on is also the persistence format.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL placelist repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const placelistColumns = `id, owner_id, name, description, waypoints_text, created_at, updated_at`

// Get retrieves a placelist by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Placelist, error) {
	query := `SELECT ` + placelistColumns + ` FROM placelists WHERE id = $1`
	return r.scanPlacelist(r.pool.QueryRow(ctx, query, id))
}

// GetByOwnerAndID retrieves a placelist by owner ID and placelist ID.
func (r *PostgresRepository) GetByOwnerAndID(ctx context.Context, ownerID, placelistID string) (*Placelist, error) {
	query := `SELECT ` + placelistColumns + ` FROM placelists WHERE id = $1 AND owner_id = $2`
	return r.scanPlacelist(r.pool.QueryRow(ctx, query, placelistID, ownerID))
}

func (r *PostgresRepository) scanPlacelist(row pgx.Row) (*Placelist, error) {
	var pl Placelist
	var text string

	err := row.Scan(
		&pl.ID,
		&pl.OwnerID,
		&pl.Name,
		&pl.Description,
		&text,
		&pl.CreatedAt,
		&pl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlacelistNotFound
		}
		return nil, err
	}

	pl.Waypoints = ParseText(text)
	return &pl, nil
}

// List retrieves all placelists for an owner with pagination.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results.
	fetchLimit := limit + 1

	query := `
		SELECT ` + placelistColumns + `
		FROM placelists
		WHERE owner_id = $1 AND ($2 = '' OR id > $2)
		ORDER BY id
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, ownerID, opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectPlacelists(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// ListAll retrieves every placelist.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Placelist, error) {
	query := `SELECT ` + placelistColumns + ` FROM placelists ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPlacelists(rows)
}

func collectPlacelists(rows pgx.Rows) ([]*Placelist, error) {
	var items []*Placelist
	for rows.Next() {
		var pl Placelist
		var text string
		if err := rows.Scan(
			&pl.ID,
			&pl.OwnerID,
			&pl.Name,
			&pl.Description,
			&text,
			&pl.CreatedAt,
			&pl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		pl.Waypoints = ParseText(text)
		items = append(items, &pl)
	}
	return items, rows.Err()
}

// Create creates a new placelist.
func (r *PostgresRepository) Create(ctx context.Context, pl *Placelist) error {
	query := `
		INSERT INTO placelists (id, owner_id, name, description, waypoints_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		pl.ID,
		pl.OwnerID,
		pl.Name,
		pl.Description,
		Serialize(pl.Waypoints),
		pl.CreatedAt,
		pl.UpdatedAt,
	)
	return err
}

// Update updates an existing placelist.
func (r *PostgresRepository) Update(ctx context.Context, pl *Placelist) error {
	query := `
		UPDATE placelists
		SET name = $2, description = $3, waypoints_text = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		pl.ID,
		pl.Name,
		pl.Description,
		Serialize(pl.Waypoints),
		pl.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlacelistNotFound
	}
	return nil
}

// Delete deletes a placelist by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM placelists WHERE id = $1`, id)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
