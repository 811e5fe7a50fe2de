package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// locationRepo implements LocationRepository.
type locationRepo struct {
	pool querier
}

const locationColumns = `id, google_account_id, location_id, name,
	address, city, department, phone, website, created_at, updated_at`

func (r *locationRepo) Upsert(ctx context.Context, loc Location) (*Location, error) {
	defer observeDB(ctx, "db.locations.upsert")()

	const q = `
		INSERT INTO business_locations
			(google_account_id, location_id, name, address, city, department, phone, website, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (google_account_id, location_id) DO UPDATE SET
			name       = EXCLUDED.name,
			address    = COALESCE(EXCLUDED.address, business_locations.address),
			city       = COALESCE(EXCLUDED.city, business_locations.city),
			department = COALESCE(EXCLUDED.department, business_locations.department),
			phone      = COALESCE(EXCLUDED.phone, business_locations.phone),
			website    = COALESCE(EXCLUDED.website, business_locations.website),
			updated_at = NOW()
		RETURNING ` + locationColumns

	out := &Location{}
	err := r.pool.QueryRow(ctx, q,
		loc.GoogleAccountID, loc.LocationID, loc.Name,
		loc.Address, loc.City, loc.Department, loc.Phone, loc.Website,
	).Scan(
		&out.ID, &out.GoogleAccountID, &out.LocationID, &out.Name,
		&out.Address, &out.City, &out.Department, &out.Phone, &out.Website,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert location: %w", err)
	}
	return out, nil
}

func (r *locationRepo) ListByUser(ctx context.Context, userID int64) ([]Location, error) {
	defer observeDB(ctx, "db.locations.list")()

	const q = `
		SELECT l.id, l.google_account_id, l.location_id, l.name,
			l.address, l.city, l.department, l.phone, l.website, l.created_at, l.updated_at
		FROM business_locations l
		JOIN google_accounts a ON a.id = l.google_account_id
		WHERE a.user_id = $1
		ORDER BY l.name, l.id`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(
			&l.ID, &l.GoogleAccountID, &l.LocationID, &l.Name,
			&l.Address, &l.City, &l.Department, &l.Phone, &l.Website,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *locationRepo) GetForUser(ctx context.Context, userID, id int64) (*Location, error) {
	defer observeDB(ctx, "db.locations.get")()

	const q = `
		SELECT l.id, l.google_account_id, l.location_id, l.name,
			l.address, l.city, l.department, l.phone, l.website, l.created_at, l.updated_at
		FROM business_locations l
		JOIN google_accounts a ON a.id = l.google_account_id
		WHERE l.id = $1 AND a.user_id = $2`

	l := &Location{}
	err := r.pool.QueryRow(ctx, q, id, userID).Scan(
		&l.ID, &l.GoogleAccountID, &l.LocationID, &l.Name,
		&l.Address, &l.City, &l.Department, &l.Phone, &l.Website,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}
