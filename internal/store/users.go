package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool querier
}

func (r *userRepo) UpsertOAuthUser(ctx context.Context, subject, email string) (*User, error) {
	defer observeDB(ctx, "db.users.upsert")()

	const q = `
		INSERT INTO users (oauth_subject, primary_email, created_at, last_login_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (oauth_subject) DO UPDATE SET
			primary_email = EXCLUDED.primary_email,
			last_login_at = NOW()
		RETURNING id, oauth_subject, primary_email, created_at, last_login_at`

	u := &User{}
	err := r.pool.QueryRow(ctx, q, subject, email).Scan(
		&u.ID, &u.OAuthSubject, &u.PrimaryEmail, &u.CreatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert oauth user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "db.users.get")()

	const q = `
		SELECT id, oauth_subject, primary_email, created_at, last_login_at
		FROM users WHERE id = $1`

	u := &User{}
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.OAuthSubject, &u.PrimaryEmail, &u.CreatedAt, &u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}
