package store

import (
	"context"
	"fmt"
	"time"
)

// googleAccountRepo implements GoogleAccountRepository.
type googleAccountRepo struct {
	pool querier
}

const googleAccountColumns = `id, user_id, google_account_id, email,
	access_token, refresh_token, token_expires_at, created_at, updated_at`

func (r *googleAccountRepo) Upsert(ctx context.Context, acct GoogleAccount) (*GoogleAccount, error) {
	defer observeDB(ctx, "db.google_accounts.upsert")()

	// Re-linking the same account refreshes credentials in place. Google
	// omits the refresh token on repeat consent, so an empty incoming value
	// must not wipe the stored one.
	const q = `
		INSERT INTO google_accounts
			(user_id, google_account_id, email, access_token, refresh_token, token_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, google_account_id) DO UPDATE SET
			email            = EXCLUDED.email,
			access_token     = EXCLUDED.access_token,
			refresh_token    = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), google_accounts.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at       = NOW()
		RETURNING ` + googleAccountColumns

	out := &GoogleAccount{}
	err := r.pool.QueryRow(ctx, q,
		acct.UserID, acct.GoogleAccountID, acct.Email,
		acct.AccessToken, acct.RefreshToken, acct.TokenExpiresAt,
	).Scan(
		&out.ID, &out.UserID, &out.GoogleAccountID, &out.Email,
		&out.AccessToken, &out.RefreshToken, &out.TokenExpiresAt,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert google account: %w", err)
	}
	return out, nil
}

func (r *googleAccountRepo) ListByUser(ctx context.Context, userID int64) ([]GoogleAccount, error) {
	defer observeDB(ctx, "db.google_accounts.list")()

	const q = `
		SELECT ` + googleAccountColumns + `
		FROM google_accounts WHERE user_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list google accounts: %w", err)
	}
	defer rows.Close()

	var accounts []GoogleAccount
	for rows.Next() {
		var a GoogleAccount
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.GoogleAccountID, &a.Email,
			&a.AccessToken, &a.RefreshToken, &a.TokenExpiresAt,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan google account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *googleAccountRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	defer observeDB(ctx, "db.google_accounts.update_tokens")()

	const q = `
		UPDATE google_accounts SET
			access_token     = $2,
			refresh_token    = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			updated_at       = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("update google account tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *googleAccountRepo) Delete(ctx context.Context, userID, id int64) error {
	defer observeDB(ctx, "db.google_accounts.delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM google_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete google account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *googleAccountRepo) ListUserIDsWithAccounts(ctx context.Context) ([]int64, error) {
	defer observeDB(ctx, "db.google_accounts.list_users")()

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM google_accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users with accounts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
