package store

import (
	"context"
	"fmt"
)

// reviewRepo implements ReviewRepository.
type reviewRepo struct {
	pool querier
}

const reviewColumns = `id, location_id, google_review_id, author_name, rating,
	comment, review_date, response_text, response_date, created_at, updated_at`

func (r *reviewRepo) Upsert(ctx context.Context, review Review) (*Review, error) {
	defer observeDB(ctx, "db.reviews.upsert")()

	// Optional fields merge with COALESCE: a payload that omits a field
	// (for example the owner response on an older review) must not erase
	// what an earlier sync captured.
	const q = `
		INSERT INTO reviews
			(location_id, google_review_id, author_name, rating, comment,
			 review_date, response_text, response_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (location_id, google_review_id) DO UPDATE SET
			author_name   = COALESCE(EXCLUDED.author_name, reviews.author_name),
			rating        = EXCLUDED.rating,
			comment       = COALESCE(EXCLUDED.comment, reviews.comment),
			review_date   = COALESCE(EXCLUDED.review_date, reviews.review_date),
			response_text = COALESCE(EXCLUDED.response_text, reviews.response_text),
			response_date = COALESCE(EXCLUDED.response_date, reviews.response_date),
			updated_at    = NOW()
		RETURNING ` + reviewColumns

	out := &Review{}
	err := r.pool.QueryRow(ctx, q,
		review.LocationID, review.GoogleReviewID, review.AuthorName, review.Rating,
		review.Comment, review.ReviewDate, review.ResponseText, review.ResponseDate,
	).Scan(
		&out.ID, &out.LocationID, &out.GoogleReviewID, &out.AuthorName, &out.Rating,
		&out.Comment, &out.ReviewDate, &out.ResponseText, &out.ResponseDate,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}
	return out, nil
}

func (r *reviewRepo) ListForLocation(ctx context.Context, locationID int64, limit int) ([]Review, error) {
	defer observeDB(ctx, "db.reviews.list")()

	const q = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE location_id = $1
		ORDER BY review_date DESC NULLS LAST, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, q, locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(
			&rev.ID, &rev.LocationID, &rev.GoogleReviewID, &rev.AuthorName, &rev.Rating,
			&rev.Comment, &rev.ReviewDate, &rev.ResponseText, &rev.ResponseDate,
			&rev.CreatedAt, &rev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}
