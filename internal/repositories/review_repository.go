package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"trusthaven/internal/models"
)

type ReviewRepository struct {
	DB *sql.DB
}

const reviewSelect = `
        SELECT r.id, r.listing_id, r.user_id, COALESCE(NULLIF(u.username, ''), u.name), u.avatar, r.rating, r.comment, r.created_at, r.updated_at
        FROM reviews r
        JOIN users u ON r.user_id = u.id`

func scanReview(row rowScanner) (models.Review, error) {
	var rev models.Review
	var avatar sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&rev.ID, &rev.ListingID, &rev.UserID, &rev.UserName, &avatar,
		&rev.Rating, &rev.Comment, &rev.CreatedAt, &updatedAt)
	if err != nil {
		return models.Review{}, err
	}
	if avatar.Valid && avatar.String != "" {
		rev.UserAvatar = &avatar.String
	}
	if updatedAt.Valid {
		rev.UpdatedAt = &updatedAt.Time
	}
	return rev, nil
}

func (r *ReviewRepository) CreateReview(ctx context.Context, rev models.Review) (models.Review, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = ? AND listing_id = ?`, rev.UserID, rev.ListingID).Scan(&count); err != nil {
		return models.Review{}, err
	}
	if count > 0 {
		return models.Review{}, models.ErrAlreadyReviewed
	}

	rev.CreatedAt = time.Now().UTC()
	query := `
INSERT INTO reviews (id, listing_id, user_id, rating, comment, created_at)
VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.DB.ExecContext(ctx, query, rev.ID, rev.ListingID, rev.UserID, rev.Rating, rev.Comment, rev.CreatedAt)
	if err != nil {
		// the unique (listing_id, user_id) key catches a concurrent duplicate
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return models.Review{}, models.ErrAlreadyReviewed
		}
		return models.Review{}, err
	}
	return rev, nil
}

func (r *ReviewRepository) GetReview(ctx context.Context, id string) (models.Review, error) {
	rev, err := scanReview(r.DB.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, models.ErrReviewNotFound
	}
	if err != nil {
		return models.Review{}, err
	}
	return rev, nil
}

func (r *ReviewRepository) GetReviewsByListingID(ctx context.Context, listingID string) ([]models.Review, error) {
	rows, err := r.DB.QueryContext(ctx, reviewSelect+` WHERE r.listing_id = ? ORDER BY r.created_at DESC`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) UpdateReview(ctx context.Context, rev models.Review) error {
	query := `
		UPDATE reviews
		SET rating = ?, comment = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.DB.ExecContext(ctx, query, rev.Rating, rev.Comment, time.Now().UTC(), rev.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteReview(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) Summary(ctx context.Context, listingID string) (models.RatingSummary, error) {
	return getRatingSummary(ctx, r.DB, listingID)
}

// CountReceived counts reviews left on listings owned by ownerID.
func (r *ReviewRepository) CountReceived(ctx context.Context, ownerID string) (int, error) {
	query := `SELECT COUNT(*) FROM reviews r JOIN listings l ON r.listing_id = l.id WHERE l.user_id = ?`
	var n int
	err := r.DB.QueryRowContext(ctx, query, ownerID).Scan(&n)
	return n, err
}
