package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trusthaven/internal/models"
)

type ListingRepository struct {
	DB *sql.DB
}

const listingColumns = `id, user_id, title, description, price, location, category, images, is_verified,
        rating, review_count, contact_phone, contact_email, contact_whatsapp, features, status, created_at, updated_at`

func scanListing(row rowScanner) (models.Listing, error) {
	var l models.Listing
	var images, features sql.NullString
	err := row.Scan(
		&l.ID, &l.UserID, &l.Title, &l.Description, &l.Price, &l.Location, &l.Category, &images,
		&l.IsVerified, &l.Rating, &l.ReviewCount, &l.ContactInfo.Phone, &l.ContactInfo.Email,
		&l.ContactInfo.WhatsApp, &features, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}
	if l.Images, err = decodeStrings(images); err != nil {
		return models.Listing{}, fmt.Errorf("decode images of listing %s: %w", l.ID, err)
	}
	if l.Features, err = decodeStrings(features); err != nil {
		return models.Listing{}, fmt.Errorf("decode features of listing %s: %w", l.ID, err)
	}
	return l, nil
}

func decodeStrings(raw sql.NullString) ([]string, error) {
	out := []string{}
	if !raw.Valid || raw.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	return string(b), err
}

func (r *ListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// Search expects normalised filters with page and limit set.
func (r *ListingRepository) Search(ctx context.Context, f models.SearchFilters) (models.ListingPage, error) {
	where, args := buildListingWhere(f)
	page := models.ListingPage{Page: f.Page, Limit: f.Limit}

	statsQuery := `SELECT COUNT(*), COALESCE(MIN(price), 0), COALESCE(MAX(price), 0) FROM listings` + where
	if err := r.DB.QueryRowContext(ctx, statsQuery, args...).Scan(&page.Total, &page.MinPrice, &page.MaxPrice); err != nil {
		return models.ListingPage{}, err
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + where + listingOrder(f.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	listings, err := r.queryListings(ctx, query, args...)
	if err != nil {
		return models.ListingPage{}, err
	}
	page.Listings = listings
	return page, nil
}

func (r *ListingRepository) Featured(ctx context.Context, limit int) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings
        WHERE status = ? AND is_verified = TRUE
        ORDER BY rating DESC, created_at DESC
        LIMIT ?`
	return r.queryListings(ctx, query, models.ListingStatusActive, limit)
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	l, err := scanListing(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, models.ErrListingNotFound
	}
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func (r *ListingRepository) Create(ctx context.Context, l models.Listing) (models.Listing, error) {
	images, err := encodeStrings(l.Images)
	if err != nil {
		return models.Listing{}, err
	}
	features, err := encodeStrings(l.Features)
	if err != nil {
		return models.Listing{}, err
	}

	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	query := `
        INSERT INTO listings (id, user_id, title, description, price, location, category, images, is_verified,
            rating, review_count, contact_phone, contact_email, contact_whatsapp, features, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = r.DB.ExecContext(ctx, query,
		l.ID, l.UserID, l.Title, l.Description, l.Price, l.Location, string(l.Category), images, l.IsVerified,
		l.Rating, l.ReviewCount, l.ContactInfo.Phone, l.ContactInfo.Email, l.ContactInfo.WhatsApp,
		features, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	return l, nil
}

func (r *ListingRepository) Update(ctx context.Context, l models.Listing) (models.Listing, error) {
	images, err := encodeStrings(l.Images)
	if err != nil {
		return models.Listing{}, err
	}
	features, err := encodeStrings(l.Features)
	if err != nil {
		return models.Listing{}, err
	}

	query := `
        UPDATE listings
        SET title = ?, description = ?, price = ?, location = ?, category = ?, images = ?,
            contact_phone = ?, contact_email = ?, contact_whatsapp = ?, features = ?, updated_at = ?
        WHERE id = ?
    `
	result, err := r.DB.ExecContext(ctx, query,
		l.Title, l.Description, l.Price, l.Location, string(l.Category), images,
		l.ContactInfo.Phone, l.ContactInfo.Email, l.ContactInfo.WhatsApp, features, time.Now().UTC(), l.ID,
	)
	if err != nil {
		return models.Listing{}, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return models.Listing{}, err
	} else if n == 0 {
		return models.Listing{}, models.ErrListingNotFound
	}
	return r.GetByID(ctx, l.ID)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, userID string) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryListings(ctx, query, userID)
}

func (r *ListingRepository) CountByOwner(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// Pending lists unverified listings, oldest first.
func (r *ListingRepository) Pending(ctx context.Context) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE is_verified = FALSE ORDER BY created_at ASC`
	return r.queryListings(ctx, query)
}

func (r *ListingRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE is_verified = FALSE`).Scan(&n)
	return n, err
}

func (r *ListingRepository) Moderate(ctx context.Context, id string, verified bool, status string) error {
	query := `UPDATE listings SET is_verified = ?, status = ?, updated_at = ? WHERE id = ?`
	result, err := r.DB.ExecContext(ctx, query, verified, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) UpdateRating(ctx context.Context, id string, summary models.RatingSummary) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE listings SET rating = ?, review_count = ? WHERE id = ?`,
		summary.Average, summary.Count, id,
	)
	return err
}

// AppendImages adds urls to the listing's gallery under a row lock.
// It fails with ErrValidation when the gallery would exceed max.
func (r *ListingRepository) AppendImages(ctx context.Context, id string, urls []string, max int) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var raw sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT images FROM listings WHERE id = ? FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}

	images, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	if len(images)+len(urls) > max {
		return nil, fmt.Errorf("%w: a listing can hold at most %d images", models.ErrValidation, max)
	}
	images = append(images, urls...)

	encoded, err := encodeStrings(images)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE listings SET images = ?, updated_at = ? WHERE id = ?`, encoded, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return images, nil
}
