package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"trusthaven/internal/models"
)

type FavoriteRepository struct {
	DB *sql.DB
}

// A repeat save keeps the first created_at. No INSERT IGNORE: it turns the
// foreign key error for a missing listing into a warning.
const addFavoriteQuery = `
        INSERT INTO saved_listings (user_id, listing_id, created_at) VALUES (?, ?, NOW())
        ON DUPLICATE KEY UPDATE created_at = created_at
    `

// AddFavorite is idempotent; saving a missing listing yields ErrListingNotFound.
func (r *FavoriteRepository) AddFavorite(ctx context.Context, userID, listingID string) error {
	_, err := r.DB.ExecContext(ctx, addFavoriteQuery, userID, listingID)
	return favoriteWriteError(err)
}

func favoriteWriteError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1452 {
		return models.ErrListingNotFound
	}
	return err
}

func (r *FavoriteRepository) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM saved_listings WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	return err
}

func (r *FavoriteRepository) CountFavorites(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_listings WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *FavoriteRepository) GetFavoritesByUser(ctx context.Context, userID string) ([]models.Listing, error) {
	query := `SELECT ` + prefixColumns("l.", listingColumns) + `
               FROM saved_listings s
               JOIN listings l ON s.listing_id = l.id
               WHERE s.user_id = ?
               ORDER BY s.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
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
	return listings, rows.Err()
}
