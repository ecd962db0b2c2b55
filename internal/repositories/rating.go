package repositories

import (
	"context"
	"database/sql"
	"math"

	"trusthaven/internal/models"
)

func getRatingSummary(ctx context.Context, db *sql.DB, listingID string) (models.RatingSummary, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE listing_id = ?`
	var avg sql.NullFloat64
	var summary models.RatingSummary
	if err := db.QueryRowContext(ctx, query, listingID).Scan(&avg, &summary.Count); err != nil {
		return models.RatingSummary{}, err
	}
	if avg.Valid {
		summary.Average = math.Round(avg.Float64*10) / 10
	}
	return summary, nil
}
