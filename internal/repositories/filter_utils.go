package repositories

import (
	"strings"

	"trusthaven/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

// buildListingWhere turns browse filters into a WHERE clause over active listings.
func buildListingWhere(f models.SearchFilters) (string, []any) {
	conds := []string{"status = ?"}
	args := []any{models.ListingStatusActive}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := likePattern(q)
		conds = append(conds, "(title LIKE ? OR description LIKE ? OR location LIKE ?)")
		args = append(args, p, p, p)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(f.Category))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, likePattern(loc))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Rating != nil {
		conds = append(conds, "rating >= ?")
		args = append(args, *f.Rating)
	}
	if f.Verified != nil {
		conds = append(conds, "is_verified = ?")
		args = append(args, *f.Verified)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func listingOrder(sort models.ListingSort) string {
	switch sort {
	case models.SortPriceAsc:
		return " ORDER BY price ASC, created_at DESC"
	case models.SortPriceDesc:
		return " ORDER BY price DESC, created_at DESC"
	case models.SortRating:
		return " ORDER BY rating DESC, review_count DESC, created_at DESC"
	default:
		return " ORDER BY created_at DESC"
	}
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
