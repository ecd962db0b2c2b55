package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"trusthaven/internal/models"
)

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}

	if val := r.URL.Query().Get(name); val != "" {
		return val
	}

	return r.PathValue(name)
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", models.ErrValidation, key)
	}
	return &v, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, key)
	}
	return v, nil
}

// parseSearchFilters reads browse filters from the query string.
func parseSearchFilters(q url.Values) (models.SearchFilters, error) {
	f := models.SearchFilters{
		Query:    q.Get("query"),
		Category: models.Category(strings.ToLower(strings.TrimSpace(q.Get("category")))),
		Location: q.Get("location"),
		Sort:     models.ListingSort(strings.TrimSpace(q.Get("sort"))),
	}
	if f.Query == "" {
		f.Query = q.Get("q")
	}

	var err error
	if f.MinPrice, err = optionalFloat(q, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalFloat(q, "max_price"); err != nil {
		return f, err
	}
	if f.Rating, err = optionalFloat(q, "rating"); err != nil {
		return f, err
	}
	if raw := strings.TrimSpace(q.Get("verified")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("%w: verified must be true or false", models.ErrValidation)
		}
		f.Verified = &v
	}
	if f.Page, err = optionalInt(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = optionalInt(q, "limit"); err != nil {
		return f, err
	}
	return f, nil
}
