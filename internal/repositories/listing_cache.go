package repositories

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"trusthaven/internal/models"
)

const (
	listingKeyPrefix    = "listings:item:"
	featuredKey         = "listings:featured"
	searchGenerationKey = "listings:search:gen"
)

// ListingCache keeps hot listing reads in Redis.
type ListingCache struct {
	rdb       redis.Cmdable
	ttl       time.Duration
	searchTTL time.Duration
}

func NewListingCache(rdb redis.Cmdable, ttl, searchTTL time.Duration) *ListingCache {
	return &ListingCache{rdb: rdb, ttl: ttl, searchTTL: searchTTL}
}

func (c *ListingCache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (c *ListingCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *ListingCache) GetListing(ctx context.Context, id string) (models.Listing, bool, error) {
	var l models.Listing
	ok, err := c.get(ctx, listingKeyPrefix+id, &l)
	return l, ok, err
}

func (c *ListingCache) SetListing(ctx context.Context, l models.Listing) error {
	return c.set(ctx, listingKeyPrefix+l.ID, l, c.ttl)
}

func (c *ListingCache) GetFeatured(ctx context.Context) ([]models.Listing, bool, error) {
	var listings []models.Listing
	ok, err := c.get(ctx, featuredKey, &listings)
	return listings, ok, err
}

func (c *ListingCache) SetFeatured(ctx context.Context, listings []models.Listing) error {
	return c.set(ctx, featuredKey, listings, c.ttl)
}

func (c *ListingCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, searchGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ListingCache) GetSearch(ctx context.Context, f models.SearchFilters) (models.ListingPage, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return models.ListingPage{}, 0, false, err
	}
	var page models.ListingPage
	ok, err := c.get(ctx, SearchCacheKey(gen, f), &page)
	return page, gen, ok, err
}

// SetSearch stores page under the generation it was read at. A write in
// between has already retired that generation, so the page is never served.
func (c *ListingCache) SetSearch(ctx context.Context, generation int64, f models.SearchFilters, page models.ListingPage) error {
	return c.set(ctx, SearchCacheKey(generation, f), page, c.searchTTL)
}

// Invalidate drops the cached listing and featured set and retires every cached search.
func (c *ListingCache) Invalidate(ctx context.Context, id string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if id != "" {
			pipe.Del(ctx, listingKeyPrefix+id)
		}
		pipe.Del(ctx, featuredKey)
		pipe.Incr(ctx, searchGenerationKey)
		return nil
	})
	return err
}

// SearchCacheKey hashes the filter set so that equal filters map to one key
// regardless of how the query string was ordered.
func SearchCacheKey(generation int64, f models.SearchFilters) string {
	params := map[string]string{
		"q":        strings.ToLower(strings.TrimSpace(f.Query)),
		"category": string(f.Category),
		"location": strings.ToLower(strings.TrimSpace(f.Location)),
		"sort":     string(f.Sort),
		"page":     strconv.Itoa(f.Page),
		"limit":    strconv.Itoa(f.Limit),
	}
	if f.MinPrice != nil {
		params["min_price"] = strconv.FormatFloat(*f.MinPrice, 'f', -1, 64)
	}
	if f.MaxPrice != nil {
		params["max_price"] = strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64)
	}
	if f.Rating != nil {
		params["rating"] = strconv.FormatFloat(*f.Rating, 'f', -1, 64)
	}
	if f.Verified != nil {
		params["verified"] = strconv.FormatBool(*f.Verified)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return "listings:search:" + strconv.FormatInt(generation, 10) + ":" + hex.EncodeToString(hash[:])
}
