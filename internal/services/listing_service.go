package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"trusthaven/internal/models"
)

const (
	DefaultPageSize  = 12
	MaxPageSize      = 50
	FeaturedCount    = 4
	MaxTitleLength   = 120
	MaxImageSize     = 8 << 20
	MaxListingImages = 10
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageFile is one uploaded gallery image.
type ImageFile struct {
	Name string
	Data []byte
}

type ListingService struct {
	Listings ListingStore
	Reviews  ReviewStore
	Cache    ListingCache
	Uploader ImageUploader
	Notifier Notifier
	Logger   Logger
}

// NormalizeFilters validates browse filters and fills in paging defaults.
func NormalizeFilters(f models.SearchFilters) (models.SearchFilters, error) {
	f.Query = strings.TrimSpace(f.Query)
	f.Location = strings.TrimSpace(f.Location)

	if f.Category != "" && !f.Category.Valid() {
		return f, fmt.Errorf("%w: unknown category %q", models.ErrValidation, f.Category)
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return f, fmt.Errorf("%w: min_price must not be negative", models.ErrValidation)
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return f, fmt.Errorf("%w: max_price must not be negative", models.ErrValidation)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, fmt.Errorf("%w: min_price is greater than max_price", models.ErrValidation)
	}
	if f.Rating != nil && (*f.Rating < 0 || *f.Rating > 5) {
		return f, fmt.Errorf("%w: rating must be between 0 and 5", models.ErrValidation)
	}

	switch f.Sort {
	case "":
		f.Sort = models.SortNewest
	case models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortRating:
	default:
		return f, fmt.Errorf("%w: unknown sort %q", models.ErrValidation, f.Sort)
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f, nil
}

// ValidateListing checks a create or update body.
func ValidateListing(in models.ListingInput) error {
	var problems []string
	title := strings.TrimSpace(in.Title)
	if title == "" {
		problems = append(problems, "title is required")
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if strings.TrimSpace(in.Description) == "" {
		problems = append(problems, "description is required")
	}
	if in.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if !in.Category.Valid() {
		problems = append(problems, "category is invalid")
	}
	if strings.TrimSpace(in.Location) == "" {
		problems = append(problems, "location is required")
	}
	if in.ContactInfo.Empty() {
		problems = append(problems, "at least one contact method is required")
	}
	if in.ContactInfo.Email != "" && !ValidEmail(in.ContactInfo.Email) {
		problems = append(problems, "contact email is invalid")
	}
	if len(in.Images) > MaxListingImages {
		problems = append(problems, fmt.Sprintf("at most %d images are allowed", MaxListingImages))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func (s *ListingService) Search(ctx context.Context, f models.SearchFilters) (models.ListingPage, error) {
	f, err := NormalizeFilters(f)
	if err != nil {
		return models.ListingPage{}, err
	}

	cacheable := false
	var generation int64
	if s.Cache != nil {
		page, gen, ok, err := s.Cache.GetSearch(ctx, f)
		switch {
		case err != nil:
			s.Logger.Errorf("listing cache: search: %v", err)
		case ok:
			return page, nil
		default:
			cacheable, generation = true, gen
		}
	}

	page, err := s.Listings.Search(ctx, f)
	if err != nil {
		return models.ListingPage{}, err
	}
	if cacheable {
		if err := s.Cache.SetSearch(ctx, generation, f, page); err != nil {
			s.Logger.Errorf("listing cache: store search: %v", err)
		}
	}
	return page, nil
}

func (s *ListingService) Featured(ctx context.Context) ([]models.Listing, error) {
	if s.Cache != nil {
		listings, ok, err := s.Cache.GetFeatured(ctx)
		if err != nil {
			s.Logger.Errorf("listing cache: featured: %v", err)
		} else if ok {
			return listings, nil
		}
	}

	listings, err := s.Listings.Featured(ctx, FeaturedCount)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetFeatured(ctx, listings); err != nil {
			s.Logger.Errorf("listing cache: store featured: %v", err)
		}
	}
	return listings, nil
}

// Get returns a listing with its reviews. Hidden listings are only shown to
// their owner and to guardians.
func (s *ListingService) Get(ctx context.Context, id string, viewer *models.AuthContext) (models.Listing, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.Status != models.ListingStatusActive && !canManage(viewer, listing.UserID) {
		return models.Listing{}, models.ErrListingNotFound
	}
	return listing, nil
}

func (s *ListingService) load(ctx context.Context, id string) (models.Listing, error) {
	if s.Cache != nil {
		listing, ok, err := s.Cache.GetListing(ctx, id)
		if err != nil {
			s.Logger.Errorf("listing cache: get %s: %v", id, err)
		} else if ok {
			return listing, nil
		}
	}

	listing, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.Reviews, err = s.Reviews.GetReviewsByListingID(ctx, id); err != nil {
		return models.Listing{}, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetListing(ctx, listing); err != nil {
			s.Logger.Errorf("listing cache: store %s: %v", id, err)
		}
	}
	return listing, nil
}

// visibleListing loads a listing for viewer. A hidden listing reads as missing
// unless viewer may manage it.
func visibleListing(ctx context.Context, store ListingStore, id string, viewer *models.AuthContext) (models.Listing, error) {
	listing, err := store.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.Status != models.ListingStatusActive && !canManage(viewer, listing.UserID) {
		return models.Listing{}, models.ErrListingNotFound
	}
	return listing, nil
}

func canManage(viewer *models.AuthContext, ownerID string) bool {
	if viewer == nil {
		return false
	}
	return viewer.UserID == ownerID || viewer.Role.Satisfies(models.RoleGuardian)
}

func (s *ListingService) Create(ctx context.Context, actor models.AuthContext, in models.ListingInput) (models.Listing, error) {
	if err := ValidateListing(in); err != nil {
		return models.Listing{}, err
	}
	listing := applyInput(models.Listing{
		ID:     uuid.NewString(),
		UserID: actor.UserID,
		Status: models.ListingStatusActive,
	}, in)

	created, err := s.Listings.Create(ctx, listing)
	if err != nil {
		return models.Listing{}, err
	}
	s.invalidate(ctx, "")
	return created, nil
}

func (s *ListingService) Update(ctx context.Context, actor models.AuthContext, id string, in models.ListingInput) (models.Listing, error) {
	if err := ValidateListing(in); err != nil {
		return models.Listing{}, err
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return models.Listing{}, err
	}

	updated, err := s.Listings.Update(ctx, applyInput(current, in))
	if err != nil {
		return models.Listing{}, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, actor models.AuthContext, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Listings.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *ListingService) owned(ctx context.Context, actor models.AuthContext, id string) (models.Listing, error) {
	listing, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if !canManage(&actor, listing.UserID) {
		return models.Listing{}, models.ErrForbidden
	}
	return listing, nil
}

func applyInput(l models.Listing, in models.ListingInput) models.Listing {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = strings.TrimSpace(in.Description)
	l.Price = in.Price
	l.Location = strings.TrimSpace(in.Location)
	l.Category = in.Category
	l.ContactInfo = in.ContactInfo
	l.Features = in.Features
	if in.Images != nil {
		l.Images = in.Images
	}
	return l
}

// AddImages uploads files in order and appends their URLs to the gallery.
func (s *ListingService) AddImages(ctx context.Context, actor models.AuthContext, id string, files []ImageFile) ([]string, error) {
	if s.Uploader == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", models.ErrUnavailable)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images provided", models.ErrValidation)
	}
	listing, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(listing.Images)+len(files) > MaxListingImages {
		return nil, fmt.Errorf("%w: a listing can hold at most %d images", models.ErrValidation, MaxListingImages)
	}

	extensions := make([]string, len(files))
	for i, f := range files {
		ext, err := imageExtension(f)
		if err != nil {
			return nil, err
		}
		extensions[i] = ext
	}

	urls := make([]string, 0, len(files))
	for i, f := range files {
		name := uuid.NewString() + "." + extensions[i]
		url, err := s.Uploader.Upload(ctx, f.Data, name, "listings/"+id, http.DetectContentType(f.Data))
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	images, err := s.Listings.AppendImages(ctx, id, urls, MaxListingImages)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return images, nil
}

func imageExtension(f ImageFile) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", models.ErrValidation, f.Name)
	}
	if len(f.Data) > MaxImageSize {
		return "", fmt.Errorf("%w: %s is larger than %d MB", models.ErrValidation, f.Name, MaxImageSize>>20)
	}
	ext, ok := imageExtensions[http.DetectContentType(f.Data)]
	if !ok {
		return "", fmt.Errorf("%w: %s must be a jpeg, png or webp image", models.ErrValidation, f.Name)
	}
	return ext, nil
}

func (s *ListingService) Mine(ctx context.Context, userID string) ([]models.Listing, error) {
	return s.Listings.ByOwner(ctx, userID)
}

func (s *ListingService) Pending(ctx context.Context) ([]models.Listing, error) {
	return s.Listings.Pending(ctx)
}

// Moderate sets the verification flag and visibility and tells the owner.
func (s *ListingService) Moderate(ctx context.Context, id string, req models.ModerationRequest) (models.Listing, error) {
	if req.Status == "" {
		req.Status = models.ListingStatusActive
	}
	if req.Status != models.ListingStatusActive && req.Status != models.ListingStatusHidden {
		return models.Listing{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, req.Status)
	}

	if err := s.Listings.Moderate(ctx, id, req.IsVerified, req.Status); err != nil {
		return models.Listing{}, err
	}
	s.invalidate(ctx, id)

	listing, err := s.Listings.GetByID(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if s.Notifier != nil {
		body := fmt.Sprintf("%q is now %s.", listing.Title, listing.Status)
		if listing.IsVerified {
			body = fmt.Sprintf("%q is verified and %s.", listing.Title, listing.Status)
		}
		s.Notifier.Notify(ctx, listing.UserID, models.Notification{
			Type:  models.EventListingModerated,
			Title: "Listing reviewed",
			Body:  body,
			Data: map[string]string{
				"listing_id":  listing.ID,
				"status":      listing.Status,
				"is_verified": fmt.Sprint(listing.IsVerified),
			},
			CreatedAt: time.Now().UTC(),
		})
	}
	return listing, nil
}

func (s *ListingService) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		s.Logger.Errorf("listing cache: invalidate %s: %v", id, err)
	}
}
