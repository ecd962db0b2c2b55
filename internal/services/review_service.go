package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"trusthaven/internal/models"
)

type ReviewService struct {
	Reviews  ReviewStore
	Listings ListingStore
	Cache    ListingCache
	Notifier Notifier
	Logger   Logger
}

// ValidateReview requires a whole-number rating from 1 to 5 and a comment.
func ValidateReview(in models.ReviewInput) error {
	if in.Rating != math.Trunc(in.Rating) || in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be a whole number from 1 to 5", models.ErrValidation)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("%w: comment is required", models.ErrValidation)
	}
	return nil
}

func (s *ReviewService) CreateReview(ctx context.Context, actor models.AuthContext, listingID string, in models.ReviewInput) (models.Review, error) {
	if err := ValidateReview(in); err != nil {
		return models.Review{}, err
	}
	listing, err := visibleListing(ctx, s.Listings, listingID, &actor)
	if err != nil {
		return models.Review{}, err
	}
	if listing.UserID == actor.UserID {
		return models.Review{}, fmt.Errorf("%w: you cannot review your own listing", models.ErrForbidden)
	}

	review, err := s.Reviews.CreateReview(ctx, models.Review{
		ID:        uuid.NewString(),
		ListingID: listingID,
		UserID:    actor.UserID,
		UserName:  actor.Profile.Username,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	})
	if err != nil {
		return models.Review{}, err
	}
	if actor.Profile.Avatar != "" {
		avatar := actor.Profile.Avatar
		review.UserAvatar = &avatar
	}
	if err := s.recompute(ctx, listingID); err != nil {
		return models.Review{}, err
	}

	if s.Notifier != nil {
		s.Notifier.Notify(ctx, listing.UserID, models.Notification{
			Type:      models.EventReviewCreated,
			Title:     "New review",
			Body:      fmt.Sprintf("%s rated %q %d/5.", review.UserName, listing.Title, int(review.Rating)),
			Data:      map[string]string{"listing_id": listingID, "review_id": review.ID},
			CreatedAt: time.Now().UTC(),
		})
	}
	return review, nil
}

// GetReviewsByListingID lists reviews newest first. viewer may be nil.
func (s *ReviewService) GetReviewsByListingID(ctx context.Context, listingID string, viewer *models.AuthContext) ([]models.Review, error) {
	if _, err := visibleListing(ctx, s.Listings, listingID, viewer); err != nil {
		return nil, err
	}
	return s.Reviews.GetReviewsByListingID(ctx, listingID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor models.AuthContext, id string, in models.ReviewInput) (models.Review, error) {
	if err := ValidateReview(in); err != nil {
		return models.Review{}, err
	}
	review, err := s.authored(ctx, actor, id)
	if err != nil {
		return models.Review{}, err
	}

	review.Rating = in.Rating
	review.Comment = strings.TrimSpace(in.Comment)
	if err := s.Reviews.UpdateReview(ctx, review); err != nil {
		return models.Review{}, err
	}
	if err := s.recompute(ctx, review.ListingID); err != nil {
		return models.Review{}, err
	}
	now := time.Now().UTC()
	review.UpdatedAt = &now
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor models.AuthContext, id string) error {
	review, err := s.authored(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Reviews.DeleteReview(ctx, id); err != nil {
		return err
	}
	return s.recompute(ctx, review.ListingID)
}

func (s *ReviewService) authored(ctx context.Context, actor models.AuthContext, id string) (models.Review, error) {
	review, err := s.Reviews.GetReview(ctx, id)
	if err != nil {
		return models.Review{}, err
	}
	if review.UserID != actor.UserID && !actor.Role.Satisfies(models.RoleGuardian) {
		return models.Review{}, models.ErrForbidden
	}
	return review, nil
}

// recompute refreshes the listing's aggregate rating from its reviews.
func (s *ReviewService) recompute(ctx context.Context, listingID string) error {
	summary, err := s.Reviews.Summary(ctx, listingID)
	if err != nil {
		return err
	}
	if err := s.Listings.UpdateRating(ctx, listingID, summary); err != nil {
		return err
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, listingID); err != nil {
			s.Logger.Errorf("listing cache: invalidate %s: %v", listingID, err)
		}
	}
	return nil
}
