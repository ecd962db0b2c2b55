package services

import (
	"context"

	"trusthaven/internal/models"
)

type FavoriteService struct {
	Favorites FavoriteStore
	Listings  ListingStore
}

func (s *FavoriteService) Save(ctx context.Context, actor models.AuthContext, listingID string) error {
	if _, err := visibleListing(ctx, s.Listings, listingID, &actor); err != nil {
		return err
	}
	return s.Favorites.AddFavorite(ctx, actor.UserID, listingID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID, listingID string) error {
	return s.Favorites.RemoveFavorite(ctx, userID, listingID)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.Listing, error) {
	return s.Favorites.GetFavoritesByUser(ctx, userID)
}
