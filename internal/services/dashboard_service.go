package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"trusthaven/internal/models"
)

type DashboardService struct {
	Users     UserStore
	Listings  ListingStore
	Reviews   ReviewStore
	Favorites FavoriteStore
	Inquiries InquiryStore
}

var roleTaglines = map[models.Role]string{
	models.RoleExplorer: "Discover your next home, car, or service with confidence.",
	models.RolePioneer:  "Manage your listings and grow your presence on TrustHaven.",
	models.RoleGuardian: "Full oversight and management of the TrustHaven platform.",
	models.RoleAdmin:    "Full oversight and management of the TrustHaven platform.",
}

// Dashboard assembles the cards for the caller's role. Counters are read
// concurrently and any failure fails the whole dashboard.
func (s *DashboardService) Dashboard(ctx context.Context, actor models.AuthContext) (models.Dashboard, error) {
	stats, err := s.stats(ctx, actor)
	if err != nil {
		return models.Dashboard{}, err
	}

	name := actor.Profile.Name
	if name == "" {
		name = actor.Profile.Username
	}
	return models.Dashboard{
		Role:     actor.Role,
		Greeting: fmt.Sprintf("Welcome, %s", name),
		Tagline:  roleTaglines[actor.Role],
		Cards:    DashboardCards(actor.Role, stats),
	}, nil
}

func (s *DashboardService) stats(ctx context.Context, actor models.AuthContext) (models.DashboardStats, error) {
	var stats models.DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	switch actor.Role {
	case models.RoleExplorer:
		g.Go(func() (err error) {
			stats.SavedListings, err = s.Favorites.CountFavorites(ctx, actor.UserID)
			return err
		})
		g.Go(func() (err error) {
			stats.InquiriesSent, err = s.Inquiries.CountBySender(ctx, actor.UserID)
			return err
		})
	case models.RolePioneer:
		g.Go(func() (err error) {
			stats.OwnedListings, err = s.Listings.CountByOwner(ctx, actor.UserID)
			return err
		})
		g.Go(func() (err error) {
			stats.ReviewsReceived, err = s.Reviews.CountReceived(ctx, actor.UserID)
			return err
		})
	case models.RoleGuardian, models.RoleAdmin:
		g.Go(func() (err error) {
			stats.Users, err = s.Users.CountUsers(ctx)
			return err
		})
		g.Go(func() (err error) {
			stats.PendingListings, err = s.Listings.CountPending(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}

func count(n int) *int { return &n }

// DashboardCards lists the cards shown to role, in display order.
func DashboardCards(role models.Role, stats models.DashboardStats) []models.DashboardCard {
	switch role {
	case models.RoleExplorer:
		return []models.DashboardCard{
			{Key: "find-properties", Title: "Find Properties", Description: "Browse a wide range of verified listings.", Action: "Start Exploring", Path: "/listings"},
			{Key: "saved-listings", Title: "Saved Listings", Description: "Revisit properties you've liked and saved.", Action: "View Favorites", Path: "/my-favorites", Count: count(stats.SavedListings)},
			{Key: "inquiries", Title: "Inquiries", Description: "Track communication with property owners/agents.", Action: "Check Inquiries", Path: "/my-inquiries", Count: count(stats.InquiriesSent)},
		}
	case models.RolePioneer:
		return []models.DashboardCard{
			{Key: "create-listing", Title: "Create New Listing", Description: "Add new properties for sale or rent to your portfolio.", Action: "Create Listing", Path: "/create-listing"},
			{Key: "my-listings", Title: "My Listings", Description: "Manage, update, and track your active properties.", Action: "Manage Listings", Path: "/my-listings", Count: count(stats.OwnedListings)},
			{Key: "performance-insights", Title: "Performance Insights", Description: "See how your listings are performing and attracting views.", Action: "View Analytics", Path: "/performance", Count: count(stats.ReviewsReceived)},
		}
	case models.RoleGuardian, models.RoleAdmin:
		return []models.DashboardCard{
			{Key: "manage-users", Title: "Manage Users", Description: "View, edit, and moderate all user accounts.", Action: "Go to Users", Path: "/admin/users", Count: count(stats.Users)},
			{Key: "moderate-listings", Title: "Moderate Listings", Description: "Review, approve, or suspend property listings.", Action: "Moderate Listings", Path: "/admin/listings", Count: count(stats.PendingListings)},
			{Key: "system-settings", Title: "System Settings", Description: "Configure platform-wide settings and parameters.", Action: "Adjust Settings", Path: "/admin/settings"},
		}
	}
	return []models.DashboardCard{}
}
