package services

import (
	"context"
	"time"

	"trusthaven/internal/models"
)

// Logger provides the minimal logging the services need.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type UserStore interface {
	CreateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error)
	GetUserByID(ctx context.Context, id string) (models.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (models.UserProfile, error)
	GetUserByPhone(ctx context.Context, phone string) (models.UserProfile, error)
	GetUserByGoogleSubject(ctx context.Context, subject string) (models.UserProfile, error)
	UpdateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetRole(ctx context.Context, id string, role models.Role) error
	SetStatus(ctx context.Context, id, status string) error
	ListUsers(ctx context.Context, role models.Role) ([]models.UserProfile, error)
	CountUsers(ctx context.Context) (int, error)
	ListingIDs(ctx context.Context, userID string) ([]string, error)
	SavedListingIDs(ctx context.Context, userID string) ([]string, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type VerificationStore interface {
	SaveVerification(ctx context.Context, id string, v models.PhoneVerification, ttl time.Duration) error
	GetVerification(ctx context.Context, id string) (models.PhoneVerification, error)
	DeleteVerification(ctx context.Context, id string) (bool, error)
	CountAttempt(ctx context.Context, id string, ttl time.Duration) (int64, error)
	CountSend(ctx context.Context, phone string, window time.Duration) (int64, error)
	CountDaily(ctx context.Context, now time.Time) (int64, error)
}

// ProfileMirror receives a copy of every profile write.
type ProfileMirror interface {
	Upsert(ctx context.Context, user models.UserProfile) error
}

// IdentityProvider is the external account system users may also sign in with.
type IdentityProvider interface {
	CreateUser(ctx context.Context, user models.UserProfile, password string) error
	DeleteUser(ctx context.Context, uid string) error
	SetRole(ctx context.Context, uid string, role models.Role) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (models.ExternalIdentity, error)
}

type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Notifier delivers account events to a user's live channels.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification)
}

type ListingStore interface {
	Search(ctx context.Context, f models.SearchFilters) (models.ListingPage, error)
	Featured(ctx context.Context, limit int) ([]models.Listing, error)
	GetByID(ctx context.Context, id string) (models.Listing, error)
	Create(ctx context.Context, l models.Listing) (models.Listing, error)
	Update(ctx context.Context, l models.Listing) (models.Listing, error)
	Delete(ctx context.Context, id string) error
	ByOwner(ctx context.Context, userID string) ([]models.Listing, error)
	CountByOwner(ctx context.Context, userID string) (int, error)
	Pending(ctx context.Context) ([]models.Listing, error)
	CountPending(ctx context.Context) (int, error)
	Moderate(ctx context.Context, id string, verified bool, status string) error
	UpdateRating(ctx context.Context, id string, summary models.RatingSummary) error
	AppendImages(ctx context.Context, id string, urls []string, max int) ([]string, error)
}

type ListingCache interface {
	GetListing(ctx context.Context, id string) (models.Listing, bool, error)
	SetListing(ctx context.Context, l models.Listing) error
	GetFeatured(ctx context.Context) ([]models.Listing, bool, error)
	SetFeatured(ctx context.Context, listings []models.Listing) error
	// GetSearch also returns the cache generation it read; a page computed
	// after a miss is stored with SetSearch under that same generation.
	GetSearch(ctx context.Context, f models.SearchFilters) (models.ListingPage, int64, bool, error)
	SetSearch(ctx context.Context, generation int64, f models.SearchFilters, page models.ListingPage) error
	Invalidate(ctx context.Context, id string) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, rev models.Review) (models.Review, error)
	GetReview(ctx context.Context, id string) (models.Review, error)
	GetReviewsByListingID(ctx context.Context, listingID string) ([]models.Review, error)
	UpdateReview(ctx context.Context, rev models.Review) error
	DeleteReview(ctx context.Context, id string) error
	Summary(ctx context.Context, listingID string) (models.RatingSummary, error)
	CountReceived(ctx context.Context, ownerID string) (int, error)
}

type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	CountFavorites(ctx context.Context, userID string) (int, error)
	GetFavoritesByUser(ctx context.Context, userID string) ([]models.Listing, error)
}

type InquiryStore interface {
	CreateInquiry(ctx context.Context, inq models.Inquiry) (models.Inquiry, error)
	BySender(ctx context.Context, userID string) ([]models.Inquiry, error)
	ByRecipient(ctx context.Context, userID string) ([]models.Inquiry, error)
	ContactMessages(ctx context.Context) ([]models.Inquiry, error)
	CountBySender(ctx context.Context, userID string) (int, error)
}

type NotifyTokenStore interface {
	InsertToken(ctx context.Context, userID, token string) error
	DeleteToken(ctx context.Context, userID, token string) error
	GetTokensByUserID(ctx context.Context, userID string) ([]string, error)
}

// ImageUploader stores a file under folder/fileName and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file []byte, fileName, folder, contentType string) (string, error)
}
