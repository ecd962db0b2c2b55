package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"trusthaven/internal/models"
	"trusthaven/utils"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

type memUsers struct {
	mu        sync.Mutex
	users     map[string]models.UserProfile
	createErr error
}

func newMemUsers(users ...models.UserProfile) *memUsers {
	m := &memUsers{users: map[string]models.UserProfile{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) find(match func(models.UserProfile) bool) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return models.UserProfile{}, models.ErrUserNotFound
}

func (m *memUsers) CreateUser(_ context.Context, user models.UserProfile) (models.UserProfile, error) {
	if m.createErr != nil {
		return models.UserProfile{}, m.createErr
	}
	if user.Email != "" {
		if _, err := m.GetUserByEmail(context.Background(), user.Email); err == nil {
			return models.UserProfile{}, models.ErrDuplicateEmail
		}
	}
	if user.Phone != "" {
		if _, err := m.GetUserByPhone(context.Background(), user.Phone); err == nil {
			return models.UserProfile{}, models.ErrDuplicatePhone
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (models.UserProfile, error) {
	return m.find(func(u models.UserProfile) bool { return u.ID == id })
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (models.UserProfile, error) {
	return m.find(func(u models.UserProfile) bool { return u.Email != "" && u.Email == strings.ToLower(email) })
}

func (m *memUsers) GetUserByPhone(_ context.Context, phone string) (models.UserProfile, error) {
	return m.find(func(u models.UserProfile) bool { return u.Phone != "" && u.Phone == phone })
}

func (m *memUsers) GetUserByGoogleSubject(_ context.Context, subject string) (models.UserProfile, error) {
	return m.find(func(u models.UserProfile) bool { return u.GoogleSubject != "" && u.GoogleSubject == subject })
}

func (m *memUsers) UpdateUser(_ context.Context, user models.UserProfile) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return models.UserProfile{}, models.ErrUserNotFound
	}
	now := time.Now().UTC()
	user.UpdatedAt = &now
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	u.LastLoginAt = &at
	m.users[id] = u
	return nil
}

func (m *memUsers) update(id string, change func(*models.UserProfile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	change(&u)
	m.users[id] = u
	return nil
}

func (m *memUsers) SetRole(_ context.Context, id string, role models.Role) error {
	return m.update(id, func(u *models.UserProfile) { u.Role = role })
}

func (m *memUsers) SetStatus(_ context.Context, id, status string) error {
	return m.update(id, func(u *models.UserProfile) { u.Status = status })
}

func (m *memUsers) ListUsers(_ context.Context, role models.Role) ([]models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.UserProfile{}
	for _, u := range m.users {
		if role == "" || u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memUsers) CountUsers(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *memUsers) ListingIDs(context.Context, string) ([]string, error)      { return []string{}, nil }
func (m *memUsers) SavedListingIDs(context.Context, string) ([]string, error) { return []string{}, nil }

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]models.Session{}}
}

func (m *memSessions) CreateSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.RefreshToken] = s
	return nil
}

func (m *memSessions) GetSessionByToken(_ context.Context, token string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return models.Session{}, models.ErrNoRecord
	}
	return s, nil
}

func (m *memSessions) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memSessions) DeleteUserSessions(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *memSessions) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) count(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type memVerifications struct {
	mu       sync.Mutex
	items    map[string]models.PhoneVerification
	expired  map[string]bool
	attempts map[string]int64
	sends    map[string]int64
	daily    int64
}

func newMemVerifications() *memVerifications {
	return &memVerifications{
		items:    map[string]models.PhoneVerification{},
		expired:  map[string]bool{},
		attempts: map[string]int64{},
		sends:    map[string]int64{},
	}
}

func (m *memVerifications) SaveVerification(_ context.Context, id string, v models.PhoneVerification, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = v
	return nil
}

func (m *memVerifications) GetVerification(_ context.Context, id string) (models.PhoneVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok || m.expired[id] {
		return models.PhoneVerification{}, models.ErrNoRecord
	}
	return v, nil
}

func (m *memVerifications) DeleteVerification(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

func (m *memVerifications) CountAttempt(_ context.Context, id string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[id]++
	return m.attempts[id], nil
}

func (m *memVerifications) CountSend(_ context.Context, phone string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends[phone]++
	return m.sends[phone], nil
}

func (m *memVerifications) CountDaily(context.Context, time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily++
	return m.daily, nil
}

// memIdentity holds accounts by uid and rejects a second account per email.
type memIdentity struct {
	mu       sync.Mutex
	accounts map[string]models.UserProfile
	deleted  []string
}

func newMemIdentity() *memIdentity {
	return &memIdentity{accounts: map[string]models.UserProfile{}}
}

func (m *memIdentity) CreateUser(_ context.Context, user models.UserProfile, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if user.Email != "" && a.Email == user.Email {
			return models.NewAuthError(models.CodeEmailAlreadyInUse)
		}
	}
	m.accounts[user.ID] = user
	return nil
}

func (m *memIdentity) DeleteUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, uid)
	m.deleted = append(m.deleted, uid)
	return nil
}

func (m *memIdentity) SetRole(context.Context, string, models.Role) error { return nil }
func (m *memIdentity) SetDisabled(context.Context, string, bool) error    { return nil }

func (m *memIdentity) VerifyIDToken(context.Context, string) (string, error) {
	return "", errors.New("not a firebase token")
}

type stubSMS struct {
	mu    sync.Mutex
	texts map[string]string
	err   error
}

func (s *stubSMS) Send(_ context.Context, phone, text string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.texts == nil {
		s.texts = map[string]string{}
	}
	s.texts[phone] = text
	return nil
}

// code returns the one-time code from the last text sent to phone.
func (s *stubSMS) code(t *testing.T, phone string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[phone]
	if !ok || len(text) < 6 {
		t.Fatalf("no code was sent to %s", phone)
	}
	return text[len(text)-6:]
}

type stubGoogle struct {
	identity models.ExternalIdentity
	err      error
}

func (g stubGoogle) Verify(context.Context, string) (models.ExternalIdentity, error) {
	return g.identity, g.err
}

type stubCaptcha struct{ err error }

func (c stubCaptcha) Verify(context.Context, string, string) error { return c.err }

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, userID+":"+note.Type)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type memListings struct {
	mu       sync.Mutex
	listings map[string]models.Listing
	ratings  map[string]models.RatingSummary
	err      error
}

func newMemListings(listings ...models.Listing) *memListings {
	m := &memListings{listings: map[string]models.Listing{}, ratings: map[string]models.RatingSummary{}}
	for _, l := range listings {
		m.listings[l.ID] = l
	}
	return m
}

func (m *memListings) Search(_ context.Context, f models.SearchFilters) (models.ListingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := models.ListingPage{Listings: []models.Listing{}, Page: f.Page, Limit: f.Limit}
	for _, l := range m.listings {
		if l.Status == models.ListingStatusActive {
			page.Listings = append(page.Listings, l)
		}
	}
	page.Total = len(page.Listings)
	return page, nil
}

func (m *memListings) Featured(_ context.Context, limit int) ([]models.Listing, error) {
	page, _ := m.Search(context.Background(), models.SearchFilters{})
	if len(page.Listings) > limit {
		page.Listings = page.Listings[:limit]
	}
	return page.Listings, nil
}

func (m *memListings) GetByID(_ context.Context, id string) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.Listing{}, m.err
	}
	l, ok := m.listings[id]
	if !ok {
		return models.Listing{}, models.ErrListingNotFound
	}
	return l, nil
}

func (m *memListings) Create(_ context.Context, l models.Listing) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return l, nil
}

func (m *memListings) Update(_ context.Context, l models.Listing) (models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return l, nil
}

func (m *memListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listings, id)
	return nil
}

func (m *memListings) ByOwner(_ context.Context, userID string) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Listing{}
	for _, l := range m.listings {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memListings) CountByOwner(ctx context.Context, userID string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	owned, _ := m.ByOwner(ctx, userID)
	return len(owned), nil
}

func (m *memListings) Pending(context.Context) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Listing{}
	for _, l := range m.listings {
		if !l.IsVerified {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memListings) CountPending(ctx context.Context) (int, error) {
	pending, _ := m.Pending(ctx)
	return len(pending), nil
}

func (m *memListings) Moderate(_ context.Context, id string, verified bool, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return models.ErrListingNotFound
	}
	l.IsVerified = verified
	l.Status = status
	m.listings[id] = l
	return nil
}

func (m *memListings) UpdateRating(_ context.Context, id string, summary models.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return models.ErrListingNotFound
	}
	l.Rating = summary.Average
	l.ReviewCount = summary.Count
	m.listings[id] = l
	m.ratings[id] = summary
	return nil
}

func (m *memListings) AppendImages(_ context.Context, id string, urls []string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, models.ErrListingNotFound
	}
	if len(l.Images)+len(urls) > max {
		return nil, fmt.Errorf("%w: too many images", models.ErrValidation)
	}
	l.Images = append(l.Images, urls...)
	m.listings[id] = l
	return l.Images, nil
}

type memReviews struct {
	mu      sync.Mutex
	reviews map[string]models.Review
}

func newMemReviews() *memReviews {
	return &memReviews{reviews: map[string]models.Review{}}
}

func (m *memReviews) CreateReview(_ context.Context, rev models.Review) (models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ListingID == rev.ListingID && r.UserID == rev.UserID {
			return models.Review{}, models.ErrAlreadyReviewed
		}
	}
	rev.CreatedAt = time.Now().UTC()
	m.reviews[rev.ID] = rev
	return rev, nil
}

func (m *memReviews) GetReview(_ context.Context, id string) (models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return models.Review{}, models.ErrReviewNotFound
	}
	return r, nil
}

func (m *memReviews) GetReviewsByListingID(_ context.Context, listingID string) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.reviews {
		if r.ListingID == listingID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) UpdateReview(_ context.Context, rev models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[rev.ID]; !ok {
		return models.ErrReviewNotFound
	}
	m.reviews[rev.ID] = rev
	return nil
}

func (m *memReviews) DeleteReview(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reviews, id)
	return nil
}

func (m *memReviews) Summary(ctx context.Context, listingID string) (models.RatingSummary, error) {
	reviews, _ := m.GetReviewsByListingID(ctx, listingID)
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	summary := models.RatingSummary{Count: len(reviews)}
	if len(reviews) > 0 {
		summary.Average = sum / float64(len(reviews))
	}
	return summary, nil
}

func (m *memReviews) CountReceived(context.Context, string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews), nil
}

type stubFavorites struct {
	count int
	err   error
}

func (f stubFavorites) AddFavorite(context.Context, string, string) error    { return f.err }
func (f stubFavorites) RemoveFavorite(context.Context, string, string) error { return f.err }
func (f stubFavorites) CountFavorites(context.Context, string) (int, error)  { return f.count, f.err }
func (f stubFavorites) GetFavoritesByUser(context.Context, string) ([]models.Listing, error) {
	return []models.Listing{}, f.err
}

type memInquiries struct {
	mu        sync.Mutex
	inquiries []models.Inquiry
	sent      int
}

func (m *memInquiries) CreateInquiry(_ context.Context, inq models.Inquiry) (models.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inquiries = append(m.inquiries, inq)
	return inq, nil
}

func (m *memInquiries) filter(match func(models.Inquiry) bool) []models.Inquiry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Inquiry{}
	for _, inq := range m.inquiries {
		if match(inq) {
			out = append(out, inq)
		}
	}
	return out
}

func (m *memInquiries) BySender(_ context.Context, userID string) ([]models.Inquiry, error) {
	return m.filter(func(i models.Inquiry) bool { return i.SenderID != nil && *i.SenderID == userID }), nil
}

func (m *memInquiries) ByRecipient(_ context.Context, userID string) ([]models.Inquiry, error) {
	return m.filter(func(i models.Inquiry) bool { return i.RecipientID != nil && *i.RecipientID == userID }), nil
}

func (m *memInquiries) ContactMessages(context.Context) ([]models.Inquiry, error) {
	return m.filter(func(i models.Inquiry) bool { return i.ListingID == nil }), nil
}

func (m *memInquiries) CountBySender(context.Context, string) (int, error) { return m.sent, nil }

func newTestManager(t *testing.T) *utils.Manager {
	t.Helper()
	m, err := utils.NewManager("test-signing-key-0123456789")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTTL:      2 * time.Hour,
		RefreshTTL:     24 * time.Hour,
		RememberTTL:    60 * 24 * time.Hour,
		OTPTTL:         5 * time.Minute,
		OTPMaxAttempts: 3,
		OTPSendLimit:   2,
		OTPSendWindow:  10 * time.Minute,
		OTPDailyQuota:  100,
	}
}

func authCode(t *testing.T, err error) string {
	t.Helper()
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	return authErr.Code
}
