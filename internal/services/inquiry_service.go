package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"trusthaven/internal/models"
)

var phoneDigits = regexp.MustCompile(`^[0-9]{6,15}$`)

type InquiryService struct {
	Inquiries InquiryStore
	Listings  ListingStore
	Notifier  Notifier
}

// NormalizeInquiry validates a contact form and fills in its defaults.
func NormalizeInquiry(req models.InquiryRequest) (models.InquiryRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	req.Interest = strings.TrimSpace(req.Interest)
	req.CountryCode = strings.TrimSpace(req.CountryCode)
	req.Phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(req.Phone))

	var problems []string
	if req.Name == "" {
		problems = append(problems, "name is required")
	}
	if req.Email == "" {
		problems = append(problems, "email is required")
	} else if !ValidEmail(req.Email) {
		problems = append(problems, "email is invalid")
	}
	if req.Message == "" {
		problems = append(problems, "message is required")
	}
	if req.Interest == "" {
		req.Interest = models.DefaultInterest
	} else if !contains(models.Interests, req.Interest) {
		problems = append(problems, "interest is invalid")
	}
	if req.CountryCode == "" {
		req.CountryCode = models.CountryCodes[0]
	} else if !contains(models.CountryCodes, req.CountryCode) {
		problems = append(problems, "country code is invalid")
	}
	if req.Phone != "" && !phoneDigits.MatchString(req.Phone) {
		problems = append(problems, "phone must contain digits only")
	}

	if len(problems) > 0 {
		return req, fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return req, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Contact stores a contact form message. sender is nil for anonymous visitors.
func (s *InquiryService) Contact(ctx context.Context, sender *models.AuthContext, req models.InquiryRequest) (models.Inquiry, error) {
	req, err := NormalizeInquiry(req)
	if err != nil {
		return models.Inquiry{}, err
	}
	inq := newInquiry(req)
	if sender != nil {
		inq.SenderID = &sender.UserID
	}
	return s.Inquiries.CreateInquiry(ctx, inq)
}

// AskAboutListing sends a message to the owner of a listing.
func (s *InquiryService) AskAboutListing(ctx context.Context, actor models.AuthContext, listingID string, req models.InquiryRequest) (models.Inquiry, error) {
	listing, err := visibleListing(ctx, s.Listings, listingID, &actor)
	if err != nil {
		return models.Inquiry{}, err
	}
	if listing.UserID == actor.UserID {
		return models.Inquiry{}, fmt.Errorf("%w: you cannot send an inquiry about your own listing", models.ErrForbidden)
	}

	if strings.TrimSpace(req.Name) == "" {
		req.Name = actor.Profile.Username
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email = actor.Profile.Email
	}
	req, err = NormalizeInquiry(req)
	if err != nil {
		return models.Inquiry{}, err
	}

	inq := newInquiry(req)
	inq.ListingID = &listing.ID
	inq.SenderID = &actor.UserID
	inq.RecipientID = &listing.UserID
	created, err := s.Inquiries.CreateInquiry(ctx, inq)
	if err != nil {
		return models.Inquiry{}, err
	}

	if s.Notifier != nil {
		s.Notifier.Notify(ctx, listing.UserID, models.Notification{
			Type:      models.EventInquiryReceived,
			Title:     "New inquiry",
			Body:      fmt.Sprintf("%s asked about %q.", created.Name, listing.Title),
			Data:      map[string]string{"listing_id": listing.ID, "inquiry_id": created.ID},
			CreatedAt: time.Now().UTC(),
		})
	}
	return created, nil
}

func newInquiry(req models.InquiryRequest) models.Inquiry {
	return models.Inquiry{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		CountryCode: req.CountryCode,
		Phone:       req.Phone,
		Interest:    req.Interest,
		Message:     req.Message,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *InquiryService) Sent(ctx context.Context, userID string) ([]models.Inquiry, error) {
	return s.Inquiries.BySender(ctx, userID)
}

func (s *InquiryService) Received(ctx context.Context, userID string) ([]models.Inquiry, error) {
	return s.Inquiries.ByRecipient(ctx, userID)
}

func (s *InquiryService) ContactMessages(ctx context.Context) ([]models.Inquiry, error) {
	return s.Inquiries.ContactMessages(ctx)
}
