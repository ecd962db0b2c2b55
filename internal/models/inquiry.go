package models

import (
	"time"
)

const DefaultInterest = "General Inquiry"

// Interests are the topics offered on the contact form.
var Interests = []string{DefaultInterest, "Support", "Partnership", "Feedback", "Other"}

// CountryCodes are the dialling prefixes offered next to the phone field.
var CountryCodes = []string{"+237", "+234", "+33", "+1"}

type Inquiry struct {
	ID          string    `json:"id"`
	ListingID   *string   `json:"listing_id,omitempty"`
	SenderID    *string   `json:"sender_id,omitempty"`
	RecipientID *string   `json:"recipient_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CountryCode string    `json:"country"`
	Phone       string    `json:"phone,omitempty"`
	Interest    string    `json:"interest"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// InquiryRequest is the contact form body, also used for questions about a listing.
type InquiryRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CountryCode string `json:"country"`
	Phone       string `json:"phone"`
	Interest    string `json:"interest"`
	Message     string `json:"message"`
}
