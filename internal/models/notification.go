package models

import "time"

const (
	EventProfileUpdated   = "profile.updated"
	EventListingModerated = "listing.moderated"
	EventInquiryReceived  = "inquiry.received"
	EventReviewCreated    = "review.created"
)

type Notification struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type NotifyToken struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}
