package models

import (
	"time"
)

type Review struct {
	ID         string     `json:"id"`
	ListingID  string     `json:"listing_id"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserAvatar *string    `json:"user_avatar,omitempty"`
	Rating     float64    `json:"rating"`
	Comment    string     `json:"comment"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type RatingSummary struct {
	Average float64
	Count   int
}

type ReviewInput struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}
