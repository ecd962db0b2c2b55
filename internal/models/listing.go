package models

import (
	"time"
)

type Category string

const (
	CategoryHomes       Category = "homes"
	CategoryCars        Category = "cars"
	CategoryServices    Category = "services"
	CategoryBusinesses  Category = "businesses"
	CategoryJobs        Category = "jobs"
	CategoryElectronics Category = "electronics"
)

type CategoryInfo struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
	Color string   `json:"color"`
}

// Categories is the closed set shown on the home page, in display order.
var Categories = []CategoryInfo{
	{ID: CategoryHomes, Label: "Homes", Icon: "home", Color: "#37bce5"},
	{ID: CategoryCars, Label: "Cars", Icon: "car", Color: "#e25141"},
	{ID: CategoryServices, Label: "Services", Icon: "wrench", Color: "#e8b974"},
	{ID: CategoryBusinesses, Label: "Businesses", Icon: "store", Color: "#4caf50"},
	{ID: CategoryJobs, Label: "Jobs", Icon: "briefcase", Color: "#9c27b0"},
	{ID: CategoryElectronics, Label: "Electronics", Icon: "smartphone", Color: "#ff9800"},
}

func (c Category) Valid() bool {
	for _, info := range Categories {
		if info.ID == c {
			return true
		}
	}
	return false
}

const (
	ListingStatusActive = "active"
	ListingStatusHidden = "hidden"
)

type ContactInfo struct {
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

func (c ContactInfo) Empty() bool {
	return c.Phone == "" && c.Email == "" && c.WhatsApp == ""
}

type Listing struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Location    string      `json:"location"`
	Category    Category    `json:"category"`
	Images      []string    `json:"images"`
	IsVerified  bool        `json:"is_verified"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Reviews     []Review    `json:"reviews,omitempty"`
	ContactInfo ContactInfo `json:"contact_info"`
	Features    []string    `json:"features,omitempty"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortPriceAsc  ListingSort = "price_asc"
	SortPriceDesc ListingSort = "price_desc"
	SortRating    ListingSort = "rating"
)

type SearchFilters struct {
	Query    string      `json:"query"`
	Category Category    `json:"category,omitempty"`
	Location string      `json:"location,omitempty"`
	MinPrice *float64    `json:"min_price,omitempty"`
	MaxPrice *float64    `json:"max_price,omitempty"`
	Rating   *float64    `json:"rating,omitempty"`
	Verified *bool       `json:"verified,omitempty"`
	Sort     ListingSort `json:"sort,omitempty"`
	Page     int         `json:"page"`
	Limit    int         `json:"limit"`
}

type ListingPage struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	MinPrice float64   `json:"min_price"`
	MaxPrice float64   `json:"max_price"`
}

type ListingInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Location    string      `json:"location"`
	Category    Category    `json:"category"`
	Images      []string    `json:"images"`
	ContactInfo ContactInfo `json:"contact_info"`
	Features    []string    `json:"features"`
}

type ModerationRequest struct {
	IsVerified bool   `json:"is_verified"`
	Status     string `json:"status"`
}
