package models

type DashboardCard struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
	Path        string `json:"path"`
	Count       *int   `json:"count,omitempty"`
}

type Dashboard struct {
	Role     Role            `json:"role"`
	Greeting string          `json:"greeting"`
	Tagline  string          `json:"tagline"`
	Cards    []DashboardCard `json:"cards"`
}

// DashboardStats holds the counters shown on dashboard cards.
type DashboardStats struct {
	SavedListings   int
	InquiriesSent   int
	OwnedListings   int
	ReviewsReceived int
	Users           int
	PendingListings int
}
