package domain

import "time"

type PostCategory string

const (
	CategoryExperience PostCategory = "experience"
	CategorySafe       PostCategory = "safe"
	CategoryWarning    PostCategory = "warning"
	CategoryInfo       PostCategory = "info"
)

func (c PostCategory) Valid() bool {
	switch c {
	case CategoryExperience, CategorySafe, CategoryWarning, CategoryInfo:
		return true
	}
	return false
}

type CommunityPost struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	UserName     string       `json:"user_name"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	LocationName string       `json:"location_name"`
	Category     PostCategory `json:"category"`
	Likes        int          `json:"likes"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FeedbackFeatures are the features a user can mark as helpful.
var FeedbackFeatures = []string{
	"SOS Signal", "Chatbot Assistance", "Hotel Suggestions", "Nearby Resources", "Live Location",
}

type Feedback struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	Rating          int       `json:"rating"`
	HelpfulFeatures []string  `json:"helpful_features"`
	Comments        string    `json:"comments"`
	CreatedAt       time.Time `json:"created_at"`
}

type FeedbackSummary struct {
	Count         int        `json:"count"`
	AverageRating float64    `json:"average_rating"`
	Items         []Feedback `json:"items"`
}
