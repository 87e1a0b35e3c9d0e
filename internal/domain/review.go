package domain

import "time"

type Review struct {
	ID         string
	AccountID  string
	GoogleID   *string
	Author     *string
	Rating     int // 1..5
	Text       *string
	ReviewDate time.Time

	// Derived fields; either all nil or all set (one atomic update).
	Sentiment         *string
	KeyTopics         []string
	UrgencyScore      *float64
	SuggestedResponse *string
}

// Analyzed reports whether the derived fields are already populated,
// in which case the analyzer must not call the oracle again.
func (r Review) Analyzed() bool {
	return r.Sentiment != nil && *r.Sentiment != "" &&
		r.SuggestedResponse != nil && *r.SuggestedResponse != ""
}

// Analysis is the oracle's structured verdict, persisted as a unit.
type Analysis struct {
	Sentiment         string
	KeyTopics         []string
	UrgencyScore      float64
	SuggestedResponse string
}

type ReviewResponse struct {
	ID           string
	ReviewID     string
	UserID       string
	ResponseText string
	IsPublished  bool
	PublishedAt  *time.Time
	CreatedAt    time.Time
}

type ReviewsQuery struct {
	UserID    string
	AccountID *string
	Page      int
	Limit     int
}

type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

type ReviewsPage struct {
	Items      []Review
	Pagination Pagination
}
