package domain

import "time"

// Subscription statuses written by the billing service. Webhook
// subscription-updated events store the provider's literal status string,
// so the column is free text; these are the values we reason about.
const (
	SubStatusNone     = "none"
	SubStatusActive   = "active"
	SubStatusPastDue  = "past_due"
	SubStatusCanceled = "canceled"
)

type User struct {
	ID                 string
	Email              string
	Name               *string
	GoogleRefreshToken *string
	StripeCustomerID   *string
	SubscriptionStatus string
	SubscriptionPlan   *string
	SubscriptionEndsAt *time.Time
}

// UserUpsert is the write model for login: users are created or refreshed
// keyed on email.
type UserUpsert struct {
	Email        string
	Name         *string
	RefreshToken *string // kept when nil (Google only returns it on consent)
}

func (u User) Connected() bool {
	return u.GoogleRefreshToken != nil && *u.GoogleRefreshToken != ""
}
