package domain

import "time"

// BillingEvent is the tagged union of provider webhook events we act on.
// The stripebilling adapter narrows raw payloads into one of these variants;
// the billing service only ever sees typed events.
type BillingEvent interface{ billingEvent() }

// CheckoutCompleted carries the metadata we attached when the checkout
// session was created.
type CheckoutCompleted struct {
	UserID string
	Plan   string
}

type SubscriptionUpdated struct {
	CustomerID string
	Status     string
	PeriodEnd  *time.Time
}

type SubscriptionDeleted struct {
	CustomerID string
}

type PaymentFailed struct {
	CustomerID string
}

// UnhandledEvent is anything else the provider sends; logged, never acted on.
type UnhandledEvent struct {
	Type string
}

func (CheckoutCompleted) billingEvent()   {}
func (SubscriptionUpdated) billingEvent() {}
func (SubscriptionDeleted) billingEvent() {}
func (PaymentFailed) billingEvent()       {}
func (UnhandledEvent) billingEvent()      {}

// SubscriptionView is the read model behind GET /subscriptions/status.
type SubscriptionView struct {
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	Plan                  *string    `json:"plan"`
	Status                string     `json:"status"`
	EndsAt                *time.Time `json:"endsAt"`
}

// CheckoutParams scopes a hosted checkout session to an existing billing
// customer. UserID and Plan ride along as metadata and come back to us in
// the CheckoutCompleted webhook.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	Plan       string
	UserID     string
}
