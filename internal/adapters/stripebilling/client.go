package stripebilling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"reviewpilot/internal/domain"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
}

// Client wraps the Stripe SDK behind the domain.BillingProvider port.
// Constructed once at startup and injected; no package-global API key.
type Client struct {
	sc            *client.API
	webhookSecret string
	frontendURL   string
}

func New(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Client{
		sc:            sc,
		webhookSecret: cfg.WebhookSecret,
		frontendURL:   cfg.FrontendURL,
	}, nil
}

// VerifyEvent checks the Stripe-Signature header over the exact raw body and
// narrows the payload into the domain event union. Payload shapes are decoded
// from the raw JSON directly so SDK struct drift across API versions cannot
// change what we read off the wire.
func (c *Client) VerifyEvent(payload []byte, signature string) (domain.BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var obj struct {
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		return domain.CheckoutCompleted{
			UserID: obj.Metadata["userId"],
			Plan:   obj.Metadata["plan"],
		}, nil

	case "customer.subscription.updated":
		var obj struct {
			Customer         string `json:"customer"`
			Status           string `json:"status"`
			CurrentPeriodEnd int64  `json:"current_period_end"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		ev := domain.SubscriptionUpdated{CustomerID: obj.Customer, Status: obj.Status}
		if obj.CurrentPeriodEnd > 0 {
			t := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
			ev.PeriodEnd = &t
		}
		return ev, nil

	case "customer.subscription.deleted":
		var obj struct {
			Customer string `json:"customer"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		return domain.SubscriptionDeleted{CustomerID: obj.Customer}, nil

	case "invoice.payment_failed":
		var obj struct {
			Customer string `json:"customer"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		return domain.PaymentFailed{CustomerID: obj.Customer}, nil
	}

	return domain.UnhandledEvent{Type: string(event.Type)}, nil
}

// CustomerUserID reads our user id back off the customer's metadata.
// A deleted customer or absent metadata resolves to "".
func (c *Client) CustomerUserID(ctx context.Context, customerID string) (string, error) {
	cust, err := c.sc.Customers.Get(customerID, &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", fmt.Errorf("retrieve customer %s: %w", customerID, err)
	}
	if cust == nil || cust.Deleted {
		return "", nil
	}
	return cust.Metadata["userId"], nil
}

func (c *Client) CreateCustomer(ctx context.Context, email string, name *string, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Params:   stripe.Params{Context: ctx},
		Email:    stripe.String(email),
		Metadata: map[string]string{"userId": userID},
	}
	if name != nil {
		params.Name = name
	}
	cust, err := c.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

func (c *Client) NewCheckoutSession(ctx context.Context, p domain.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(p.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.frontendURL + "/dashboard?success=true"),
		CancelURL:  stripe.String(c.frontendURL + "/pricing?canceled=true"),
		Metadata: map[string]string{
			"userId": p.UserID,
			"plan":   p.Plan,
		},
	}
	sess, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (c *Client) NewPortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.frontendURL + "/dashboard"),
	}
	sess, err := c.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}
