package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpilot/internal/domain"
)

type BillingService struct {
	store    domain.Store
	provider domain.BillingProvider
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewBillingService(store domain.Store, provider domain.BillingProvider, cache domain.Cache, ttl time.Duration) *BillingService {
	return &BillingService{store: store, provider: provider, cache: cache, cacheTTL: ttl}
}

func subStatusKey(userID string) string { return "sub:" + userID }

// HandleWebhook verifies the signature over the raw payload and applies the
// event. Verification failures must leave the store untouched; failures after
// verification surface to the provider, which redelivers — every mutation is
// a plain "set", so re-running the same event is safe.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		return err
	}
	return s.apply(ctx, ev)
}

func (s *BillingService) apply(ctx context.Context, ev domain.BillingEvent) error {
	switch e := ev.(type) {
	case domain.CheckoutCompleted:
		if e.UserID == "" || e.Plan == "" {
			log.Info().Msg("checkout completed without metadata, skipping")
			return nil
		}
		if err := s.store.SetSubscriptionPlan(ctx, e.UserID, domain.SubStatusActive, e.Plan); err != nil {
			return err
		}
		s.invalidate(ctx, e.UserID)
		log.Info().Str("user", e.UserID).Str("plan", e.Plan).Msg("subscription activated")
		return nil

	case domain.SubscriptionUpdated:
		userID, err := s.resolve(ctx, e.CustomerID)
		if err != nil || userID == "" {
			return err
		}
		if err := s.store.SetSubscriptionState(ctx, userID, e.Status, e.PeriodEnd); err != nil {
			return err
		}
		s.invalidate(ctx, userID)
		log.Info().Str("user", userID).Str("status", e.Status).Msg("subscription updated")
		return nil

	case domain.SubscriptionDeleted:
		userID, err := s.resolve(ctx, e.CustomerID)
		if err != nil || userID == "" {
			return err
		}
		now := time.Now().UTC()
		if err := s.store.SetSubscriptionState(ctx, userID, domain.SubStatusCanceled, &now); err != nil {
			return err
		}
		s.invalidate(ctx, userID)
		log.Info().Str("user", userID).Msg("subscription canceled")
		return nil

	case domain.PaymentFailed:
		userID, err := s.resolve(ctx, e.CustomerID)
		if err != nil || userID == "" {
			return err
		}
		if err := s.store.SetSubscriptionStatus(ctx, userID, domain.SubStatusPastDue); err != nil {
			return err
		}
		s.invalidate(ctx, userID)
		log.Info().Str("user", userID).Msg("payment failed, subscription past due")
		return nil

	case domain.UnhandledEvent:
		log.Info().Str("type", e.Type).Msg("unhandled billing event")
		return nil
	}
	return fmt.Errorf("unknown billing event %T", ev)
}

// resolve maps a billing customer to a user id via provider metadata.
// "" means the customer is unknown to us and the event is a no-op.
func (s *BillingService) resolve(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", nil
	}
	return s.provider.CustomerUserID(ctx, customerID)
}

func (s *BillingService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, subStatusKey(userID))
	}
}

func (s *BillingService) Status(ctx context.Context, userID string) (domain.SubscriptionView, error) {
	key := subStatusKey(userID)
	var v domain.SubscriptionView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &v); ok {
			return v, nil
		}
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.SubscriptionView{}, err
	}
	v = domain.SubscriptionView{
		HasActiveSubscription: u.SubscriptionStatus == domain.SubStatusActive,
		Plan:                  u.SubscriptionPlan,
		Status:                u.SubscriptionStatus,
		EndsAt:                u.SubscriptionEndsAt,
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
	return v, nil
}

// CreateCheckout provisions a billing customer on first use and returns the
// hosted checkout URL. Two concurrent first-time requests for one user can
// each create a customer; the second SetStripeCustomerID wins.
func (s *BillingService) CreateCheckout(ctx context.Context, userID, priceID, plan string) (string, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if u.StripeCustomerID != nil {
		customerID = *u.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(ctx, u.Email, u.Name, u.ID)
		if err != nil {
			return "", err
		}
		if err := s.store.SetStripeCustomerID(ctx, u.ID, customerID); err != nil {
			return "", err
		}
	}

	return s.provider.NewCheckoutSession(ctx, domain.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Plan:       plan,
		UserID:     u.ID,
	})
}

func (s *BillingService) CreatePortal(ctx context.Context, userID string) (string, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.StripeCustomerID == nil || *u.StripeCustomerID == "" {
		return "", domain.ErrNoSubscription
	}
	return s.provider.NewPortalSession(ctx, *u.StripeCustomerID)
}
