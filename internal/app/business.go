package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"reviewpilot/internal/domain"
)

type BusinessService struct {
	store  domain.Store
	google domain.GoogleClient
	cache  domain.Cache
}

func NewBusinessService(store domain.Store, google domain.GoogleClient, cache domain.Cache) *BusinessService {
	return &BusinessService{store: store, google: google, cache: cache}
}

// ListAccounts reconciles the user's cached business accounts with the
// provider's list, then serves from the store. A provider failure is logged
// and degrades to the previously cached rows; it never fails the request.
func (s *BusinessService) ListAccounts(ctx context.Context, userID string) ([]domain.BusinessAccount, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Connected() {
		return nil, domain.ErrNotConnected
	}

	raw, err := s.google.ListAccounts(ctx, *u.GoogleRefreshToken)
	if err != nil {
		log.Warn().Str("user", userID).Err(err).Msg("account listing failed, serving cached accounts")
		return s.store.ListAccounts(ctx, userID)
	}

	for _, m := range raw {
		a, ok := mapAccount(userID, m)
		if !ok {
			continue // accounts without id and display name are skipped
		}
		if err := s.store.UpsertAccount(ctx, a); err != nil {
			return nil, fmt.Errorf("upsert account %s: %w", a.GoogleID, err)
		}
	}
	return s.store.ListAccounts(ctx, userID)
}

// SyncReviews pulls the account's reviews from the provider and upserts them
// keyed on the external review id. Unlike account listing this surfaces
// provider failures; the caller retries.
func (s *BusinessService) SyncReviews(ctx context.Context, accountID, userID string) error {
	acct, err := s.store.GetAccount(ctx, accountID, userID)
	if err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Connected() {
		return domain.ErrNotConnected
	}

	raw, err := s.google.ListReviews(ctx, *u.GoogleRefreshToken, acct.GoogleID)
	if err != nil {
		return fmt.Errorf("list reviews for %s: %w", acct.GoogleID, err)
	}

	rs := mapReviews(acct.ID, raw)
	if len(rs) > 0 {
		if err := s.store.UpsertReviews(ctx, rs); err != nil {
			return fmt.Errorf("upsert reviews for %s: %w", acct.ID, err)
		}
	}
	invalidateReviewPages(ctx, s.cache, userID, acct.ID)
	log.Info().Str("account", acct.ID).Int("reviews", len(rs)).Msg("reviews synced")
	return nil
}
