package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reviewpilot/internal/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ReviewService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewReviewService(store domain.Store, cache domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{store: store, cache: cache, cacheTTL: ttl}
}

func reviewsKey(userID, accountID string, page, limit int) string {
	return fmt.Sprintf("reviews:%s:%s:%d:%d", userID, accountID, page, limit)
}

// invalidateReviewPages drops the most common cached page variants for a
// user/account after a write. First pages at the default limit are the ones
// the dashboard reads.
func invalidateReviewPages(ctx context.Context, cache domain.Cache, userID, accountID string) {
	if cache == nil {
		return
	}
	for _, acct := range []string{"", accountID} {
		for page := 1; page <= 3; page++ {
			_ = cache.Del(ctx, reviewsKey(userID, acct, page, defaultPageLimit))
		}
	}
}

func (s *ReviewService) ListReviews(ctx context.Context, q domain.ReviewsQuery) (domain.ReviewsPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}

	accountID := ""
	if q.AccountID != nil {
		accountID = *q.AccountID
	}
	key := reviewsKey(q.UserID, accountID, q.Page, q.Limit)

	var out domain.ReviewsPage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	items, total, err := s.store.ListReviews(ctx, q)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	out = domain.ReviewsPage{
		Items: items,
		Pagination: domain.Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: (total + q.Limit - 1) / q.Limit,
		},
	}

	// size guard: never cache pathological pages
	if s.cache != nil {
		if b, _ := json.Marshal(out); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
		}
	}
	return out, nil
}

// Respond appends a response row to an owned review. Multiple responses per
// review are allowed.
func (s *ReviewService) Respond(ctx context.Context, reviewID, userID, text string, publish bool) (domain.ReviewResponse, error) {
	rv, err := s.store.GetReview(ctx, reviewID, userID)
	if err != nil {
		return domain.ReviewResponse{}, err
	}

	now := time.Now().UTC()
	rr := domain.ReviewResponse{
		ID:           uuid.New().String(),
		ReviewID:     rv.ID,
		UserID:       userID,
		ResponseText: text,
		IsPublished:  publish,
		CreatedAt:    now,
	}
	if publish {
		rr.PublishedAt = &now
	}
	if err := s.store.CreateResponse(ctx, rr); err != nil {
		return domain.ReviewResponse{}, err
	}
	invalidateReviewPages(ctx, s.cache, userID, rv.AccountID)
	return rr, nil
}
