package app_test

import (
	"context"
	"errors"
	"testing"

	"reviewpilot/internal/app"
	"reviewpilot/internal/domain"
)

func connectedUser(id string) domain.User {
	tok := "refresh-token"
	return domain.User{ID: id, Email: id + "@example.com", GoogleRefreshToken: &tok}
}

func TestListAccounts_SyncsFromProvider(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = connectedUser("u1")
	google := &fakeGoogle{accounts: []map[string]any{
		{"name": "accounts/123", "accountName": "Trattoria Uno"},
		{"name": "accounts/456", "accountName": "Trattoria Due"},
		{"accountName": "no id, skipped"},
	}}
	svc := app.NewBusinessService(store, google, nil)

	out, err := svc.ListAccounts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 accounts, got %d: %+v", len(out), out)
	}
	if out[0].GoogleID != "accounts/123" || out[0].Name != "Trattoria Uno" {
		t.Fatalf("unexpected account: %+v", out[0])
	}
}

func TestListAccounts_ProviderOutageServesStoredRows(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = connectedUser("u1")
	store.accounts = []domain.BusinessAccount{
		{ID: "a1", GoogleID: "accounts/123", Name: "Trattoria Uno", UserID: "u1"},
	}
	google := &fakeGoogle{accountsErr: errors.New("503 service unavailable")}
	svc := app.NewBusinessService(store, google, nil)

	out, err := svc.ListAccounts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if len(out) != 1 || out[0].ID != "a1" {
		t.Fatalf("expected stored rows, got %+v", out)
	}
}

func TestListAccounts_DisconnectedUser(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = domain.User{ID: "u1", Email: "u1@example.com"}
	svc := app.NewBusinessService(store, &fakeGoogle{}, nil)

	if _, err := svc.ListAccounts(context.Background(), "u1"); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSyncReviews_UpsertsMappedReviews(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = connectedUser("u1")
	store.accounts = []domain.BusinessAccount{
		{ID: "a1", GoogleID: "accounts/123", Name: "Trattoria Uno", UserID: "u1"},
	}
	google := &fakeGoogle{reviews: []map[string]any{
		{
			"reviewId":   "rev-1",
			"starRating": "FIVE",
			"comment":    "Great pasta",
			"reviewer":   map[string]any{"displayName": "Ana"},
			"createTime": "2026-05-01T12:00:00Z",
		},
		{"starRating": "ONE"}, // no external id, dropped
	}}
	cache := &fakeCache{store: map[string][]byte{}}
	svc := app.NewBusinessService(store, google, cache)

	if err := svc.SyncReviews(context.Background(), "a1", "u1"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected 1 upserted review, got %d", len(store.upserted))
	}
	rv := store.upserted[0]
	if deref(rv.GoogleID) != "rev-1" || rv.Rating != 5 || deref(rv.Author) != "Ana" || rv.AccountID != "a1" {
		t.Fatalf("unexpected review: %+v", rv)
	}
	if len(cache.dels) == 0 {
		t.Fatalf("expected review page invalidation")
	}
}

func TestSyncReviews_ProviderFailureSurfaces(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = connectedUser("u1")
	store.accounts = []domain.BusinessAccount{
		{ID: "a1", GoogleID: "accounts/123", UserID: "u1"},
	}
	google := &fakeGoogle{reviewsErr: errors.New("429 too many requests")}
	svc := app.NewBusinessService(store, google, nil)

	if err := svc.SyncReviews(context.Background(), "a1", "u1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.upserted) != 0 {
		t.Fatalf("reviews upserted despite provider failure")
	}
}

func TestSyncReviews_ForeignAccount(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = connectedUser("u1")
	store.accounts = []domain.BusinessAccount{
		{ID: "a1", GoogleID: "accounts/123", UserID: "someone-else"},
	}
	svc := app.NewBusinessService(store, &fakeGoogle{}, nil)

	if err := svc.SyncReviews(context.Background(), "a1", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
