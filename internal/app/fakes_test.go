package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"reviewpilot/internal/domain"
)

// ---- fakes ----

type subWrite struct {
	userID string
	status string
	plan   string
	endsAt *time.Time
}

type fakeStore struct {
	users    map[string]domain.User
	accounts []domain.BusinessAccount
	reviews  []domain.Review
	total    int

	subWrites  []subWrite
	customerID map[string]string
	analyses   map[string]domain.Analysis
	responses  []domain.ReviewResponse
	upserted   []domain.Review

	listAccountsErr error
	getReviewErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[string]domain.User{},
		customerID: map[string]string{},
		analyses:   map[string]domain.Analysis{},
	}
}

func (f *fakeStore) UpsertUserByEmail(ctx context.Context, u domain.UserUpsert) (domain.User, error) {
	for _, ex := range f.users {
		if ex.Email == u.Email {
			ex.Name = u.Name
			if u.RefreshToken != nil {
				ex.GoogleRefreshToken = u.RefreshToken
			}
			f.users[ex.ID] = ex
			return ex, nil
		}
	}
	nu := domain.User{ID: "u-" + u.Email, Email: u.Email, Name: u.Name, GoogleRefreshToken: u.RefreshToken, SubscriptionStatus: domain.SubStatusNone}
	f.users[nu.ID] = nu
	return nu, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) ListConnectedUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Connected() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	f.customerID[userID] = customerID
	if u, ok := f.users[userID]; ok {
		u.StripeCustomerID = &customerID
		f.users[userID] = u
	}
	return nil
}

func (f *fakeStore) SetSubscriptionPlan(ctx context.Context, userID, status, plan string) error {
	f.subWrites = append(f.subWrites, subWrite{userID: userID, status: status, plan: plan})
	return nil
}

func (f *fakeStore) SetSubscriptionStatus(ctx context.Context, userID, status string) error {
	f.subWrites = append(f.subWrites, subWrite{userID: userID, status: status})
	return nil
}

func (f *fakeStore) SetSubscriptionState(ctx context.Context, userID, status string, endsAt *time.Time) error {
	f.subWrites = append(f.subWrites, subWrite{userID: userID, status: status, endsAt: endsAt})
	return nil
}

func (f *fakeStore) UpsertAccount(ctx context.Context, a domain.BusinessAccount) error {
	for i, ex := range f.accounts {
		if ex.GoogleID == a.GoogleID {
			f.accounts[i].Name = a.Name
			return nil
		}
	}
	if a.ID == "" {
		a.ID = "acct-" + a.GoogleID
	}
	f.accounts = append(f.accounts, a)
	return nil
}

func (f *fakeStore) ListAccounts(ctx context.Context, userID string) ([]domain.BusinessAccount, error) {
	if f.listAccountsErr != nil {
		return nil, f.listAccountsErr
	}
	var out []domain.BusinessAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id, userID string) (domain.BusinessAccount, error) {
	for _, a := range f.accounts {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return domain.BusinessAccount{}, domain.ErrNotFound
}

func (f *fakeStore) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	f.upserted = append(f.upserted, rs...)
	return nil
}

func (f *fakeStore) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, int, error) {
	start := (q.Page - 1) * q.Limit
	if start >= len(f.reviews) {
		return nil, f.total, nil
	}
	end := start + q.Limit
	if end > len(f.reviews) {
		end = len(f.reviews)
	}
	return f.reviews[start:end], f.total, nil
}

func (f *fakeStore) GetReview(ctx context.Context, id, userID string) (domain.Review, error) {
	if f.getReviewErr != nil {
		return domain.Review{}, f.getReviewErr
	}
	for _, rv := range f.reviews {
		if rv.ID == id {
			return rv, nil
		}
	}
	return domain.Review{}, domain.ErrNotFound
}

func (f *fakeStore) SetReviewAnalysis(ctx context.Context, reviewID string, a domain.Analysis) error {
	f.analyses[reviewID] = a
	return nil
}

func (f *fakeStore) CreateResponse(ctx context.Context, rr domain.ReviewResponse) error {
	f.responses = append(f.responses, rr)
	return nil
}

type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeGoogle struct {
	accounts    []map[string]any
	reviews     []map[string]any
	accountsErr error
	reviewsErr  error
	userInfo    map[string]any
	creds       domain.Credentials
}

func (g *fakeGoogle) AuthCodeURL(state string) string { return "https://accounts.example/consent" }
func (g *fakeGoogle) Exchange(ctx context.Context, code string) (domain.Credentials, error) {
	if code == "bad" {
		return domain.Credentials{}, errors.New("invalid_grant")
	}
	return g.creds, nil
}
func (g *fakeGoogle) UserInfo(ctx context.Context, c domain.Credentials) (map[string]any, error) {
	return g.userInfo, nil
}
func (g *fakeGoogle) ListAccounts(ctx context.Context, refreshToken string) ([]map[string]any, error) {
	return g.accounts, g.accountsErr
}
func (g *fakeGoogle) ListReviews(ctx context.Context, refreshToken, accountGoogleID string) ([]map[string]any, error) {
	return g.reviews, g.reviewsErr
}

type fakeOracle struct {
	reply string
	err   error
	calls int
}

func (o *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	o.calls++
	return o.reply, o.err
}

type fakeProvider struct {
	event      domain.BillingEvent
	verifyErr  error
	userByCust map[string]string
	resolveErr error

	createdCustomers int
	checkoutParams   *domain.CheckoutParams
}

func (p *fakeProvider) VerifyEvent(payload []byte, signature string) (domain.BillingEvent, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.event, nil
}

func (p *fakeProvider) CustomerUserID(ctx context.Context, customerID string) (string, error) {
	if p.resolveErr != nil {
		return "", p.resolveErr
	}
	return p.userByCust[customerID], nil
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, email string, name *string, userID string) (string, error) {
	p.createdCustomers++
	return "cus_new", nil
}

func (p *fakeProvider) NewCheckoutSession(ctx context.Context, cp domain.CheckoutParams) (string, error) {
	p.checkoutParams = &cp
	return "https://checkout.example/session", nil
}

func (p *fakeProvider) NewPortalSession(ctx context.Context, customerID string) (string, error) {
	return "https://billing.example/portal/" + customerID, nil
}

// ---- helpers ----

func ptr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
