package domain

import (
	"context"
	"time"
)

type Store interface {
	// Users
	UpsertUserByEmail(ctx context.Context, u UserUpsert) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListConnectedUsers(ctx context.Context) ([]User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error

	// Subscription writes; every one is an idempotent "set" so webhook
	// redelivery is safe.
	SetSubscriptionPlan(ctx context.Context, userID, status, plan string) error
	SetSubscriptionStatus(ctx context.Context, userID, status string) error
	SetSubscriptionState(ctx context.Context, userID, status string, endsAt *time.Time) error

	// Business accounts, upsert keyed on the Google id.
	UpsertAccount(ctx context.Context, a BusinessAccount) error
	ListAccounts(ctx context.Context, userID string) ([]BusinessAccount, error)
	GetAccount(ctx context.Context, id, userID string) (BusinessAccount, error)

	// Reviews
	UpsertReviews(ctx context.Context, rs []Review) error
	ListReviews(ctx context.Context, q ReviewsQuery) ([]Review, int, error)
	GetReview(ctx context.Context, id, userID string) (Review, error)
	SetReviewAnalysis(ctx context.Context, reviewID string, a Analysis) error
	CreateResponse(ctx context.Context, rr ReviewResponse) error
}

// GoogleClient fronts OAuth and the Business Profile API. List calls return
// raw JSON objects; app-level mappers narrow them to domain types.
type GoogleClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Credentials, error)
	UserInfo(ctx context.Context, c Credentials) (map[string]any, error)
	ListAccounts(ctx context.Context, refreshToken string) ([]map[string]any, error)
	ListReviews(ctx context.Context, refreshToken, accountGoogleID string) ([]map[string]any, error)
}

type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Oracle maps a prompt to a raw text completion. Single attempt, no retries;
// callers own parsing.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type BillingProvider interface {
	// VerifyEvent checks the signature over the exact raw body and narrows
	// the payload into a BillingEvent. Bad signature -> ErrSignatureInvalid.
	VerifyEvent(payload []byte, signature string) (BillingEvent, error)

	// CustomerUserID resolves a billing customer to our user id via the
	// customer's metadata. Returns "" when unresolvable.
	CustomerUserID(ctx context.Context, customerID string) (string, error)

	CreateCustomer(ctx context.Context, email string, name *string, userID string) (string, error)
	NewCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	NewPortalSession(ctx context.Context, customerID string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
