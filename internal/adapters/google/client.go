package google

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"reviewpilot/internal/domain"
)

const (
	defaultAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL     = "https://oauth2.googleapis.com/token"
	defaultUserInfoBase = "https://www.googleapis.com/oauth2/v2"
	defaultAccountsBase = "https://mybusinessaccountmanagement.googleapis.com/v1"
	defaultReviewsBase  = "https://mybusiness.googleapis.com/v4"
)

var scopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/business.manage",
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RPS          int

	// Overridable for tests; zero values mean production endpoints.
	AuthURL      string
	TokenURL     string
	UserInfoBase string
	AccountsBase string
	ReviewsBase  string
}

type Client struct {
	oauth        *oauth2.Config
	hc           *http.Client
	rl           *rate.Limiter
	userInfoBase string
	accountsBase string
	reviewsBase  string
}

func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google client id and secret are required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoBase == "" {
		cfg.UserInfoBase = defaultUserInfoBase
	}
	if cfg.AccountsBase == "" {
		cfg.AccountsBase = defaultAccountsBase
	}
	if cfg.ReviewsBase == "" {
		cfg.ReviewsBase = defaultReviewsBase
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL},
		},
		hc:           &http.Client{Timeout: 20 * time.Second},
		rl:           rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
		userInfoBase: cfg.UserInfoBase,
		accountsBase: cfg.AccountsBase,
		reviewsBase:  cfg.ReviewsBase,
	}, nil
}

// ---- Public API ----

// AuthCodeURL asks for offline access with a forced consent screen so Google
// returns a refresh token on every connect.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (c *Client) Exchange(ctx context.Context, code string) (domain.Credentials, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("code exchange: %w", err)
	}
	return domain.Credentials{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

func (c *Client) UserInfo(ctx context.Context, cr domain.Credentials) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, c.userInfoBase+"/userinfo", cr.AccessToken, &out)
	return out, err
}

func (c *Client) ListAccounts(ctx context.Context, refreshToken string) ([]map[string]any, error) {
	access, err := c.accessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	var out struct {
		Accounts []map[string]any `json:"accounts"`
	}
	if err := c.get(ctx, c.accountsBase+"/accounts", access, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

func (c *Client) ListReviews(ctx context.Context, refreshToken, accountGoogleID string) ([]map[string]any, error) {
	access, err := c.accessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	var out struct {
		Reviews []map[string]any `json:"reviews"`
	}
	url := fmt.Sprintf("%s/%s/locations/-/reviews", c.reviewsBase, accountGoogleID)
	if err := c.get(ctx, url, access, &out); err != nil {
		return nil, err
	}
	return out.Reviews, nil
}

// accessToken derives a short-lived access token from the stored refresh
// credential.
func (c *Client) accessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrNotConnected
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.hc)
	ts := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return tok.AccessToken, nil
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("google: not found")
	ErrUnauthorized = errors.New("google: unauthorized")
	ErrForbidden    = errors.New("google: forbidden")
)

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url, accessToken string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "reviewpilot/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
