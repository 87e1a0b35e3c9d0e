package app

import (
	"context"
	"fmt"

	"reviewpilot/internal/auth"
	"reviewpilot/internal/domain"
)

type AuthService struct {
	store  domain.Store
	google domain.GoogleClient
	tokens *auth.Manager
}

func NewAuthService(store domain.Store, google domain.GoogleClient, tokens *auth.Manager) *AuthService {
	return &AuthService{store: store, google: google, tokens: tokens}
}

// LoginURL returns the Google consent URL the frontend redirects to.
func (s *AuthService) LoginURL() string {
	return s.google.AuthCodeURL("")
}

// HandleCallback exchanges the authorization code, upserts the user keyed on
// email, and issues a bearer token.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (string, domain.User, error) {
	creds, err := s.google.Exchange(ctx, code)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("google exchange: %w", err)
	}

	info, err := s.google.UserInfo(ctx, creds)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("google userinfo: %w", err)
	}
	email, name := mapUserInfo(info)
	if email == "" {
		return "", domain.User{}, domain.ErrNoEmail
	}

	var refresh *string
	if creds.RefreshToken != "" {
		refresh = &creds.RefreshToken
	}
	u, err := s.store.UpsertUserByEmail(ctx, domain.UserUpsert{
		Email:        email,
		Name:         name,
		RefreshToken: refresh,
	})
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := s.tokens.Sign(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// Refresh re-issues a token for a still-valid credential.
func (s *AuthService) Refresh(ctx context.Context, token string) (string, domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", domain.User{}, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", domain.User{}, domain.ErrInvalidToken
	}
	fresh, err := s.tokens.Sign(u.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return fresh, u, nil
}
