package auth_test

import (
	"errors"
	"testing"

	"reviewpilot/internal/auth"
	"reviewpilot/internal/domain"
)

func TestSignAndVerify(t *testing.T) {
	m := auth.NewManager("secret-a")

	tok, err := m.Sign("u1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	userID, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := auth.NewManager("secret-a").Sign("u1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.NewManager("secret-b").Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := auth.NewManager("secret-a")
	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := m.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

// Tokens signed with "none" must never verify even when the payload is sane.
func TestVerify_UnsignedAlgRejected(t *testing.T) {
	m := auth.NewManager("secret-a")
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VySWQiOiJ1MSJ9."
	if _, err := m.Verify(unsigned); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
