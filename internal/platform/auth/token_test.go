package auth

import (
	"testing"
	"time"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-secret")

	token, err := issuer.Issue("account-123", "Doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "account-123" {
		t.Errorf("expected subject account-123, got %s", claims.Subject)
	}
	if claims.Role != "Doctor" {
		t.Errorf("expected role Doctor, got %s", claims.Role)
	}
}

func TestTokenIssuer_ExpiryWindow(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-secret")

	token, err := issuer.Issue("account-123", "Patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	window := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if window != time.Hour {
		t.Errorf("expected 1h validity window, got %s", window)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-secret")

	// Issue in the past, verify in the present.
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue("account-123", "Patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").Issue("account-123", "Nurse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b").Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for signature mismatch, got %v", err)
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-secret")

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(tok); err != ErrInvalidToken {
			t.Errorf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}
