package services

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)

	token, err := svc.IssueAccess(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := svc.Verify(token, false)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected 42, got %d", userID)
	}
}

func TestTokenService_ClassIsEnforced(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)

	pair, err := svc.IssuePair(7)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := svc.Verify(pair.AccessToken, true); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not pass as refresh, got %v", err)
	}
	if _, err := svc.Verify(pair.RefreshToken, false); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
	if id, err := svc.Verify(pair.RefreshToken, true); err != nil || id != 7 {
		t.Fatalf("refresh verify: id=%d err=%v", id, err)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	issuedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.IssueAccess(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	if _, err := svc.Verify(token, false); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	if _, err := svc.Verify(token, false); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)
	other := NewTokenService("other-secret", time.Hour, 24*time.Hour)

	foreign, err := other.IssueAccess(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Type:             TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, TokenClaims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(1),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"other secret": foreign,
		"no expiry":    noExpiry,
		"bad subject":  badSubject,
		"wrong alg":    wrongAlg,
		"garbage":      "not-a-token",
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(token, false); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenService_Refresh(t *testing.T) {
	svc := NewTokenService("secret", time.Hour, 24*time.Hour)

	refresh, err := svc.IssueRefresh(9)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	access, err := svc.Refresh(refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if id, err := svc.Verify(access, false); err != nil || id != 9 {
		t.Fatalf("minted access token: id=%d err=%v", id, err)
	}

	// The refresh token is not rotated.
	if _, err := svc.Refresh(refresh); err != nil {
		t.Fatalf("refresh token should remain usable: %v", err)
	}

	if _, err := svc.Refresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}

func TestNewTokenServiceDefaults(t *testing.T) {
	svc := NewTokenService("secret", 0, 0)
	if svc.accessTTL != time.Hour || svc.refreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected defaults: %s %s", svc.accessTTL, svc.refreshTTL)
	}
}
