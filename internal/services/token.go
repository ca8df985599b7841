package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken covers bad signatures, expiry, malformed subjects and
// tokens of the wrong class.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims are the claims carried by both access and refresh tokens.
// The subject is the decimal user id.
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService issues and verifies HS256 JWTs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) IssueAccess(userID int) (string, error) {
	return s.issue(userID, TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) IssueRefresh(userID int) (string, error) {
	return s.issue(userID, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) IssuePair(userID int) (TokenPair, error) {
	access, err := s.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks the signature, expiry and class of token and returns the
// user id it was issued for. Access tokens are required unless
// requireRefresh is set, in which case only refresh tokens pass.
func (s *TokenService) Verify(token string, requireRefresh bool) (int, error) {
	want := TokenTypeAccess
	if requireRefresh {
		want = TokenTypeRefresh
	}

	claims := TokenClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Type != want {
		return 0, fmt.Errorf("%w: expected %s token", ErrInvalidToken, want)
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}
	return userID, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself stays valid until it expires.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	userID, err := s.Verify(refreshToken, true)
	if err != nil {
		return "", err
	}
	return s.IssueAccess(userID)
}

func (s *TokenService) issue(userID int, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
