// Package token mints and validates the signed access/refresh token pair.
// Tokens are self-contained HS256 JWTs; validity is determined entirely by
// signature and expiry, no server-side session state.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the token_type claim
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Validation errors. Each failure mode is distinct and never coerced
// into another.
var (
	// ErrInvalidSignature indicates a token that is malformed or whose
	// signature does not verify against the service secret
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates a well-signed token past its expiry instant.
	// The boundary is exclusive: a token checked exactly at exp fails.
	ErrExpired = errors.New("token expired")

	// ErrWrongKind indicates a valid token presented where the other
	// kind was required (refresh as access or vice versa)
	ErrWrongKind = errors.New("wrong token kind")
)

// Claims is the signed payload of both token kinds
type Claims struct {
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Pair bundles a freshly issued access and refresh token
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

// Service issues and validates token pairs. It is stateless beyond the
// signing secret and the configured lifetimes.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a token service.
// secret must be a non-empty, cryptographically random value.
func NewService(secret []byte, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints a new access/refresh pair for userID.
// Nothing is persisted; both tokens carry a fresh jti.
func (s *Service) IssuePair(userID string) (*Pair, error) {
	access, err := s.sign(userID, KindAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.sign(userID, KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Validate verifies the signature, expiry, and kind of tokenString.
// Fails with ErrInvalidSignature, ErrExpired, or ErrWrongKind.
func (s *Service) Validate(tokenString, expectedKind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		// Expiry is only reported once the signature verified
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.TokenType != expectedKind {
		return nil, ErrWrongKind
	}

	return claims, nil
}

// Refresh validates a refresh token and issues a brand-new pair.
// The presented token's claims are returned so callers can consult the
// revocation denylist by jti. The old refresh token itself is not
// invalidated here and stays usable until its natural expiry.
func (s *Service) Refresh(refreshToken string) (*Pair, *Claims, error) {
	claims, err := s.Validate(refreshToken, KindRefresh)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.IssuePair(claims.Subject)
	if err != nil {
		return nil, nil, err
	}

	return pair, claims, nil
}

// sign builds and signs one token of the given kind
func (s *Service) sign(userID, kind string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}
