package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/shop-api/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

var errEmptySecret = errors.New("security: jwt secret is empty")

// accessClaims is the JWT payload for access tokens.
type accessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTSigner issues HS256 access tokens.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption customises a JWTSigner.
type SignerOption func(*JWTSigner)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) SignerOption {
	return func(s *JWTSigner) { s.now = now }
}

func NewJWTSigner(secret string, ttl time.Duration, opts ...SignerOption) *JWTSigner {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &JWTSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign embeds the identity fields of c, a fresh token id and an expiry.
func (s *JWTSigner) Sign(c domain.Claims) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errEmptySecret
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := accessClaims{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry and returns the identity.
// Tokens without a subject or token id are rejected since they could not be
// revoked.
func (s *JWTSigner) Verify(token string) (*domain.Claims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	out := &domain.Claims{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
