package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
	"github.com/storefront/shop-api/internal/pkg/metrics"
)

// AuthService implements registration, login and token verification.
type AuthService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	signer  ports.TokenSigner
	revoked ports.TokenRevoker
	log     zerolog.Logger

	// decoyHash is compared against when the email is unknown so both
	// failure paths pay for one bcrypt comparison.
	decoyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	signer ports.TokenSigner,
	revoked ports.TokenRevoker,
	log zerolog.Logger,
) (*AuthService, error) {
	decoy, err := hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare decoy hash: %w", err)
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		signer:    signer,
		revoked:   revoked,
		log:       log,
		decoyHash: decoy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.Invalid("name, email and password are required")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, domain.Invalid("role must be one of: admin, user")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failed").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "ok").Inc()
	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login never tells the caller whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.hasher.Compare(password, s.decoyHash)
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.signer.Sign(domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: user.Summary()}, nil
}

// Verify accepts the raw Authorization header value.
func (s *AuthService) Verify(ctx context.Context, bearer string) (*domain.Claims, error) {
	token, ok := bearerToken(bearer)
	if !ok {
		metrics.AuthAttemptsTotal.WithLabelValues("verify", "failed").Inc()
		return nil, domain.ErrMissingToken
	}

	claims, err := s.signer.Verify(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		metrics.AuthAttemptsTotal.WithLabelValues("verify", "failed").Inc()
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verify: revocation lookup: %w", err)
	}
	if revoked {
		metrics.AuthAttemptsTotal.WithLabelValues("verify", "failed").Inc()
		return nil, domain.ErrInvalidToken
	}

	metrics.AuthAttemptsTotal.WithLabelValues("verify", "ok").Inc()
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *domain.Claims) error {
	if claims == nil || claims.TokenID == "" {
		return domain.ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("logout", "ok").Inc()
	s.log.Info().Str("user_id", claims.UserID).Msg("token revoked")
	return nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
