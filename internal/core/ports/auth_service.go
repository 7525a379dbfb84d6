package ports

import (
	"context"
	"time"

	"github.com/storefront/shop-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration. Role may be empty.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.UserSummary
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Verify checks an Authorization header value ("Bearer <token>").
	Verify(ctx context.Context, bearer string) (*domain.Claims, error)
	Logout(ctx context.Context, claims *domain.Claims) error
}

// UserService covers the account operations outside login.
type UserService interface {
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	Delete(ctx context.Context, userID string) error
}
