package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/pkg/logger"
)

// Context keys set by Auth.
const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenVerifier resolves an Authorization header into claims.
type TokenVerifier interface {
	Verify(ctx context.Context, bearer string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects its claims into the context.
// Verification errors are returned as-is so the central error handler maps
// them to 401.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifier.Verify(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.SetRequest(c.Request().WithContext(logger.WithUserID(c.Request().Context(), claims.UserID)))

			return next(c)
		}
	}
}
