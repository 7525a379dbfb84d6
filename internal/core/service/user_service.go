package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/shop-api/internal/core/domain"
	"github.com/storefront/shop-api/internal/core/ports"
)

// UserService handles password changes and account removal.
type UserService struct {
	repo   ports.UserRepository
	carts  ports.CartRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, carts ports.CartRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, carts: carts, hasher: hasher, log: log}
}

// ChangePassword requires the current password and stores a fresh hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return domain.Invalid("new password is required")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Time("at", time.Now().UTC()).Msg("password changed")
	return nil
}

// Delete removes the account and, best effort, its cart.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.carts.DeleteByUserID(ctx, userID); err != nil && !isNotFound(err) {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to delete cart of removed user")
	}
	s.log.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}
