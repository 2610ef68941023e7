package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/policy"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

// ErrCurrentPasswordMismatch indicates the supplied current password did not
// verify against the stored hash.
var ErrCurrentPasswordMismatch = errors.New("auth: current password does not match")

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials and returns the caller
// identity. Accounts whose role grants no panel capabilities are refused even
// with valid credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (identity.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return identity.Identity{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return identity.Identity{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return identity.Identity{}, shared.ErrInvalidCredentials
	}
	ident := identity.Identity{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    identity.ParseRole(user.Role),
		Regions: user.Regions,
	}
	if len(policy.CapabilitiesFor(ident.Role)) == 0 {
		return identity.Identity{}, shared.ErrNoDashboardAccess
	}
	return ident, nil
}

// ChangePassword sets a new password for the caller. Holders of the
// no-reauth capability skip the current-password check; everyone else must
// supply a current password that verifies.
func (s *Service) ChangePassword(ctx context.Context, ident identity.Identity, current, next string) error {
	if len(next) < 8 {
		return errors.New("auth: new password must be at least 8 characters")
	}
	if !policy.CapabilitiesFor(ident.Role).Has(policy.CapChangePasswordWithoutCurrent) {
		user, err := s.repo.FindByEmail(ctx, ident.Email)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return ErrCurrentPasswordMismatch
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, ident.ID, string(hash))
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
