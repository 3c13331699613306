package profile

import (
	"context"

	"github.com/harborbank/portal/internal/coreapi"
)

// Service proxies profile self-service to the core API.
type Service struct {
	core coreapi.Client
}

// NewService builds a profile service.
func NewService(core coreapi.Client) *Service {
	return &Service{core: core}
}

// Get returns the caller's profile.
func (s *Service) Get(ctx context.Context, token string) (coreapi.User, error) {
	return s.core.CurrentUser(ctx, token)
}

// Update stores the caller's editable profile fields.
func (s *Service) Update(ctx context.Context, token string, update coreapi.ProfileUpdate) (coreapi.User, error) {
	return s.core.UpdateProfile(ctx, token, update)
}

// ChangePassword rotates the caller's password through the core.
func (s *Service) ChangePassword(ctx context.Context, token, current, next string) error {
	return s.core.ChangePassword(ctx, token, current, next)
}
