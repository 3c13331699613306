package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
)

// Service proxies admin user management and system statistics to the core.
type Service struct {
	core     coreapi.Client
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewService builds an admin service.
func NewService(core coreapi.Client, auditLog audit.Repository, logger *slog.Logger) *Service {
	return &Service{core: core, auditLog: auditLog, logger: logger}
}

// ListUsers returns every portal user.
func (s *Service) ListUsers(ctx context.Context, token string) ([]coreapi.User, error) {
	return s.core.ListUsers(ctx, token)
}

// GetUser returns one user's detail.
func (s *Service) GetUser(ctx context.Context, token, id string) (coreapi.User, error) {
	return s.core.GetUser(ctx, token, id)
}

// UpdateUser modifies a user's profile or role.
func (s *Service) UpdateUser(ctx context.Context, token, actorID, id string, update coreapi.UserUpdate) (coreapi.User, error) {
	if update.Role != "" && update.Role != coreapi.RoleAdmin && update.Role != coreapi.RoleUser {
		return coreapi.User{}, fmt.Errorf("unknown role %q", update.Role)
	}
	user, err := s.core.UpdateUser(ctx, token, id, update)
	if err != nil {
		return coreapi.User{}, err
	}
	s.record(ctx, actorID, audit.ActionUpdateUser, id)
	return user, nil
}

// DeleteUser removes a user. Admins cannot delete themselves; the portal
// would be left with a live session for a missing account.
func (s *Service) DeleteUser(ctx context.Context, token, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("cannot delete your own account")
	}
	if err := s.core.DeleteUser(ctx, token, id); err != nil {
		return err
	}
	s.record(ctx, actorID, audit.ActionDeleteUser, id)
	return nil
}

// Activity returns the portal actions recorded for one user, newest first.
func (s *Service) Activity(ctx context.Context, userID string, limit int) ([]audit.Entry, error) {
	return s.auditLog.ListByActor(ctx, userID, limit)
}

// Stats returns bank-wide statistics.
func (s *Service) Stats(ctx context.Context, token string) (coreapi.SystemStats, error) {
	return s.core.SystemStats(ctx, token)
}

func (s *Service) record(ctx context.Context, actorID, action, target string) {
	if s.auditLog == nil {
		return
	}
	entry := audit.Entry{ActorID: actorID, Role: string(coreapi.RoleAdmin), Action: action, Target: target}
	if err := s.auditLog.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
