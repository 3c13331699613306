package profile

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/notification"
)

const codePrefix = "reset:v1:"

// ErrCodeMismatch covers every verification failure: unknown email, expired
// code, wrong code. Callers present one message for all of them so the flow
// does not leak which emails are registered.
var ErrCodeMismatch = errors.New("passcode invalid or expired")

// ResetService runs the passcode-based password reset: a short-lived code is
// generated per email, stored hashed, delivered out of band, and must be
// verified before the new password is pushed to the core.
type ResetService struct {
	core     coreapi.Client
	cache    *redis.Client
	notifier notification.Notifier
	auditLog audit.Repository
	ttl      time.Duration
	logger   *slog.Logger
}

// NewResetService builds a reset service. ttl bounds how long a passcode
// stays valid.
func NewResetService(core coreapi.Client, cache *redis.Client, notifier notification.Notifier, auditLog audit.Repository, ttl time.Duration, logger *slog.Logger) *ResetService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResetService{core: core, cache: cache, notifier: notifier, auditLog: auditLog, ttl: ttl, logger: logger}
}

// RequestCode generates and delivers a passcode for the email. It reports
// success even for unknown emails.
func (s *ResetService) RequestCode(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate passcode: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	if err := s.cache.Set(ctx, codePrefix+email, hash, s.ttl).Err(); err != nil {
		return fmt.Errorf("store passcode: %w", err)
	}

	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindResetCode,
		Destination: email,
		Body:        "Your password reset passcode is " + code,
	}); err != nil {
		s.logger.Warn("reset code delivery failed", "error", err)
	}
	return nil
}

// VerifyCode checks a passcode without consuming it, so the client can move
// the user to the new-password step before submitting.
func (s *ResetService) VerifyCode(ctx context.Context, email, code string) error {
	hash, err := s.cache.Get(ctx, codePrefix+email).Bytes()
	if err == redis.Nil {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("load passcode: %w", err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return ErrCodeMismatch
	}
	return nil
}

// Complete verifies the passcode, sets the new password through the core,
// and consumes the code.
func (s *ResetService) Complete(ctx context.Context, email, code, newPassword string) error {
	if err := s.VerifyCode(ctx, email, code); err != nil {
		return err
	}
	if err := s.core.ResetPassword(ctx, email, newPassword); err != nil {
		return err
	}
	if err := s.cache.Del(ctx, codePrefix+email).Err(); err != nil {
		s.logger.Warn("consume passcode failed", "error", err)
	}
	// The caller is not signed in yet, so the entry carries the email as target.
	if s.auditLog != nil {
		entry := audit.Entry{Action: audit.ActionResetPassword, Target: email}
		if err := s.auditLog.Record(ctx, entry); err != nil {
			s.logger.Warn("audit record failed", "action", entry.Action, "error", err)
		}
	}
	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindSecurityAlert,
		Destination: email,
		Body:        "Your password was changed. If this was not you, contact the bank immediately.",
	}); err != nil {
		s.logger.Warn("security alert delivery failed", "error", err)
	}
	return nil
}

// generateCode produces a six digit numeric passcode.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
