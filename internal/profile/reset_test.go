package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/logging"
	"github.com/harborbank/portal/internal/notification"
)

// recordingNotifier captures delivered messages so tests can read the code.
type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notification.Message) error {
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	if len(n.messages) == 0 {
		t.Fatal("no notification delivered")
	}
	body := n.messages[len(n.messages)-1].Body
	idx := strings.LastIndex(body, " ")
	return body[idx+1:]
}

func newResetFixture(t *testing.T) (*ResetService, *coreapi.Stub, *recordingNotifier, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	core := coreapi.NewStub()
	notifier := &recordingNotifier{}
	svc := NewResetService(core, cache, notifier, audit.NewMemoryRepository(), time.Minute, logging.Discard())

	return svc, core, notifier, func() {
		cache.Close()
		mr.Close()
	}
}

func TestResetFlowRequestVerifyComplete(t *testing.T) {
	svc, core, notifier, cleanup := newResetFixture(t)
	defer cleanup()

	core.SeedUser(coreapi.User{Email: "saver@example.com", Role: coreapi.RoleUser}, "old-password")

	ctx := context.Background()
	if err := svc.RequestCode(ctx, "saver@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	code := notifier.lastCode(t)
	if len(code) != 6 {
		t.Fatalf("expected six digit code, got %q", code)
	}

	if err := svc.VerifyCode(ctx, "saver@example.com", code); err != nil {
		t.Fatalf("verify code: %v", err)
	}

	if err := svc.Complete(ctx, "saver@example.com", code, "brand-new-pass"); err != nil {
		t.Fatalf("complete reset: %v", err)
	}

	// The new password must now authenticate against the core.
	if _, err := core.SignIn(ctx, coreapi.Credentials{Email: "saver@example.com", Password: "brand-new-pass"}); err != nil {
		t.Fatalf("sign in with new password: %v", err)
	}

	// The passcode is consumed on completion.
	if err := svc.VerifyCode(ctx, "saver@example.com", code); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected consumed code to mismatch, got %v", err)
	}
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	svc, _, _, cleanup := newResetFixture(t)
	defer cleanup()

	ctx := context.Background()
	if err := svc.RequestCode(ctx, "saver@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	if err := svc.VerifyCode(ctx, "saver@example.com", "000000x"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestVerifyRejectsUnknownEmail(t *testing.T) {
	svc, _, _, cleanup := newResetFixture(t)
	defer cleanup()

	if err := svc.VerifyCode(context.Background(), "nobody@example.com", "123456"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
