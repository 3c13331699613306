package session

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/coreapi"
)

func newManagerFixture(t *testing.T, ttl time.Duration) (*Manager, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mgr, err := NewManager(cache, []byte("test-secret"), ttl)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr, mr, func() {
		cache.Close()
		mr.Close()
	}
}

func TestIssueResolveRoundTrip(t *testing.T) {
	mgr, _, cleanup := newManagerFixture(t, time.Hour)
	defer cleanup()

	ctx := context.Background()
	user := coreapi.User{ID: "u-1", FullName: "Ada Saver", Role: coreapi.RoleUser}
	token, issued, err := mgr.Issue(ctx, user, "core-token-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resolved, err := mgr.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != issued.ID {
		t.Fatalf("resolved session %q, issued %q", resolved.ID, issued.ID)
	}
	if resolved.UserID != "u-1" || resolved.Role != coreapi.RoleUser {
		t.Fatalf("unexpected session contents: %+v", resolved)
	}
	if resolved.CoreToken != "core-token-1" {
		t.Fatalf("core token not preserved: %q", resolved.CoreToken)
	}
}

func TestResolveRejectsGarbageToken(t *testing.T) {
	mgr, _, cleanup := newManagerFixture(t, time.Hour)
	defer cleanup()

	if _, err := mgr.Resolve(context.Background(), "not-a-token"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestResolveRejectsForeignSignature(t *testing.T) {
	mgr, _, cleanup := newManagerFixture(t, time.Hour)
	defer cleanup()

	other := &tokenCodec{secret: []byte("other-secret")}
	forged, err := other.sign("some-session", coreapi.RoleAdmin, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.Resolve(context.Background(), forged); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for forged token, got %v", err)
	}
}

func TestClearStopsResolution(t *testing.T) {
	mgr, _, cleanup := newManagerFixture(t, time.Hour)
	defer cleanup()

	ctx := context.Background()
	token, sess, err := mgr.Issue(ctx, coreapi.User{ID: "u-1", Role: coreapi.RoleUser}, "core-token")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.Clear(ctx, sess.ID, sess.UserID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// The token still carries a valid signature but the record is gone.
	if _, err := mgr.Resolve(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
	// Clearing twice is not an error.
	if err := mgr.Clear(ctx, sess.ID, sess.UserID); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestExpiredRecordDoesNotResolve(t *testing.T) {
	mgr, mr, cleanup := newManagerFixture(t, time.Minute)
	defer cleanup()

	ctx := context.Background()
	token, _, err := mgr.Issue(ctx, coreapi.User{ID: "u-1", Role: coreapi.RoleUser}, "core-token")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := mgr.Resolve(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after expiry, got %v", err)
	}
}

func TestSubscribeObservesLifecycle(t *testing.T) {
	mgr, _, cleanup := newManagerFixture(t, time.Hour)
	defer cleanup()

	events := mgr.Subscribe()

	ctx := context.Background()
	_, sess, err := mgr.Issue(ctx, coreapi.User{ID: "u-1", Role: coreapi.RoleUser}, "core-token")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.Clear(ctx, sess.ID, sess.UserID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	first := <-events
	if first.Kind != EventIssued || first.SessionID != sess.ID {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second := <-events
	if second.Kind != EventCleared || second.UserID != "u-1" {
		t.Fatalf("unexpected second event: %+v", second)
	}
}
