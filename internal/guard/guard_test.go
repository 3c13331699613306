package guard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/logging"
	"github.com/harborbank/portal/internal/session"
)

type fixture struct {
	app   *fiber.App
	core  *coreapi.Stub
	mgr   *session.Manager
	close func()
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	core := coreapi.NewStub()
	mgr, err := session.NewManager(cache, []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	d := Deps{Sessions: mgr, Core: core, Logger: logging.Discard()}
	app := fiber.New()
	app.Get("/sign-in", GuestOnly(d), func(c *fiber.Ctx) error {
		return c.SendString("guest form")
	})
	app.Get("/user/overview", RequireRole(d, coreapi.RoleUser), func(c *fiber.Ctx) error {
		return c.SendString("user content")
	})
	app.Get("/admin/stats", RequireRole(d, coreapi.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin content")
	})

	return &fixture{
		app:  app,
		core: core,
		mgr:  mgr,
		close: func() {
			cache.Close()
			mr.Close()
		},
	}
}

// signIn seeds a user in the stub core and issues a portal session for it.
func (f *fixture) signIn(t *testing.T, role coreapi.Role) string {
	t.Helper()
	user := coreapi.User{FullName: "Test User", Email: string(role) + "@example.com", Role: role}
	user.ID = f.core.SeedUser(user, "secret123")
	coreToken := "core-token-" + user.ID
	f.core.SeedToken(coreToken, user.ID)

	token, _, err := f.mgr.Issue(context.Background(), user, coreToken)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return token
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode body %q: %v", payload, err)
	}
	return decoded
}

func TestUnauthenticatedIsRedirectedToSignIn(t *testing.T) {
	f := setup(t)
	defer f.close()

	for _, path := range []string{"/user/overview", "/admin/stats"} {
		resp := get(t, f.app, path, "")
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["redirect"] != "/sign-in" {
			t.Fatalf("%s: expected sign-in redirect, got %v", path, body["redirect"])
		}
	}
}

func TestProtectedContentNeverLeaksToInvalidTokens(t *testing.T) {
	f := setup(t)
	defer f.close()

	resp := get(t, f.app, "/user/overview", "garbage-token")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
	payload, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(payload) == "user content" {
		t.Fatal("protected content rendered for invalid token")
	}
}

func TestAuthorizedRoleSeesContent(t *testing.T) {
	f := setup(t)
	defer f.close()

	token := f.signIn(t, coreapi.RoleUser)
	resp := get(t, f.app, "/user/overview", token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

func TestRoleMismatchRedirectsToOwnHome(t *testing.T) {
	f := setup(t)
	defer f.close()

	token := f.signIn(t, coreapi.RoleUser)
	resp := get(t, f.app, "/admin/stats", token)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["redirect"] != "/user" {
		t.Fatalf("expected redirect to /user, got %v", body["redirect"])
	}
}

func TestGuestOnlyRedirectsAuthenticatedAdmin(t *testing.T) {
	f := setup(t)
	defer f.close()

	token := f.signIn(t, coreapi.RoleAdmin)
	resp := get(t, f.app, "/sign-in", token)
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("expected 303 got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["redirect"] != "/admin" {
		t.Fatalf("expected redirect to /admin, got %v", body["redirect"])
	}
}

func TestGuestOnlyAllowsAnonymous(t *testing.T) {
	f := setup(t)
	defer f.close()

	resp := get(t, f.app, "/sign-in", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

func TestExpiredCoreCredentialClearsSession(t *testing.T) {
	f := setup(t)
	defer f.close()

	user := coreapi.User{FullName: "Expired", Email: "expired@example.com", Role: coreapi.RoleUser}
	user.ID = f.core.SeedUser(user, "secret123")
	coreToken := "core-token-expired"
	f.core.SeedToken(coreToken, user.ID)

	token, sess, err := f.mgr.Issue(context.Background(), user, coreToken)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	// Core-side invalidation: the next guarded request must clear the
	// portal session and redirect to sign-in.
	f.core.RevokeToken(coreToken)

	resp := get(t, f.app, "/user/overview", token)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}

	if _, err := f.mgr.Resolve(context.Background(), token); err == nil {
		t.Fatalf("session %s should have been cleared", sess.ID)
	}
}
