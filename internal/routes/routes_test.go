package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/harborbank/portal/internal/config"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/logging"
)

type fixture struct {
	app  *fiber.App
	core *coreapi.Stub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	core := coreapi.NewStub()
	cfg := config.Config{
		AppName:                "portal-test",
		AppEnv:                 "development",
		SessionSecret:          "test-secret",
		SessionTTL:             time.Hour,
		ResetCodeTTL:           time.Minute,
		ReportFetchConcurrency: 2,
		SignInRatePerMinute:    5,
	}

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Core: core, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return &fixture{app: app, core: core}
}

func (f *fixture) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (f *fixture) signIn(t *testing.T, email, password string) string {
	t.Helper()
	resp := f.request(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-in status = %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
		Home  string `json:"home"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode sign-in response: %v", err)
	}
	return body.Token
}

func TestHealthAndPing(t *testing.T) {
	f := newFixture(t)

	if resp := f.request(t, http.MethodGet, "/healthz", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	if resp := f.request(t, http.MethodGet, "/api/v1/ping", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("ping status = %d", resp.StatusCode)
	}
}

func TestSignInGrantsAccessToOwnArea(t *testing.T) {
	f := newFixture(t)
	f.core.SeedUser(coreapi.User{FullName: "Ada Saver", Email: "ada@example.com", Role: coreapi.RoleUser}, "secret-pass")

	token := f.signIn(t, "ada@example.com", "secret-pass")

	if resp := f.request(t, http.MethodGet, "/api/v1/user/overview", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d", resp.StatusCode)
	}
	// A customer token must not open the back office.
	if resp := f.request(t, http.MethodGet, "/api/v1/admin/stats", token, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("admin stats with user token status = %d", resp.StatusCode)
	}
}

func TestAdminAreaRequiresAdminRole(t *testing.T) {
	f := newFixture(t)
	f.core.SeedUser(coreapi.User{FullName: "Root Teller", Email: "admin@example.com", Role: coreapi.RoleAdmin}, "admin-pass")

	token := f.signIn(t, "admin@example.com", "admin-pass")

	if resp := f.request(t, http.MethodGet, "/api/v1/admin/users", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin users status = %d", resp.StatusCode)
	}
	if resp := f.request(t, http.MethodGet, "/api/v1/user/overview", token, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user area with admin token status = %d", resp.StatusCode)
	}
}

func TestUnauthenticatedGetsSignInRedirect(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/api/v1/user/accounts", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Redirect string `json:"redirect"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Redirect != "/sign-in" {
		t.Fatalf("redirect = %q", body.Redirect)
	}
}

func TestSignedInCallerBouncedFromGuestRoutes(t *testing.T) {
	f := newFixture(t)
	f.core.SeedUser(coreapi.User{FullName: "Ada Saver", Email: "ada@example.com", Role: coreapi.RoleUser}, "secret-pass")

	token := f.signIn(t, "ada@example.com", "secret-pass")

	resp := f.request(t, http.MethodPost, "/api/v1/auth/sign-in", token, map[string]string{
		"email":    "ada@example.com",
		"password": "secret-pass",
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSignInRateLimitKicksIn(t *testing.T) {
	f := newFixture(t)
	f.core.SeedUser(coreapi.User{FullName: "Ada Saver", Email: "ada@example.com", Role: coreapi.RoleUser}, "secret-pass")

	var last int
	for i := 0; i < 6; i++ {
		resp := f.request(t, http.MethodPost, "/api/v1/auth/sign-in", "", map[string]string{
			"email":    "ada@example.com",
			"password": fmt.Sprintf("wrong-%d", i),
		})
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("sixth attempt status = %d, want 429", last)
	}
}

func TestSignOutInvalidatesToken(t *testing.T) {
	f := newFixture(t)
	f.core.SeedUser(coreapi.User{FullName: "Ada Saver", Email: "ada@example.com", Role: coreapi.RoleUser}, "secret-pass")

	token := f.signIn(t, "ada@example.com", "secret-pass")

	if resp := f.request(t, http.MethodPost, "/api/v1/auth/sign-out", token, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("sign-out status = %d", resp.StatusCode)
	}
	if resp := f.request(t, http.MethodGet, "/api/v1/user/overview", token, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("overview after sign-out status = %d", resp.StatusCode)
	}
}
