// Package guard gates routes on authentication state and role. A request is
// in its checking phase until the session resolves; the protected handler is
// never invoked before that, so unauthorized callers cannot observe
// protected content even transiently.
package guard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/session"
)

// Deps carries what the guard needs to resolve and revalidate sessions.
type Deps struct {
	Sessions *session.Manager
	Core     coreapi.Client
	Logger   *slog.Logger
}

const signInPath = "/sign-in"

func bearerToken(c *fiber.Ctx) string {
	authz := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if len(authz) > len(prefix) && authz[:len(prefix)] == prefix {
		return authz[len(prefix):]
	}
	return ""
}

// resolve validates the portal token and revalidates the core credential. On
// a core-side 401 the stored session is cleared so the stale credential is
// never reused.
func (d Deps) resolve(c *fiber.Ctx) (session.Session, error) {
	token := bearerToken(c)
	if token == "" {
		return session.Session{}, session.ErrNoSession
	}

	sess, err := d.Sessions.Resolve(c.UserContext(), token)
	if err != nil {
		return session.Session{}, err
	}

	if _, err := d.Core.CurrentUser(c.UserContext(), sess.CoreToken); err != nil {
		if errors.Is(err, coreapi.ErrUnauthorized) {
			if clearErr := d.Sessions.Clear(c.UserContext(), sess.ID, sess.UserID); clearErr != nil {
				d.Logger.Warn("clear invalidated session", "error", clearErr)
			}
			return session.Session{}, session.ErrNoSession
		}
		return session.Session{}, err
	}
	return sess, nil
}

// RequireRole admits only authenticated sessions holding the given role.
// Missing or invalid sessions get a sign-in redirect; a role mismatch gets a
// blocking notice plus a redirect to the session's own home.
func RequireRole(d Deps, role coreapi.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := d.resolve(c)
		if err != nil {
			return unauthorized(c, err, d.Logger)
		}
		if sess.Role != role {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error":    "You do not have access to this area.",
				"redirect": session.HomePath(sess.Role),
			})
		}
		c.Locals(session.LocalsKey, sess)
		return c.Next()
	}
}

// RequireSession admits any authenticated session regardless of role.
func RequireSession(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := d.resolve(c)
		if err != nil {
			return unauthorized(c, err, d.Logger)
		}
		c.Locals(session.LocalsKey, sess)
		return c.Next()
	}
}

// GuestOnly redirects already-authenticated callers away from guest routes
// such as sign-in and password reset, landing them on their role's home.
func GuestOnly(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := d.resolve(c)
		if err != nil {
			// Not signed in (or the session check failed): the guest page
			// is exactly where this caller belongs.
			return c.Next()
		}
		return c.Status(http.StatusSeeOther).JSON(fiber.Map{"redirect": session.HomePath(sess.Role)})
	}
}

func unauthorized(c *fiber.Ctx, err error, logger *slog.Logger) error {
	if !errors.Is(err, session.ErrNoSession) {
		logger.Warn("session check failed", "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     "Could not verify your session. Please try again.",
			"retryable": true,
		})
	}
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"error":    "Please sign in to continue.",
		"redirect": signInPath,
	})
}
