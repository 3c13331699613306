package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/guard"
	"github.com/harborbank/portal/internal/profile"
	"github.com/harborbank/portal/internal/session"
)

// RegisterAuthRoutes wires the guest-facing sign-in, sign-up and password
// reset flow, plus sign-out for established sessions. Guest routes bounce
// already-authenticated callers to their role's home.
func RegisterAuthRoutes(api fiber.Router, sessions *session.Handler, profiles *profile.Handler, g guard.Deps, rateLimiter fiber.Handler) {
	auth := api.Group("/auth", guard.GuestOnly(g))
	auth.Post("/sign-in", rateLimiter, sessions.SignIn)
	auth.Post("/sign-up", sessions.SignUp)
	auth.Post("/reset/request", profiles.RequestReset)
	auth.Post("/reset/verify", profiles.VerifyReset)
	auth.Post("/reset/complete", profiles.CompleteReset)

	api.Post("/auth/sign-out", guard.RequireSession(g), sessions.SignOut)
}
