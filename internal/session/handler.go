package session

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
)

// LocalsKey is the fiber locals slot carrying the resolved Session.
const LocalsKey = "portal_session"

// HomePath returns the landing route for a role.
func HomePath(role coreapi.Role) string {
	if role == coreapi.RoleAdmin {
		return "/admin"
	}
	return "/user"
}

// FromFiber extracts the session placed in locals by the route guard.
func FromFiber(c *fiber.Ctx) (Session, bool) {
	sess, ok := c.Locals(LocalsKey).(Session)
	return sess, ok
}

// Handler exposes sign-in, sign-up and sign-out endpoints.
type Handler struct {
	core     coreapi.Client
	sessions *Manager
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewHandler builds the session handler.
func NewHandler(core coreapi.Client, sessions *Manager, auditLog audit.Repository, logger *slog.Logger) *Handler {
	return &Handler{core: core, sessions: sessions, auditLog: auditLog, logger: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
	Home  string   `json:"home"`
}

type userView struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  coreapi.Role `json:"role"`
}

// SignIn authenticates against the core API and issues a portal session.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return httpx.FieldError(c, "email", "Email is required.")
	}
	if req.Password == "" {
		return httpx.FieldError(c, "password", "Password is required.")
	}

	result, err := h.core.SignIn(c.UserContext(), coreapi.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, coreapi.ErrUnauthorized) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password."})
		}
		return httpx.CoreError(c, err)
	}

	token, sess, err := h.sessions.Issue(c.UserContext(), result.User, result.Token)
	if err != nil {
		h.logger.Error("issue session", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "could not start session")
	}

	h.record(c, audit.Entry{ActorID: result.User.ID, Role: string(result.User.Role), Action: audit.ActionSignIn})

	return c.Status(http.StatusOK).JSON(signInResponse{
		Token: token,
		User:  userView{ID: sess.UserID, Name: sess.Name, Email: result.User.Email, Role: sess.Role},
		Home:  HomePath(sess.Role),
	})
}

type signUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// SignUp registers a new customer with the core API.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return httpx.FieldError(c, "full_name", "Full name is required.")
	}
	if req.Email == "" {
		return httpx.FieldError(c, "email", "Email is required.")
	}
	if len(req.Password) < 8 {
		return httpx.FieldError(c, "password", "Password must be at least 8 characters.")
	}

	user, err := h.core.SignUp(c.UserContext(), coreapi.SignUpInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return httpx.CoreError(c, err)
	}

	h.record(c, audit.Entry{ActorID: user.ID, Role: string(user.Role), Action: audit.ActionSignUp})

	return c.Status(http.StatusCreated).JSON(userView{ID: user.ID, Name: user.FullName, Email: user.Email, Role: user.Role})
}

// SignOut clears the caller's session.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	sess, ok := FromFiber(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "no active session")
	}
	if err := h.sessions.Clear(c.UserContext(), sess.ID, sess.UserID); err != nil {
		h.logger.Error("clear session", "error", err)
		return fiber.NewError(http.StatusInternalServerError, "could not sign out")
	}

	h.record(c, audit.Entry{ActorID: sess.UserID, Role: string(sess.Role), Action: audit.ActionSignOut})

	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "signed_out"})
}

func (h *Handler) record(c *fiber.Ctx, entry audit.Entry) {
	if h.auditLog == nil {
		return
	}
	entry.RequestID, _ = c.Locals("X-Request-ID").(string)
	if err := h.auditLog.Record(c.UserContext(), entry); err != nil {
		h.logger.Warn("audit record failed", "action", entry.Action, "error", err)
	}
}
