package profile

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
	"github.com/harborbank/portal/internal/session"
)

// Handler exposes profile and password-reset endpoints.
type Handler struct {
	svc   *Service
	reset *ResetService
}

// NewHandler builds the profile handler.
func NewHandler(svc *Service, reset *ResetService) *Handler {
	return &Handler{svc: svc, reset: reset}
}

// Get serves the caller's profile.
func (h *Handler) Get(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	user, err := h.svc.Get(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(user)
}

type updateRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Update stores editable profile fields.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return httpx.FieldError(c, "full_name", "Full name is required.")
	}

	sess, _ := session.FromFiber(c)
	user, err := h.svc.Update(c.UserContext(), sess.CoreToken, coreapi.ProfileUpdate{FullName: req.FullName, Phone: req.Phone})
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the caller's password.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.CurrentPassword == "" {
		return httpx.FieldError(c, "current_password", "Current password is required.")
	}
	if len(req.NewPassword) < 8 {
		return httpx.FieldError(c, "new_password", "New password must be at least 8 characters.")
	}

	sess, _ := session.FromFiber(c)
	if err := h.svc.ChangePassword(c.UserContext(), sess.CoreToken, req.CurrentPassword, req.NewPassword); err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_changed"})
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// RequestReset starts the passcode flow for an email.
func (h *Handler) RequestReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return httpx.FieldError(c, "email", "Email is required.")
	}
	if err := h.reset.RequestCode(c.UserContext(), req.Email); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not start password reset")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "code_sent"})
}

// VerifyReset checks a passcode before the new-password step.
func (h *Handler) VerifyReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.reset.VerifyCode(c.UserContext(), strings.TrimSpace(req.Email), req.Code); err != nil {
		if errors.Is(err, ErrCodeMismatch) {
			return httpx.FieldError(c, "code", "The passcode is invalid or has expired.")
		}
		return fiber.NewError(http.StatusInternalServerError, "could not verify passcode")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "code_valid"})
}

// CompleteReset verifies the passcode and sets the new password.
func (h *Handler) CompleteReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.NewPassword) < 8 {
		return httpx.FieldError(c, "new_password", "New password must be at least 8 characters.")
	}
	if err := h.reset.Complete(c.UserContext(), strings.TrimSpace(req.Email), req.Code, req.NewPassword); err != nil {
		if errors.Is(err, ErrCodeMismatch) {
			return httpx.FieldError(c, "code", "The passcode is invalid or has expired.")
		}
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_reset"})
}
