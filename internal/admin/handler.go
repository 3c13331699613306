package admin

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
	"github.com/harborbank/portal/internal/session"
)

// Handler exposes admin endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the admin handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListUsers serves every portal user.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	users, err := h.svc.ListUsers(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(users)
}

// GetUser serves one user.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	user, err := h.svc.GetUser(c.UserContext(), sess.CoreToken, c.Params("id"))
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(user)
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// UpdateUser modifies a user.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.FullName == "" {
		return httpx.FieldError(c, "full_name", "Full name is required.")
	}
	if req.Role != "" && req.Role != string(coreapi.RoleAdmin) && req.Role != string(coreapi.RoleUser) {
		return httpx.FieldError(c, "role", "Role must be ADMIN or USER.")
	}

	sess, _ := session.FromFiber(c)
	user, err := h.svc.UpdateUser(c.UserContext(), sess.CoreToken, sess.UserID, c.Params("id"), coreapi.UserUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     coreapi.Role(req.Role),
	})
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(user)
}

// DeleteUser removes a user.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	if c.Params("id") == sess.UserID {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account."})
	}
	if err := h.svc.DeleteUser(c.UserContext(), sess.CoreToken, sess.UserID, c.Params("id")); err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "deleted"})
}

// Activity serves the recorded portal actions of one user.
func (h *Handler) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := h.svc.Activity(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(entries)
}

// Stats serves bank-wide statistics.
func (h *Handler) Stats(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	stats, err := h.svc.Stats(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(stats)
}
