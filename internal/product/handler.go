package product

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
	"github.com/harborbank/portal/internal/session"
)

// Handler exposes savings-product endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the product handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List serves all products.
func (h *Handler) List(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	products, err := h.svc.List(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(products)
}

// Get serves one product.
func (h *Handler) Get(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	product, err := h.svc.Get(c.UserContext(), sess.CoreToken, c.Params("id"))
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(product)
}

type productRequest struct {
	Name           string `json:"name"`
	InterestRate   string `json:"interest_rate"`
	TermMonths     int    `json:"term_months"`
	MinimumDeposit string `json:"minimum_deposit"`
	Active         bool   `json:"active"`
}

// parse validates the request and reports the offending field on failure.
func (r productRequest) parse() (coreapi.ProductInput, string, string) {
	if r.Name == "" {
		return coreapi.ProductInput{}, "name", "Product name is required."
	}
	rate, err := decimal.NewFromString(r.InterestRate)
	if err != nil || rate.IsNegative() {
		return coreapi.ProductInput{}, "interest_rate", "A non-negative interest rate is required."
	}
	minimum, err := decimal.NewFromString(r.MinimumDeposit)
	if err != nil || minimum.IsNegative() {
		return coreapi.ProductInput{}, "minimum_deposit", "A non-negative minimum deposit is required."
	}
	return coreapi.ProductInput{
		Name:           r.Name,
		InterestRate:   rate,
		TermMonths:     r.TermMonths,
		MinimumDeposit: minimum,
		Active:         r.Active,
	}, "", ""
}

// Create adds a product.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	input, field, message := req.parse()
	if field != "" {
		return httpx.FieldError(c, field, message)
	}

	sess, _ := session.FromFiber(c)
	product, err := h.svc.Create(c.UserContext(), sess.CoreToken, sess.UserID, input)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(product)
}

// Update modifies a product.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	input, field, message := req.parse()
	if field != "" {
		return httpx.FieldError(c, field, message)
	}

	sess, _ := session.FromFiber(c)
	product, err := h.svc.Update(c.UserContext(), sess.CoreToken, sess.UserID, c.Params("id"), input)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(product)
}

// Delete removes a product.
func (h *Handler) Delete(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	if err := h.svc.Delete(c.UserContext(), sess.CoreToken, sess.UserID, c.Params("id")); err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "deleted"})
}
