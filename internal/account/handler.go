package account

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
	"github.com/harborbank/portal/internal/session"
)

// Handler exposes savings-account endpoints for the signed-in customer.
type Handler struct {
	svc *Service
}

// NewHandler builds the account handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Overview serves the dashboard payload.
func (h *Handler) Overview(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	overview, err := h.svc.Overview(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(overview)
}

// List serves the caller's accounts.
func (h *Handler) List(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	accounts, err := h.svc.List(c.UserContext(), sess.CoreToken)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(accounts)
}

// Get serves one account's detail.
func (h *Handler) Get(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	account, err := h.svc.Get(c.UserContext(), sess.CoreToken, c.Params("id"))
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(account)
}

// Recent serves the caller's latest transactions.
func (h *Handler) Recent(c *fiber.Ctx) error {
	sess, _ := session.FromFiber(c)
	txs, err := h.svc.Recent(c.UserContext(), sess.CoreToken, c.QueryInt("limit"))
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(txs)
}

type openRequest struct {
	ProductID  string `json:"product_id"`
	Amount     string `json:"amount"`
	TermMonths int    `json:"term_months"`
}

// Open creates a new term deposit.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.ProductID == "" {
		return httpx.FieldError(c, "product_id", "Please choose a savings product.")
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return httpx.FieldError(c, "amount", "Please enter a positive amount.")
	}

	sess, _ := session.FromFiber(c)
	account, err := h.svc.Open(c.UserContext(), sess.CoreToken, sess.UserID, OpenInput{
		ProductID:  req.ProductID,
		Amount:     amount,
		TermMonths: req.TermMonths,
	})
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(account)
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// Deposit adds funds to the account in the path.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.move(c, h.svc.Deposit)
}

// Withdraw removes funds from the account in the path.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.move(c, h.svc.Withdraw)
}

func (h *Handler) move(c *fiber.Ctx, op func(ctx context.Context, token, userID, accountID string, amount decimal.Decimal) (coreapi.SavingsAccount, error)) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return httpx.FieldError(c, "amount", "Please enter a positive amount.")
	}

	sess, _ := session.FromFiber(c)
	account, err := op(c.UserContext(), sess.CoreToken, sess.UserID, c.Params("id"), amount)
	if err != nil {
		return httpx.CoreError(c, err)
	}
	return c.Status(http.StatusOK).JSON(account)
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, false
	}
	return amount, true
}
