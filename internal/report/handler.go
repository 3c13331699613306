package report

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/audit"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/httpx"
	"github.com/harborbank/portal/internal/session"
)

// Scope names used in export filenames. Admin reports span all customers;
// user reports cover only the caller's accounts.
const (
	ScopeAdmin = "TransactionReport"
	ScopeUser  = "MyTransactions"
)

// Handler exposes report display and export endpoints.
type Handler struct {
	svc      *Service
	auditLog audit.Repository
	logger   *slog.Logger
}

// NewHandler builds the report handler.
func NewHandler(svc *Service, auditLog audit.Repository, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, auditLog: auditLog, logger: logger}
}

func (h *Handler) request(c *fiber.Ctx) (Request, session.Session) {
	sess, _ := session.FromFiber(c)
	scope := ScopeUser
	if sess.Role == coreapi.RoleAdmin {
		scope = ScopeAdmin
	}
	return Request{
		Scope: scope,
		From:  c.Query("from"),
		To:    c.Query("to"),
		Type:  c.Query("type"),
	}, sess
}

// Fetch returns the filtered report rows for the requested range.
func (h *Handler) Fetch(c *fiber.Ctx) error {
	req, sess := h.request(c)

	rows, err := h.svc.Fetch(c.UserContext(), sess.CoreToken, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"rows": rows, "count": len(rows)})
}

// ExportPDF streams the server-generated PDF document as a download.
func (h *Handler) ExportPDF(c *fiber.Ctx) error {
	return h.export(c, FormatPDF)
}

// ExportExcel streams the server-generated spreadsheet as a download.
func (h *Handler) ExportExcel(c *fiber.Ctx) error {
	return h.export(c, FormatExcel)
}

func (h *Handler) export(c *fiber.Ctx, format Format) error {
	req, sess := h.request(c)

	doc, filename, err := h.svc.Export(c.UserContext(), sess.CoreToken, req, format)
	if err != nil {
		return h.fail(c, err)
	}

	if h.auditLog != nil {
		entry := audit.Entry{
			ActorID: sess.UserID,
			Role:    string(sess.Role),
			Action:  audit.ActionExportReport,
			Target:  filename,
		}
		entry.RequestID, _ = c.Locals("X-Request-ID").(string)
		if err := h.auditLog.Record(c.UserContext(), entry); err != nil {
			h.logger.Warn("audit record failed", "action", entry.Action, "error", err)
		}
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(http.StatusOK).Send(doc.Content)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"errors": fields})
	}
	return httpx.CoreError(c, err)
}
