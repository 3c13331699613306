package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/account"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/guard"
	"github.com/harborbank/portal/internal/product"
	"github.com/harborbank/portal/internal/profile"
	"github.com/harborbank/portal/internal/report"
)

// RegisterUserRoutes wires the customer area. Every route requires an
// authenticated USER session.
func RegisterUserRoutes(api fiber.Router, accounts *account.Handler, profiles *profile.Handler, products *product.Handler, reports *report.Handler, g guard.Deps) {
	user := api.Group("/user", guard.RequireRole(g, coreapi.RoleUser))

	user.Get("/overview", accounts.Overview)
	user.Get("/transactions", accounts.Recent)

	user.Get("/accounts", accounts.List)
	user.Post("/accounts", accounts.Open)
	user.Get("/accounts/:id", accounts.Get)
	user.Post("/accounts/:id/deposit", accounts.Deposit)
	user.Post("/accounts/:id/withdraw", accounts.Withdraw)

	user.Get("/profile", profiles.Get)
	user.Put("/profile", profiles.Update)
	user.Put("/password", profiles.ChangePassword)

	user.Get("/products", products.List)
	user.Get("/products/:id", products.Get)

	user.Get("/reports", reports.Fetch)
	user.Get("/reports/export/pdf", reports.ExportPDF)
	user.Get("/reports/export/excel", reports.ExportExcel)
}
