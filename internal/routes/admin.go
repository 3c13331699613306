package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/harborbank/portal/internal/admin"
	"github.com/harborbank/portal/internal/coreapi"
	"github.com/harborbank/portal/internal/guard"
	"github.com/harborbank/portal/internal/product"
	"github.com/harborbank/portal/internal/report"
)

// RegisterAdminRoutes wires the back-office area. Every route requires an
// authenticated ADMIN session.
func RegisterAdminRoutes(api fiber.Router, admins *admin.Handler, products *product.Handler, reports *report.Handler, g guard.Deps) {
	back := api.Group("/admin", guard.RequireRole(g, coreapi.RoleAdmin))

	back.Get("/stats", admins.Stats)

	back.Get("/users", admins.ListUsers)
	back.Get("/users/:id", admins.GetUser)
	back.Get("/users/:id/activity", admins.Activity)
	back.Put("/users/:id", admins.UpdateUser)
	back.Delete("/users/:id", admins.DeleteUser)

	back.Get("/products", products.List)
	back.Post("/products", products.Create)
	back.Get("/products/:id", products.Get)
	back.Put("/products/:id", products.Update)
	back.Delete("/products/:id", products.Delete)

	back.Get("/reports", reports.Fetch)
	back.Get("/reports/export/pdf", reports.ExportPDF)
	back.Get("/reports/export/excel", reports.ExportExcel)
}
