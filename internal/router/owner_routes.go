package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/middleware"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// registerOwner registers company management, the self-service account
// pages and the admin reports.
func registerOwner(api *echo.Group, h Handlers, mw Middlewares) {
	// ---- Company users ----
	cu := api.Group("/company-users", mw.Auth, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
	cu.GET("/get-all", h.CompanyUsers.List)
	cu.GET("/getby-id/:id", h.CompanyUsers.Get)
	cu.GET("/profile", h.CompanyUsers.Profile)
	cu.POST("/add", h.CompanyUsers.Add, middleware.RequireRole(model.RoleOwner))
	cu.PUT("/edit/:id", h.CompanyUsers.Edit)
	cu.PUT("/toggle-status/:id", h.CompanyUsers.ToggleStatus)
	cu.DELETE("/:id", h.CompanyUsers.Delete)

	// ---- Account ----
	acc := api.Group("/account", mw.Auth, middleware.RequireRole(model.RoleOwner, model.RoleExterminator))
	acc.GET("/profile", h.Account.Profile)
	acc.PUT("/profile", h.Account.UpdateProfile)
	acc.POST("/profile/image", h.Account.UploadImage)
	acc.GET("/invoices", h.Account.Invoices)
	acc.GET("/payments", h.Account.Payments)
	acc.GET("/subscription", h.Account.Subscription)
	owner := middleware.RequireRole(model.RoleOwner)
	acc.POST("/subscription/renew", h.Account.Renew, owner, middleware.RequireCompany())
	acc.POST("/subscription/cancel", h.Account.Cancel, owner, middleware.RequireCompany())

	// ---- Reports ----
	api.GET("/admin/companies", h.Reports.ListCompanies, mw.Auth, middleware.RequireAdmin(), mw.Cache)
	api.GET("/dashboard/stats", h.Reports.Stats, mw.Auth, mw.Cache)
	api.GET("/insect/get-all", h.Reports.Insects, mw.Auth)
}
