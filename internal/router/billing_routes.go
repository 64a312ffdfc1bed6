package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/middleware"
)

// registerBilling registers the invoice and subscription stores.
func registerBilling(api *echo.Group, h Handlers, mw Middlewares) {
	inv := api.Group("/invoices", mw.Auth, middleware.RequireCompany())
	inv.POST("", h.Billing.CreateInvoice)
	inv.GET("", h.Billing.ListInvoices)
	inv.GET("/:id", h.Billing.GetInvoice)
	inv.PUT("/:id", h.Billing.UpdateInvoice)
	inv.DELETE("/:id", h.Billing.DeleteInvoice)

	sub := api.Group("/subscriptions", mw.Auth, middleware.RequireCompany())
	sub.POST("", h.Billing.CreateSubscription)
	sub.GET("", h.Billing.ListSubscriptions)
	sub.GET("/:id", h.Billing.GetSubscription)
	sub.PUT("/:id", h.Billing.UpdateSubscription)
	sub.POST("/:id/cancel", h.Billing.CancelSubscription)
}
