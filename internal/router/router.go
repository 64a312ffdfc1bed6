// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/handler"
)

// Handlers bundles every route handler the API serves.
type Handlers struct {
	Auth         *handler.AuthHandler
	Google       *handler.GoogleHandler
	CompanyUsers *handler.CompanyUserHandler
	Account      *handler.AccountHandler
	Customers    *handler.CustomerHandler
	Locations    *handler.LocationHandler
	Meetings     *handler.MeetingHandler
	Photos       *handler.PhotoHandler
	Traps        *handler.TrapHandler
	Billing      *handler.BillingHandler
	AI           *handler.AIHandler
	Assignments  *handler.AssignmentHandler
	Reports      *handler.ReportHandler
}

// Middlewares are the shared gates applied per route group.
type Middlewares struct {
	Auth     echo.MiddlewareFunc // auth gate
	OTPLimit echo.MiddlewareFunc // limiter for code-issuing routes
	Cache    echo.MiddlewareFunc // response cache for read-heavy reports
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Banner)
	e.GET("/healthz", handler.Health)
}

// Register mounts the whole API under /api.
func Register(e *echo.Echo, h Handlers, mw Middlewares) {
	RegisterRoutes(e)
	api := e.Group("/api")

	// The user routes of older clients share the auth handlers.
	registerAuth(api.Group("/auth"), h, mw)
	registerAuth(api.Group("/users"), h, mw)

	registerOwner(api, h, mw)
	registerCustomers(api, h, mw)
	registerField(api, h, mw)
	registerBilling(api, h, mw)
}

func registerAuth(g *echo.Group, h Handlers, mw Middlewares) {
	g.POST("/register", h.Auth.Register, mw.OTPLimit)
	g.POST("/verify-otp", h.Auth.VerifyOTP, mw.OTPLimit)
	g.POST("/resend-otp", h.Auth.ResendOTP, mw.OTPLimit)
	g.POST("/forgot-password", h.Auth.ForgotPassword, mw.OTPLimit)
	g.POST("/reset-password", h.Auth.ResetPassword, mw.OTPLimit)
	g.POST("/login", h.Auth.Login)
	g.POST("/social-login", h.Auth.SocialLogin)
	g.POST("/social-signup", h.Auth.SocialSignup)
	g.POST("/logout", h.Auth.Logout)

	if h.Google != nil {
		g.GET("/google", h.Google.Start)
		g.GET("/google/callback", h.Google.Callback)
	}

	g.GET("/me", h.Auth.Me, mw.Auth)
}
