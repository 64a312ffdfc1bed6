package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/middleware"
	"github.com/iliyamo/pestiq-backend/internal/model"
)

// registerField registers the routes used by the field app: meetings,
// photo uploads, traps and detection.
func registerField(api *echo.Group, h Handlers, mw Middlewares) {
	m := api.Group("/meetings", mw.Auth, middleware.RequireCompany())
	m.POST("/add", h.Meetings.Create)
	m.GET("/get-all", h.Meetings.List)
	m.GET("/assigned", h.Meetings.Assigned)
	m.GET("/exterminator/:exterminator_id", h.Meetings.ByExterminator)
	m.GET("/company/:company_id", h.Meetings.ByCompany)
	m.GET("/:id", h.Meetings.Get)
	m.PUT("/:id", h.Meetings.Update)
	m.PUT("/:id/status", h.Meetings.SetStatus)
	m.DELETE("/:id", h.Meetings.Delete)

	p := api.Group("/photos", mw.Auth, middleware.RequireCompany())
	p.POST("/add", h.Photos.Create, middleware.RequireRole(model.RoleOwner, model.RoleExterminator))
	p.GET("/meeting/:meeting_id", h.Photos.ByMeeting)
	p.GET("/exterminator", h.Photos.ByExterminator)
	p.GET("/company-photos", h.Photos.ByCompany)
	p.DELETE("/:id", h.Photos.Delete)

	t := api.Group("/trap", mw.Auth, middleware.RequireCompany())
	t.POST("/add", h.Traps.Create)
	t.GET("/traps", h.Traps.List)
	t.PUT("/:id", h.Traps.Update)
	t.DELETE("/:id", h.Traps.Delete)

	api.POST("/ai/analyze", h.AI.Analyze, mw.Auth)

	r := api.Group("/ai-results", mw.Auth, middleware.RequireCompany())
	r.POST("", h.AI.Create)
	r.GET("/photo/:photo_id", h.AI.ByPhoto)
	r.GET("/:id", h.AI.Get)
	r.PUT("/:id", h.AI.Update)
	r.DELETE("/:id", h.AI.Delete)
}
