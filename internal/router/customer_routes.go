package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/middleware"
)

// registerCustomers registers customers, locations and assignments.  Every
// route is tenant scoped by the principal.
func registerCustomers(api *echo.Group, h Handlers, mw Middlewares) {
	c := api.Group("/customers", mw.Auth, middleware.RequireCompany())
	c.POST("/add", h.Customers.Create)
	c.GET("/get-all", h.Customers.List)
	c.GET("/get/:id", h.Customers.Get)
	c.PUT("/:id", h.Customers.Update)
	c.DELETE("/:id", h.Customers.Delete)

	l := api.Group("/locations", mw.Auth, middleware.RequireCompany())
	l.POST("/add", h.Locations.Create)
	l.GET("", h.Locations.List)
	l.GET("/", h.Locations.List)
	l.GET("/statistics", h.Locations.Statistics)
	l.GET("/:id", h.Locations.Get)
	l.PUT("/:id", h.Locations.Update)
	l.DELETE("/:id", h.Locations.Delete)

	for _, prefix := range []string{"/assigment-users", "/assignments"} {
		a := api.Group(prefix, mw.Auth, middleware.RequireCompany())
		a.POST("/assign", h.Assignments.Assign)
		a.GET("/user/:user_id", h.Assignments.ByUser)
		a.GET("/by-customer/:customer_id", h.Assignments.LocationsByCustomer)
		a.DELETE("/:id", h.Assignments.Delete)
	}
}
