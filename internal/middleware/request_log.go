package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/logger"
)

// RequestLogger assigns a request id (reusing X-Request-ID when the client
// sends one), stores it in the request context and logs every request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err) // let echo write the response so the status is known
			}
			logger.HTTPLog(logger.FromContext(c.Request().Context()), req.Method, c.Path(),
				c.Response().Status, time.Since(start))
			return nil
		}
	}
}
