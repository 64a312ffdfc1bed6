package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

// PrincipalResolver maps verified token claims to the current identity.
// It returns an error when the account is gone or inactive.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, sc utils.SessionClaims) (model.Principal, error)
}

// Auth is the auth gate.  It requires "Authorization: Bearer <token>",
// verifies the token with secret and attaches the principal resolved by r.
// Admin tokens are trusted; other roles are re-read from the store.
func Auth(secret string, r PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(h, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !found || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Access denied. No token provided."})
			}

			sc, err := utils.ParseSessionToken(secret, raw)
			if errors.Is(err, utils.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired"})
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
			}

			ctx := c.Request().Context()
			p, err := r.ResolvePrincipal(ctx, sc)
			if err != nil {
				logger.FromContext(ctx).Debug("auth gate rejected token", "user_id", sc.ID, "error", err)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid user or inactive account."})
			}

			SetPrincipal(c, p)
			c.SetRequest(c.Request().WithContext(logger.WithUserID(ctx, p.ID)))
			return next(c)
		}
	}
}
