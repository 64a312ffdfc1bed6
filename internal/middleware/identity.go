package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

// principalKey is the echo context key of the authenticated identity.
const principalKey = "principal"

// SetPrincipal stores p on the request.  Only the auth gate and tests call it.
func SetPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the identity attached by the auth gate.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// userID identifies the caller for rate limit and cache keys.  Anonymous
// callers share the "guest" bucket of their ip.
func userID(c echo.Context) string {
	p, ok := PrincipalFrom(c)
	if !ok {
		return "guest"
	}
	if p.IsAdmin {
		return "admin"
	}
	return strconv.FormatUint(p.ID, 10)
}
