package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/middleware"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/validator"
)

// requestTimeout bounds the store calls of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// principal returns the identity attached by the auth gate.  Routes using
// it are always mounted behind middleware.Auth.
func principal(c echo.Context) model.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// invalid writes a 400 for a bind or validation failure.
func invalid(c echo.Context, err error) error {
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Validation failed", "fields": ve.Errors})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
}

// queryUint reads an optional positive integer query parameter; 0 when absent.
func queryUint(c echo.Context, name string) uint64 {
	n, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

// serverError logs err and answers with a generic 500.
func serverError(c echo.Context, err error) error {
	logger.FromContext(c.Request().Context()).Error("request failed",
		"method", c.Request().Method, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}

// storeError maps repository sentinels to responses.  what names the
// entity in 404 and 409 messages.
func storeError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already exists"})
	case errors.Is(err, repository.ErrCompanyNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Company name already exists"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": what + " already exists"})
	case errors.Is(err, repository.ErrBadReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Exterminator, customer or location not found in this company"})
	case errors.Is(err, repository.ErrNoChanges):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No fields to update"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	}
	return serverError(c, err)
}

func items(c echo.Context, v any) error {
	return c.JSON(http.StatusOK, echo.Map{"items": v})
}

func created(c echo.Context, id uint64, msg string) error {
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": msg})
}

func ok(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}

// companyOf returns the company new rows are created in.  Admins pass it
// explicitly; everyone else uses their own company.
func companyOf(p model.Principal, requested uint64) (uint64, bool) {
	if p.IsAdmin {
		return requested, requested != 0
	}
	return p.Company(), p.Company() != 0
}

func noCompany(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_id is required"})
}

// Health answers load balancer health checks.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Banner is served at / so a browser hit shows the API is up.
func Banner(c echo.Context) error {
	return c.String(http.StatusOK, "Pestiq API is running")
}
