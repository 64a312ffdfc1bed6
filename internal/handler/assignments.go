package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// AssignmentHandler grants exterminators access to customers and locations.
type AssignmentHandler struct {
	Assignments *repository.AssignmentRepo
}

// NewAssignmentHandler builds the assignment handler.
func NewAssignmentHandler(r *repository.AssignmentRepo) *AssignmentHandler {
	return &AssignmentHandler{Assignments: r}
}

// Assign handles POST /assign and gives an exterminator a customer location.
func (h *AssignmentHandler) Assign(c echo.Context) error {
	var req model.NewAssignment
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	cid, okCo := companyOf(principal(c), queryUint(c, "company_id"))
	if !okCo {
		return noCompany(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Assignments.Assign(ctx, cid, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User, customer or location not found in this company"})
		}
		return storeError(c, err, "Assignment")
	}
	return created(c, id, "Assignment created successfully")
}

// ByUser handles GET /user/:user_id.
func (h *AssignmentHandler) ByUser(c echo.Context) error {
	id, okID := parseID(c, "user_id")
	if !okID {
		return badID(c, "user_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Assignments.ByUser(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Assignment")
	}
	return items(c, list)
}

// Delete handles DELETE /:id.
func (h *AssignmentHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Assignments.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Assignment")
	}
	return ok(c, "Assignment removed")
}

// LocationsByCustomer handles GET /by-customer/:customer_id.
func (h *AssignmentHandler) LocationsByCustomer(c echo.Context) error {
	id, okID := parseID(c, "customer_id")
	if !okID {
		return badID(c, "customer_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Assignments.LocationsByCustomer(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Location")
	}
	return items(c, list)
}
