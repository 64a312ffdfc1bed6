package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// CustomerHandler serves /api/customers.
type CustomerHandler struct {
	Customers *repository.CustomerRepo
}

// NewCustomerHandler builds a CustomerHandler.
func NewCustomerHandler(r *repository.CustomerRepo) *CustomerHandler {
	return &CustomerHandler{Customers: r}
}

// Create handles POST /api/customers/add.
func (h *CustomerHandler) Create(c echo.Context) error {
	var req model.NewCustomer
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	cid, okCo := companyOf(principal(c), req.CompanyID)
	if !okCo {
		return noCompany(c)
	}
	req.CompanyID = cid
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Customers.Create(ctx, req)
	if err != nil {
		return storeError(c, err, "Customer")
	}
	return created(c, id, "Customer created successfully")
}

// List handles GET /api/customers/get-all.
func (h *CustomerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Customers.List(ctx, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Customer")
	}
	return items(c, list)
}

// Get handles GET /api/customers/get/:id.
func (h *CustomerHandler) Get(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cu, err := h.Customers.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Customer")
	}
	return c.JSON(http.StatusOK, cu)
}

// Update handles PUT /api/customers/:id.
func (h *CustomerHandler) Update(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.CustomerUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Customers.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Customer")
	}
	return ok(c, "Customer updated successfully")
}

// Delete handles DELETE /api/customers/:id.  Customers are soft-deleted.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Customers.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Customer")
	}
	return ok(c, "Customer deleted successfully")
}
