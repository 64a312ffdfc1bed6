package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// TrapHandler serves /api/trap.
type TrapHandler struct {
	Traps *repository.TrapRepo
}

// NewTrapHandler builds a TrapHandler.
func NewTrapHandler(r *repository.TrapRepo) *TrapHandler {
	return &TrapHandler{Traps: r}
}

// Create adds a trap to the caller's company.  Admins pick the company
// with ?company_id.
func (h *TrapHandler) Create(c echo.Context) error {
	var req model.NewTrap
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	p := principal(c)
	cid, okCo := companyOf(p, queryUint(c, "company_id"))
	if !okCo {
		return noCompany(c)
	}
	req.CompanyID = cid
	req.AddedBy = p.ID
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Traps.Create(ctx, req)
	if err != nil {
		return storeError(c, err, "Trap code")
	}
	return created(c, id, "Trap created successfully")
}

// List handles GET /api/trap/traps with optional ?customer_id and ?location_id.
func (h *TrapHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Traps.List(ctx, principal(c).Scope(), model.TrapFilter{
		CustomerID: queryUint(c, "customer_id"),
		LocationID: queryUint(c, "location_id"),
	})
	if err != nil {
		return storeError(c, err, "Trap")
	}
	return items(c, list)
}

// Update handles PUT /api/trap/:id.
func (h *TrapHandler) Update(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.TrapUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Traps.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Trap")
	}
	return ok(c, "Trap updated successfully")
}

// Delete handles DELETE /api/trap/:id.
func (h *TrapHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Traps.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Trap")
	}
	return ok(c, "Trap deleted successfully")
}
