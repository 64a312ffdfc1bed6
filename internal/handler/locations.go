package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// LocationHandler serves /api/locations and its statistics.
type LocationHandler struct {
	Locations *repository.LocationRepo
}

// NewLocationHandler builds a LocationHandler.
func NewLocationHandler(r *repository.LocationRepo) *LocationHandler {
	return &LocationHandler{Locations: r}
}

// activityFilter reads ?start_date&end_date&trap_id&location_id.  A date
// that is not YYYY-MM-DD drops the window.
func activityFilter(c echo.Context) model.ActivityFilter {
	f := model.ActivityFilter{
		StartDate:  c.QueryParam("start_date"),
		EndDate:    c.QueryParam("end_date"),
		TrapID:     queryUint(c, "trap_id"),
		LocationID: queryUint(c, "location_id"),
	}
	_, e1 := time.Parse(time.DateOnly, f.StartDate)
	_, e2 := time.Parse(time.DateOnly, f.EndDate)
	if e1 != nil || e2 != nil {
		f.StartDate, f.EndDate = "", ""
	}
	return f
}

// Create handles POST /api/locations/add.  The customer must belong to the same company.
func (h *LocationHandler) Create(c echo.Context) error {
	var req model.NewLocation
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
	id, err := h.Locations.Create(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Customer not found"})
		}
		return storeError(c, err, "Location")
	}
	return created(c, id, "Location created successfully")
}

// List handles GET /api/locations, optionally narrowed by ?customer_id.
func (h *LocationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Locations.List(ctx, principal(c).Scope(), queryUint(c, "customer_id"))
	if err != nil {
		return storeError(c, err, "Location")
	}
	return items(c, list)
}

// Statistics handles GET /api/locations/statistics and counts photos per trap.
func (h *LocationHandler) Statistics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	stats, err := h.Locations.TrapStatistics(ctx, principal(c).Scope(), activityFilter(c))
	if err != nil {
		return storeError(c, err, "Trap")
	}
	return items(c, stats)
}

// Get handles GET /api/locations/:id.
func (h *LocationHandler) Get(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := h.Locations.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Location")
	}
	return c.JSON(http.StatusOK, l)
}

// Update handles PUT /api/locations/:id.
func (h *LocationHandler) Update(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.LocationUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Locations.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Location")
	}
	return ok(c, "Location updated successfully")
}

// Delete handles DELETE /api/locations/:id.
func (h *LocationHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Locations.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Location")
	}
	return ok(c, "Location deleted successfully")
}
