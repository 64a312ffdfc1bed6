package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// ReportHandler serves the admin companies list, the dashboard counters
// and the insect report.
type ReportHandler struct {
	Companies *repository.CompanyRepo
	Photos    *repository.PhotoRepo
}

// NewReportHandler builds the admin and dashboard reports.
func NewReportHandler(companies *repository.CompanyRepo, photos *repository.PhotoRepo) *ReportHandler {
	return &ReportHandler{Companies: companies, Photos: photos}
}

// ListCompanies handles GET /api/admin/companies and lists every tenant with its owner.
func (h *ReportHandler) ListCompanies(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Companies.ListWithOwners(ctx)
	if err != nil {
		return storeError(c, err, "Company")
	}
	return items(c, list)
}

// Stats returns global counters for the admin and company counters for
// everyone else.
func (h *ReportHandler) Stats(c echo.Context) error {
	p := principal(c)
	var owner uint64
	if !p.IsAdmin {
		owner = p.ID
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	stats, err := h.Companies.Stats(ctx, p.Scope(), owner)
	if err != nil {
		return storeError(c, err, "Company")
	}
	return c.JSON(http.StatusOK, stats)
}

// Insects handles GET /api/insect/get-all with the same filters as location statistics.
func (h *ReportHandler) Insects(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Photos.InsectReport(ctx, principal(c).Scope(), activityFilter(c))
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return items(c, list)
}
