package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// MeetingHandler serves /api/meetings.
type MeetingHandler struct {
	Meetings *repository.MeetingRepo
}

// NewMeetingHandler builds a MeetingHandler.
func NewMeetingHandler(r *repository.MeetingRepo) *MeetingHandler {
	return &MeetingHandler{Meetings: r}
}

type meetingStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

// Create schedules a pending meeting; the caller is recorded as its creator.
func (h *MeetingHandler) Create(c echo.Context) error {
	var req model.NewMeeting
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	p := principal(c)
	cid, okCo := companyOf(p, req.CompanyID)
	if !okCo {
		return noCompany(c)
	}
	req.CompanyID = cid
	req.CreatedBy = p.ID
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Meetings.Create(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrBadReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Exterminator, customer or location not found in this company"})
		}
		return storeError(c, err, "Meeting")
	}
	return created(c, id, "Meeting created successfully")
}

func (h *MeetingHandler) list(c echo.Context, f model.MeetingFilter) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Meetings.List(ctx, f)
	if err != nil {
		return storeError(c, err, "Meeting")
	}
	return items(c, list)
}

// List handles GET /api/meetings/get-all with an optional ?exterminator_id.
func (h *MeetingHandler) List(c echo.Context) error {
	return h.list(c, model.MeetingFilter{
		CompanyID:      principal(c).Scope(),
		ExterminatorID: queryUint(c, "exterminator_id"),
	})
}

// Assigned lists the caller's own meetings.
func (h *MeetingHandler) Assigned(c echo.Context) error {
	p := principal(c)
	return h.list(c, model.MeetingFilter{CompanyID: p.Scope(), ExterminatorID: p.ID})
}

// ByExterminator handles GET /api/meetings/exterminator/:exterminator_id.
func (h *MeetingHandler) ByExterminator(c echo.Context) error {
	id, okID := parseID(c, "exterminator_id")
	if !okID {
		return badID(c, "exterminator_id")
	}
	return h.list(c, model.MeetingFilter{CompanyID: principal(c).Scope(), ExterminatorID: id})
}

// ByCompany handles GET /api/meetings/company/:company_id.  Only admins may ask for another company.
func (h *MeetingHandler) ByCompany(c echo.Context) error {
	id, okID := parseID(c, "company_id")
	if !okID {
		return badID(c, "company_id")
	}
	p := principal(c)
	if !p.IsAdmin && p.Company() != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return h.list(c, model.MeetingFilter{CompanyID: &id})
}

// Get handles GET /api/meetings/:id.
func (h *MeetingHandler) Get(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Meetings.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Meeting")
	}
	return c.JSON(http.StatusOK, m)
}

// Update handles PUT /api/meetings/:id.
func (h *MeetingHandler) Update(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.MeetingUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Meetings.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Meeting")
	}
	return ok(c, "Meeting updated successfully")
}

// SetStatus handles PUT /api/meetings/:id/status.
func (h *MeetingHandler) SetStatus(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req meetingStatusReq
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Meetings.SetStatus(ctx, id, principal(c).Scope(), req.Status); err != nil {
		return storeError(c, err, "Meeting")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Meeting status updated", "status": req.Status})
}

// Delete handles DELETE /api/meetings/:id.
func (h *MeetingHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Meetings.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Meeting")
	}
	return ok(c, "Meeting deleted successfully")
}
