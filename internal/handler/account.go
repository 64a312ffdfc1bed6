package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/storage"
)

const maxImageBytes = 5 << 20

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// AccountHandler serves the signed-in user's own profile and billing.
type AccountHandler struct {
	Accounts *repository.AccountRepo
	Files    storage.Storage
	Events   queue.EventPublisher
}

// NewAccountHandler wires the account pages to storage and the event publisher.
func NewAccountHandler(accounts *repository.AccountRepo, files storage.Storage, events queue.EventPublisher) *AccountHandler {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AccountHandler{Accounts: accounts, Files: files, Events: events}
}

// Profile handles GET /api/account/profile and returns the caller joined with its company.
func (h *AccountHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	prof, err := h.Accounts.Profile(ctx, principal(c).ID)
	if err != nil {
		return storeError(c, err, "User")
	}
	if prof.ProfileImage != nil && *prof.ProfileImage != "" {
		u := h.Files.PublicURL(*prof.ProfileImage)
		prof.ProfileImage = &u
	}
	return c.JSON(http.StatusOK, prof)
}

// UpdateProfile writes user and company fields together.  Company fields
// from a non-owner are ignored.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req model.ProfileUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	p := principal(c)
	var companyID uint64
	if p.IsOwner() {
		companyID = p.Company()
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.UpdateProfile(ctx, p.ID, companyID, req); err != nil {
		return storeError(c, err, "User")
	}
	prof, err := h.Accounts.Profile(ctx, p.ID)
	if err != nil {
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "profile": prof})
}

// UploadImage handles POST /api/account/profile/image and replaces the profile picture.
func (h *AccountHandler) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("profile_image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "profile_image is required"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only image files are allowed"})
	}
	if fh.Size > maxImageBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Image is too large"})
	}
	src, err := fh.Open()
	if err != nil {
		return serverError(c, err)
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	stored, err := h.Files.Save(ctx, storage.NewKey(storage.CategoryProfile, ext), src)
	if err != nil {
		return serverError(c, err)
	}
	public := h.Files.PublicURL(stored)
	if err := h.Accounts.SetProfileImage(ctx, principal(c).ID, stored, public); err != nil {
		_ = h.Files.Delete(ctx, stored)
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile image updated", "profile_image": public})
}

// Invoices handles GET /api/account/invoices with page and limit.
func (h *AccountHandler) Invoices(c echo.Context) error {
	p := principal(c)
	if p.Company() == 0 {
		return items(c, []model.Invoice{})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 20)
	list, err := h.Accounts.Invoices(ctx, p.Company(), page, limit)
	if err != nil {
		return storeError(c, err, "Invoice")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "page": page, "limit": limit})
}

// Payments handles GET /api/account/payments.
func (h *AccountHandler) Payments(c echo.Context) error {
	p := principal(c)
	if p.Company() == 0 {
		return items(c, []model.Payment{})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Accounts.Payments(ctx, p.Company())
	if err != nil {
		return storeError(c, err, "Payment")
	}
	return items(c, list)
}

// Subscription handles GET /api/account/subscription for the caller's company.
func (h *AccountHandler) Subscription(c echo.Context) error {
	p := principal(c)
	if p.Company() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No company associated with this account"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	co, err := h.Accounts.Subscription(ctx, p.Company())
	if err != nil {
		return storeError(c, err, "Company")
	}
	return c.JSON(http.StatusOK, co)
}

// Renew handles POST /api/account/subscription/renew.  It records the invoice and extends the expiry.
func (h *AccountHandler) Renew(c echo.Context) error {
	var req model.RenewRequest
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	p := principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Accounts.RenewSubscription(ctx, p.Company(), req)
	if err != nil {
		return storeError(c, err, "Company")
	}
	ev := queue.NewEvent(queue.EventSubscriptionRenewed, p.ID, p.Company())
	ev.Email = p.Email
	ev.Data = map[string]any{"invoice": res.InvoiceNumber, "plan": req.Plan}
	queue.Emit(ctx, h.Events, ev)
	return c.JSON(http.StatusOK, echo.Map{"message": "Subscription renewed", "result": res})
}

// Cancel handles POST /api/account/subscription/cancel.
func (h *AccountHandler) Cancel(c echo.Context) error {
	p := principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.CancelSubscription(ctx, p.Company()); err != nil {
		return storeError(c, err, "Company")
	}
	ev := queue.NewEvent(queue.EventSubscriptionCancelled, p.ID, p.Company())
	ev.Email = p.Email
	queue.Emit(ctx, h.Events, ev)
	return ok(c, "Subscription cancelled")
}
