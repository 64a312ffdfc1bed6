package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
)

// BillingHandler serves the invoice and subscription stores.
type BillingHandler struct {
	Invoices      *repository.InvoiceRepo
	Subscriptions *repository.SubscriptionRepo
}

// NewBillingHandler serves invoices and subscriptions.
func NewBillingHandler(inv *repository.InvoiceRepo, subs *repository.SubscriptionRepo) *BillingHandler {
	return &BillingHandler{Invoices: inv, Subscriptions: subs}
}

// ----- invoices -----

// CreateInvoice handles POST /api/invoices.
func (h *BillingHandler) CreateInvoice(c echo.Context) error {
	var req model.NewInvoice
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
	id, err := h.Invoices.Create(ctx, req)
	if err != nil {
		return storeError(c, err, "Invoice number")
	}
	return created(c, id, "Invoice created successfully")
}

// ListInvoices handles GET /api/invoices.
func (h *BillingHandler) ListInvoices(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Invoices.List(ctx, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Invoice")
	}
	return items(c, list)
}

// GetInvoice handles GET /api/invoices/:id.
func (h *BillingHandler) GetInvoice(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inv, err := h.Invoices.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Invoice")
	}
	return c.JSON(http.StatusOK, inv)
}

// UpdateInvoice handles PUT /api/invoices/:id.
func (h *BillingHandler) UpdateInvoice(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.InvoiceUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Invoices.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Invoice")
	}
	return ok(c, "Invoice updated successfully")
}

// DeleteInvoice handles DELETE /api/invoices/:id.
func (h *BillingHandler) DeleteInvoice(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Invoices.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Invoice")
	}
	return ok(c, "Invoice deleted successfully")
}

// ----- subscriptions -----

// CreateSubscription handles POST /api/subscriptions.  end_date may not precede start_date.
func (h *BillingHandler) CreateSubscription(c echo.Context) error {
	var req model.NewSubscription
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	if req.EndDate.Before(*req.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
	}
	cid, okCo := companyOf(principal(c), req.CompanyID)
	if !okCo {
		return noCompany(c)
	}
	req.CompanyID = cid
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Subscriptions.Create(ctx, req)
	if err != nil {
		return storeError(c, err, "Subscription")
	}
	return created(c, id, "Subscription created successfully")
}

// ListSubscriptions handles GET /api/subscriptions.
func (h *BillingHandler) ListSubscriptions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Subscriptions.List(ctx, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Subscription")
	}
	return items(c, list)
}

// GetSubscription handles GET /api/subscriptions/:id.
func (h *BillingHandler) GetSubscription(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Subscriptions.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Subscription")
	}
	return c.JSON(http.StatusOK, s)
}

// UpdateSubscription handles PUT /api/subscriptions/:id.
func (h *BillingHandler) UpdateSubscription(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.SubscriptionUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Subscriptions.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "Subscription")
	}
	return ok(c, "Subscription updated successfully")
}

// CancelSubscription handles POST /api/subscriptions/:id/cancel and deactivates it.
func (h *BillingHandler) CancelSubscription(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Subscriptions.Cancel(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "Subscription")
	}
	return ok(c, "Subscription cancelled")
}
