package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

// CompanyUserHandler lets owners manage the exterminators of their company.
type CompanyUserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

// NewCompanyUserHandler hashes new passwords with bcryptCost.
func NewCompanyUserHandler(users *repository.UserRepo, bcryptCost int) *CompanyUserHandler {
	return &CompanyUserHandler{Users: users, BcryptCost: bcryptCost}
}

// memberScope is unrestricted for the admin; an owner only sees the users it added.
func memberScope(p model.Principal) repository.MemberScope {
	if p.IsAdmin {
		return repository.MemberScope{}
	}
	return repository.MemberScope{CompanyID: p.Company(), AddedBy: p.ID}
}

// List handles GET /api/company-users/get-all.
func (h *CompanyUserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.ListMembers(ctx, memberScope(principal(c)))
	if err != nil {
		return storeError(c, err, "User")
	}
	return items(c, users)
}

// Get handles GET /api/company-users/getby-id/:id.
func (h *CompanyUserHandler) Get(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetMember(ctx, id, memberScope(principal(c)))
	if err != nil {
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusOK, u)
}

// Profile returns the caller's own users row.
func (h *CompanyUserHandler) Profile(c echo.Context) error {
	p := principal(c)
	if p.IsAdmin {
		return c.JSON(http.StatusOK, p)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusOK, u)
}

// Add creates an active exterminator in the owner's company.
func (h *CompanyUserHandler) Add(c echo.Context) error {
	var req model.NewCompanyUser
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	p := principal(c)
	if p.Company() == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "No company associated with this account"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	taken, err := h.Users.EmailTaken(ctx, req.Email)
	if err != nil {
		return serverError(c, err)
	}
	if taken {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already exists"})
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return serverError(c, err)
	}
	u, err := h.Users.CreateMember(ctx, req, hash, p.Company(), p.ID)
	if err != nil {
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User added successfully", "user": u})
}

// Edit handles PUT /api/company-users/edit/:id.  A new password is re-hashed.
func (h *CompanyUserHandler) Edit(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.CompanyUserUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var hash string
	if req.Password != nil && *req.Password != "" {
		h2, err := utils.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			return serverError(c, err)
		}
		hash = h2
	}
	u, err := h.Users.UpdateMember(ctx, id, memberScope(principal(c)), req, hash)
	if err != nil {
		return storeError(c, err, "User")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": u})
}

// ToggleStatus handles PUT /api/company-users/toggle-status/:id and flips is_active.
func (h *CompanyUserHandler) ToggleStatus(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	active, err := h.Users.ToggleActive(ctx, id, memberScope(principal(c)))
	if err != nil {
		return storeError(c, err, "User")
	}
	msg := "User deactivated"
	if active {
		msg = "User activated"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "is_active": active})
}

// Delete handles DELETE /api/company-users/:id.  The row is soft-deleted.
func (h *CompanyUserHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.SoftDelete(ctx, id, memberScope(principal(c))); err != nil {
		return storeError(c, err, "User")
	}
	return ok(c, "User deleted successfully")
}
