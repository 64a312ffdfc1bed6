package service

import (
	"strings"

	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/utils"
)

// AdminCredentials is the configured admin login.  There is no users row
// for the admin.
type AdminCredentials struct {
	Email    string
	Password string
}

// Claims reports whether email addresses the admin account.
func (a AdminCredentials) Claims(email string) bool {
	return a.Email != "" && strings.EqualFold(strings.TrimSpace(email), a.Email)
}

// Verify checks the admin secret in constant time.
func (a AdminCredentials) Verify(password string) bool {
	return a.Password != "" && utils.SecretEqual(password, a.Password)
}

// RoleOf derives the role of a stored user.
func RoleOf(u *model.User) string {
	if u.IsCompanyOwner {
		return model.RoleOwner
	}
	return model.RoleExterminator
}

// NormalizeRole maps legacy role names onto the current ones.
func NormalizeRole(role string) string {
	switch role {
	case "user":
		return model.RoleExterminator
	case "owner":
		return model.RoleOwner
	}
	return role
}

// PrincipalFor builds the request identity from a stored user.
func PrincipalFor(u *model.User) model.Principal {
	return model.Principal{
		ID:        u.ID,
		Role:      RoleOf(u),
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.FullName(),
	}
}

// AdminPrincipal is the identity of the configured admin.
func AdminPrincipal(email string) model.Principal {
	return model.Principal{ID: 0, Role: model.RoleAdmin, Email: email, Name: "Admin", IsAdmin: true}
}
