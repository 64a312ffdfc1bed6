package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

func TestRoleOf(t *testing.T) {
	assert.Equal(t, model.RoleOwner, RoleOf(&model.User{IsCompanyOwner: true}))
	assert.Equal(t, model.RoleExterminator, RoleOf(&model.User{}))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, model.RoleExterminator, NormalizeRole("user"))
	assert.Equal(t, model.RoleOwner, NormalizeRole("owner"))
	assert.Equal(t, model.RoleAdmin, NormalizeRole(model.RoleAdmin))
}

func TestAdminCredentials(t *testing.T) {
	a := AdminCredentials{Email: "admin@pestiq.io", Password: "s3cret"}
	assert.True(t, a.Claims(" Admin@Pestiq.io "))
	assert.False(t, a.Claims("someone@pestiq.io"))
	assert.True(t, a.Verify("s3cret"))
	assert.False(t, a.Verify("S3cret"))

	var none AdminCredentials
	assert.False(t, none.Claims(""))
	assert.False(t, none.Verify(""))
}

func TestPrincipalFor(t *testing.T) {
	cid := uint64(4)
	p := PrincipalFor(&model.User{ID: 9, FirstName: "Jo", LastName: "Li", Email: "jo@x.com", CompanyID: &cid})
	assert.Equal(t, uint64(9), p.ID)
	assert.Equal(t, model.RoleExterminator, p.Role)
	assert.Equal(t, "Jo Li", p.Name)
	assert.False(t, p.IsAdmin)
	assert.Equal(t, uint64(4), *p.Scope())

	admin := AdminPrincipal("admin@pestiq.io")
	assert.True(t, admin.IsAdmin)
	assert.Nil(t, admin.Scope())
}

func TestSplitName(t *testing.T) {
	f, l := SplitName("Mary Ann  Smith")
	assert.Equal(t, "Mary", f)
	assert.Equal(t, "Ann Smith", l)
	f, l = SplitName("Cher")
	assert.Equal(t, "Cher", f)
	assert.Equal(t, "", l)
	f, l = SplitName("  ")
	assert.Empty(t, f)
	assert.Empty(t, l)
}
