package model

// Effective roles. "user" from older clients is read as RoleExterminator.
const (
    RoleAdmin        = "admin"
    RoleOwner        = "company_owner"
    RoleExterminator = "exterminator"
)

// Principal is the authenticated identity attached to a request by the auth gate.
// CompanyID is nil for the admin, who is not scoped to any tenant.
type Principal struct {
    ID        uint64  `json:"id"`
    Role      string  `json:"role"`
    CompanyID *uint64 `json:"company_id"`
    Email     string  `json:"email"`
    Name      string  `json:"name"`
    IsAdmin   bool    `json:"isAdmin"`
}

// Scope returns the tenant filter for data access: nil means all tenants
// (admin only).  A non-admin without a company gets 0, which matches no row.
func (p Principal) Scope() *uint64 {
    if p.IsAdmin {
        return nil
    }
    if p.CompanyID == nil {
        zero := uint64(0)
        return &zero
    }
    id := *p.CompanyID
    return &id
}

// Company returns the principal's company id or 0.
func (p Principal) Company() uint64 {
    if p.CompanyID == nil {
        return 0
    }
    return *p.CompanyID
}

// IsOwner reports whether the principal owns its company.
func (p Principal) IsOwner() bool { return p.Role == RoleOwner }
