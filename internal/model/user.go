package model

import "time"

// Authentication providers stored in users.auth_type.
const (
    AuthNormal   = "normal"
    AuthGoogle   = "google"
    AuthFacebook = "facebook"
    AuthApple    = "apple"
)

// IsSocialProvider reports whether t names one of the supported identity providers.
func IsSocialProvider(t string) bool {
    return t == AuthGoogle || t == AuthFacebook || t == AuthApple
}

// User represents a row in the `users` table.  A user belongs to at most
// one company.  Password-based accounts carry a bcrypt hash; social accounts
// carry one provider id per provider they have linked.  The OTP columns hold
// the single pending code for the account, if any.
//
// Fields tagged json:"-" never leave the process.
type User struct {
    ID             uint64     `json:"id"`              // users.id
    CompanyID      *uint64    `json:"company_id"`      // users.company_id (nullable until a company exists)
    AddedBy        *uint64    `json:"added_by"`        // users.added_by (owner that created this user)
    FirstName      string     `json:"first_name"`      // users.first_name
    LastName       string     `json:"last_name"`       // users.last_name
    Email          string     `json:"email"`           // users.email (natural key)
    PasswordHash   *string    `json:"-"`               // users.password (null for social-only accounts)
    Mobile         *string    `json:"mobile"`          // users.mobile
    Address        *string    `json:"address"`         // users.address
    City           *string    `json:"city"`            // users.city
    Country        *string    `json:"country"`         // users.country
    Zip            *string    `json:"zip"`             // users.zip
    Vat            *string    `json:"vat"`             // users.vat
    ProfileImage   *string    `json:"profile_image"`   // users.profile_image (path under uploads/)
    IsCompanyOwner bool       `json:"is_company_owner"` // users.is_company_owner
    AuthType       string     `json:"auth_type"`       // users.auth_type
    GoogleID       *string    `json:"google_id"`
    GoogleAvatar   *string    `json:"google_avatar"`
    FacebookID     *string    `json:"facebook_id"`
    FacebookAvatar *string    `json:"facebook_avatar"`
    AppleID        *string    `json:"apple_id"`
    AppleAvatar    *string    `json:"apple_avatar"`
    IsActive       bool       `json:"is_active"`  // users.is_active
    IsDeleted      bool       `json:"is_deleted"` // users.is_deleted (soft delete marker)
    OTPCode        *string    `json:"-"`          // users.otp_code
    OTPExpiry      *time.Time `json:"-"`          // users.otp_expiry
    CreatedAt      time.Time  `json:"created_at"`
    UpdatedAt      time.Time  `json:"updated_at"`
}

// ProviderID returns the stored id for the given provider, or "" when unset.
func (u *User) ProviderID(provider string) string {
    var p *string
    switch provider {
    case AuthGoogle:
        p = u.GoogleID
    case AuthFacebook:
        p = u.FacebookID
    case AuthApple:
        p = u.AppleID
    }
    if p == nil {
        return ""
    }
    return *p
}

// Company returns the company id, 0 when the user has none.
func (u *User) Company() uint64 {
    if u.CompanyID == nil {
        return 0
    }
    return *u.CompanyID
}

// FullName joins first and last name.
func (u *User) FullName() string {
    if u.LastName == "" {
        return u.FirstName
    }
    return u.FirstName + " " + u.LastName
}

// NewCompanyUser is the payload an owner submits to add a user to its company.
type NewCompanyUser struct {
    FirstName string  `json:"first_name" validate:"required"`
    LastName  string  `json:"last_name"`
    Email     string  `json:"email" validate:"required,email"`
    Password  string  `json:"password" validate:"required,min=6"`
    Mobile    *string `json:"mobile"`
}

// CompanyUserUpdate is a typed partial update; nil fields are left untouched.
type CompanyUserUpdate struct {
    FirstName *string `json:"first_name"`
    LastName  *string `json:"last_name"`
    Email     *string `json:"email" validate:"omitempty,email"`
    Mobile    *string `json:"mobile"`
    Password  *string `json:"password" validate:"omitempty,min=6"`
}
