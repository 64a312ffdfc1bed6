package model

import "time"

// Subscription states of a company.
const (
    SubscriptionInactive  = "inactive"
    SubscriptionActive    = "active"
    SubscriptionCancelled = "cancelled"
)

// Company is a tenant: the billing and data-isolation boundary.
type Company struct {
    ID                    uint64     `json:"id"`
    Name                  string     `json:"name"`
    Email                 *string    `json:"email"`
    Phone                 *string    `json:"phone"`
    Address               *string    `json:"address"`
    SubscriptionStatus    string     `json:"subscription_status"`
    SubscriptionPlan      *string    `json:"subscription_plan"`
    SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
    PhotosLimit           int        `json:"photos_limit"`
    PhotosUsed            int        `json:"photos_used"`
    CreatedAt             time.Time  `json:"created_at"`
}

// CompanyWithOwner is one row of the admin companies listing.  Owner
// columns are nil when the company has no live owner.
type CompanyWithOwner struct {
    CompanyID             uint64     `json:"company_id"`
    CompanyName           string     `json:"company_name"`
    CompanyEmail          *string    `json:"company_email"`
    CompanyPhone          *string    `json:"company_phone"`
    CompanyAddress        *string    `json:"company_address"`
    SubscriptionStatus    string     `json:"subscription_status"`
    SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
    CompanyCreatedAt      time.Time  `json:"company_created_at"`
    OwnerID               *uint64    `json:"owner_id"`
    OwnerFirstName        *string    `json:"owner_first_name"`
    OwnerLastName         *string    `json:"owner_last_name"`
    OwnerEmail            *string    `json:"owner_email"`
    OwnerMobile           *string    `json:"owner_mobile"`
    OwnerCity             *string    `json:"owner_city"`
    OwnerCountry          *string    `json:"owner_country"`
    OwnerCreatedAt        *time.Time `json:"owner_created_at"`
}

// DashboardStats holds the aggregate counters shown on the dashboard.
type DashboardStats struct {
    TotalCustomers     int64 `json:"total_customers"`
    TotalExterminators int64 `json:"total_exterminators"`
    TotalMeetings      int64 `json:"total_meetings"`
    TotalPhotos        int64 `json:"total_photos"`
    TotalLocations     int64 `json:"total_locations"`
}
