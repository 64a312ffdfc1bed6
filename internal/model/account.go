package model

import "time"

// Profile is the user joined with its company, as shown on the account page.
type Profile struct {
    ID                    uint64     `json:"id"`
    FirstName             string     `json:"first_name"`
    LastName              string     `json:"last_name"`
    Email                 string     `json:"email"`
    Mobile                *string    `json:"mobile"`
    Address               *string    `json:"address"`
    City                  *string    `json:"city"`
    Country               *string    `json:"country"`
    Zip                   *string    `json:"zip"`
    Vat                   *string    `json:"vat"`
    IsCompanyOwner        bool       `json:"is_company_owner"`
    ProfileImage          *string    `json:"profile_image"`
    CreatedAt             time.Time  `json:"created_at"`
    CompanyID             *uint64    `json:"company_id"`
    CompanyName           *string    `json:"company_name"`
    CompanyEmail          *string    `json:"company_email"`
    CompanyPhone          *string    `json:"company_phone"`
    CompanyAddress        *string    `json:"company_address"`
    SubscriptionStatus    *string    `json:"subscription_status"`
    PhotosLimit           *int       `json:"photos_limit"`
    PhotosUsed            *int       `json:"photos_used"`
    SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
}

// ProfileUpdate carries the user part and the company part of a profile
// edit.  Both parts are written in one transaction.
type ProfileUpdate struct {
    FirstName *string `json:"first_name"`
    LastName  *string `json:"last_name"`
    Email     *string `json:"email" validate:"omitempty,email"`
    Mobile    *string `json:"mobile"`
    Vat       *string `json:"vat"`
    Zip       *string `json:"zip"`
    City      *string `json:"city"`
    Country   *string `json:"country"`

    CompanyName    *string `json:"company_name"`
    CompanyEmail   *string `json:"company_email" validate:"omitempty,email"`
    CompanyPhone   *string `json:"company_phone"`
    CompanyAddress *string `json:"company_address"`
}

// HasCompanyFields reports whether any company column is set.
func (p ProfileUpdate) HasCompanyFields() bool {
    return p.CompanyName != nil || p.CompanyEmail != nil || p.CompanyPhone != nil || p.CompanyAddress != nil
}

// RenewRequest extends a company subscription.
type RenewRequest struct {
    Plan        string      `json:"plan" validate:"required"`
    Amount      float64     `json:"amount" validate:"gte=0"`
    Months      int         `json:"months" validate:"omitempty,min=1,max=36"`
    PaymentInfo PaymentInfo `json:"payment_info"`
}

// PaymentInfo is what the client reports about the payment it took.
type PaymentInfo struct {
    Currency string `json:"currency"`
    Method   string `json:"method"`
    Tx       string `json:"tx"`
}

// RenewResult is returned after a successful renewal.
type RenewResult struct {
    InvoiceID     uint64    `json:"invoice_id"`
    InvoiceNumber string    `json:"invoice_number"`
    NewExpiry     time.Time `json:"new_expiry"`
}

// Payment mirrors the `payments` table.
type Payment struct {
    ID                    uint64    `json:"id"`
    CompanyID             uint64    `json:"company_id"`
    InvoiceID             *uint64   `json:"invoice_id"`
    InvoiceNumber         *string   `json:"invoice_number"`
    Amount                float64   `json:"amount"`
    Currency              string    `json:"currency"`
    PaymentMethod         *string   `json:"payment_method"`
    ProviderTransactionID *string   `json:"provider_transaction_id"`
    Status                string    `json:"status"`
    CreatedAt             time.Time `json:"created_at"`
}
