package model

import "time"

// Invoice mirrors the `invoices` table.  PlanName is joined from subscriptions.
type Invoice struct {
    ID             uint64     `json:"id"`
    CompanyID      uint64     `json:"company_id"`
    SubscriptionID *uint64    `json:"subscription_id"`
    InvoiceNumber  string     `json:"invoice_number"`
    Amount         float64    `json:"amount"`
    Currency       string     `json:"currency"`
    Status         string     `json:"status"`
    IssuedDate     *time.Time `json:"issued_date"`
    DueDate        *time.Time `json:"due_date"`
    CreatedAt      time.Time  `json:"created_at"`
    PlanName       *string    `json:"plan_name,omitempty"`
}

type NewInvoice struct {
    CompanyID      uint64     `json:"company_id"`
    SubscriptionID *uint64    `json:"subscription_id"`
    InvoiceNumber  string     `json:"invoice_number" validate:"required"`
    Amount         float64    `json:"amount" validate:"gte=0"`
    Currency       string     `json:"currency" validate:"omitempty,len=3"`
    Status         string     `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
    IssuedDate     *time.Time `json:"issued_date"`
    DueDate        *time.Time `json:"due_date"`
}

type InvoiceUpdate struct {
    Amount     *float64   `json:"amount" validate:"omitempty,gte=0"`
    Currency   *string    `json:"currency" validate:"omitempty,len=3"`
    Status     *string    `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded"`
    IssuedDate *time.Time `json:"issued_date"`
    DueDate    *time.Time `json:"due_date"`
}

// Subscription is one plan period purchased by a company.
type Subscription struct {
    ID          uint64     `json:"id"`
    CompanyID   uint64     `json:"company_id"`
    PlanName    string     `json:"plan_name"`
    PhotosLimit int        `json:"photos_limit"`
    Price       float64    `json:"price"`
    StartDate   *time.Time `json:"start_date"`
    EndDate     *time.Time `json:"end_date"`
    IsActive    bool       `json:"is_active"`
}

type NewSubscription struct {
    CompanyID   uint64     `json:"company_id"`
    PlanName    string     `json:"plan_name" validate:"required"`
    PhotosLimit int        `json:"photos_limit" validate:"gte=0"`
    Price       float64    `json:"price" validate:"gte=0"`
    StartDate   *time.Time `json:"start_date" validate:"required"`
    EndDate     *time.Time `json:"end_date" validate:"required"`
}

type SubscriptionUpdate struct {
    PlanName    *string    `json:"plan_name"`
    PhotosLimit *int       `json:"photos_limit" validate:"omitempty,gte=0"`
    Price       *float64   `json:"price" validate:"omitempty,gte=0"`
    StartDate   *time.Time `json:"start_date"`
    EndDate     *time.Time `json:"end_date"`
    IsActive    *bool      `json:"is_active"`
}
