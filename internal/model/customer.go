package model

import "time"

// Customer is a client of a pest-control company.
type Customer struct {
    ID        uint64    `json:"id"`
    CompanyID uint64    `json:"company_id"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Phone     string    `json:"phone"`
    Address   *string   `json:"address"`
    CreatedAt time.Time `json:"created_at"`
}

type NewCustomer struct {
    CompanyID uint64  `json:"company_id"`
    Name      string  `json:"name" validate:"required"`
    Email     string  `json:"email" validate:"required,email"`
    Phone     string  `json:"phone" validate:"required"`
    Address   *string `json:"address"`
}

type CustomerUpdate struct {
    Name    *string `json:"name"`
    Email   *string `json:"email" validate:"omitempty,email"`
    Phone   *string `json:"phone"`
    Address *string `json:"address"`
}
