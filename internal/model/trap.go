package model

import "time"

// Trap is a physical monitoring device installed at a location.
type Trap struct {
    ID              uint64     `json:"id"`
    CompanyID       uint64     `json:"company_id"`
    CustomerID      *uint64    `json:"customer_id"`
    LocationID      *uint64    `json:"location_id"`
    TrapCode        string     `json:"trap_code"`
    Name            string     `json:"name"`
    TrapType        *string    `json:"trap_type"`
    InstalledAt     *time.Time `json:"installed_at"`
    LastInspectedAt *time.Time `json:"last_inspected_at"`
    Status          int        `json:"status"`
    Latitude        *float64   `json:"latitude"`
    Longitude       *float64   `json:"longitude"`
    Notes           *string    `json:"notes"`
    AddedBy         *uint64    `json:"added_by"`
    CreatedAt       time.Time  `json:"created_at"`
}

type NewTrap struct {
    CompanyID       uint64     `json:"-"`
    CustomerID      *uint64    `json:"customer_id"`
    LocationID      *uint64    `json:"location_id"`
    TrapCode        string     `json:"trap_code" validate:"required"`
    Name            string     `json:"name" validate:"required"`
    TrapType        *string    `json:"trap_type"`
    InstalledAt     *time.Time `json:"installed_at"`
    LastInspectedAt *time.Time `json:"last_inspected_at"`
    Status          *int       `json:"status"`
    Latitude        *float64   `json:"latitude" validate:"omitempty,latitude"`
    Longitude       *float64   `json:"longitude" validate:"omitempty,longitude"`
    Notes           *string    `json:"notes"`
    AddedBy         uint64     `json:"-"`
}

type TrapUpdate struct {
    CustomerID      *uint64    `json:"customer_id"`
    LocationID      *uint64    `json:"location_id"`
    TrapCode        *string    `json:"trap_code"`
    Name            *string    `json:"name"`
    TrapType        *string    `json:"trap_type"`
    InstalledAt     *time.Time `json:"installed_at"`
    LastInspectedAt *time.Time `json:"last_inspected_at"`
    Status          *int       `json:"status"`
    Latitude        *float64   `json:"latitude" validate:"omitempty,latitude"`
    Longitude       *float64   `json:"longitude" validate:"omitempty,longitude"`
    Notes           *string    `json:"notes"`
}

// TrapFilter narrows trap listings.
type TrapFilter struct {
    CustomerID uint64
    LocationID uint64
}
