package model

import "time"

// Location is a customer site where traps are installed and meetings happen.
type Location struct {
    ID         uint64    `json:"location_id"`
    CompanyID  uint64    `json:"company_id"`
    CustomerID *uint64   `json:"customer_id"`
    Name       string    `json:"location_name"`
    Address    *string   `json:"address"`
    Street     *string   `json:"street"`
    City       *string   `json:"city"`
    State      *string   `json:"state"`
    Country    *string   `json:"country"`
    PostCode   *string   `json:"post_code"`
    Latitude   *float64  `json:"latitude"`
    Longitude  *float64  `json:"longitude"`
    Status     int       `json:"status"`
    CreatedAt  time.Time `json:"created_at"`

    CustomerName    *string `json:"customer_name"`
    CustomerEmail   *string `json:"customer_email"`
    CustomerPhone   *string `json:"customer_phone"`
    CustomerAddress *string `json:"customer_address"`
    CompanyName     *string `json:"company_name"`
    CompanyEmail    *string `json:"company_email"`
    CompanyPhone    *string `json:"company_phone"`
    CompanyAddress  *string `json:"company_address"`
}

type NewLocation struct {
    CompanyID  uint64   `json:"company_id"`
    CustomerID uint64   `json:"customer_id" validate:"required"`
    Name       string   `json:"name" validate:"required"`
    Address    *string  `json:"address"`
    Street     *string  `json:"street"`
    City       *string  `json:"city"`
    State      *string  `json:"state"`
    Country    *string  `json:"country"`
    PostCode   *string  `json:"post_code"`
    Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
    Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
    Status     *int     `json:"status" validate:"omitempty,oneof=0 1"`
}

type LocationUpdate struct {
    Name      *string  `json:"name"`
    Address   *string  `json:"address"`
    Street    *string  `json:"street"`
    City      *string  `json:"city"`
    State     *string  `json:"state"`
    Country   *string  `json:"country"`
    PostCode  *string  `json:"post_code"`
    Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
    Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
    Status    *int     `json:"status" validate:"omitempty,oneof=0 1"`
}

// TrapStatistic aggregates photo activity per trap.
type TrapStatistic struct {
    TrapID              uint64     `json:"trap_id"`
    TrapName            string     `json:"trap_name"`
    LocationName        *string    `json:"location_name"`
    TotalPhotos         int64      `json:"total_photos"`
    UniqueExterminators int64      `json:"unique_exterminators"`
    LastActivity        *time.Time `json:"last_activity"`
}

// ActivityFilter narrows trap statistics and insect reports.  Dates are YYYY-MM-DD.
type ActivityFilter struct {
    StartDate  string
    EndDate    string
    TrapID     uint64
    LocationID uint64
}
