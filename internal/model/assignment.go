package model

import "time"

// Assignment grants an exterminator access to a customer and optionally a
// single location (user_customer_locations).
type Assignment struct {
    ID                    uint64    `json:"assignment_id"`
    UserID                uint64    `json:"user_id"`
    CustomerID            uint64    `json:"customer_id"`
    CustomerName          string    `json:"customer_name"`
    LocationID            *uint64   `json:"location_id"`
    LocationName          *string   `json:"location_name"`
    CanAccessAllLocations bool      `json:"can_access_all_locations"`
    CreatedAt             time.Time `json:"created_at"`
}

type NewAssignment struct {
    UserID                uint64  `json:"user_id" validate:"required"`
    CustomerID            uint64  `json:"customer_id" validate:"required"`
    LocationID            *uint64 `json:"location_id"`
    CanAccessAllLocations bool    `json:"can_access_all_locations"`
}

// LocationRef is the short location form used by pickers.
type LocationRef struct {
    ID        uint64   `json:"id"`
    Name      string   `json:"name"`
    Address   *string  `json:"address"`
    Latitude  *float64 `json:"latitude"`
    Longitude *float64 `json:"longitude"`
}
