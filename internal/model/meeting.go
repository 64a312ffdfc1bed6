package model

import "time"

// Meeting statuses used by the field app.  The column is free text; these
// are the values the clients send.
const (
    MeetingPending    = "pending"
    MeetingInProgress = "in_progress"
    MeetingCompleted  = "completed"
    MeetingCancelled  = "cancelled"
)

// Meeting is a scheduled visit of an exterminator to a customer location.
// The joined name/email columns are filled by list and detail queries.
type Meeting struct {
    ID             uint64     `json:"meeting_id"`
    CompanyID      uint64     `json:"company_id"`
    ExterminatorID *uint64    `json:"exterminator_id"`
    CreatedBy      *uint64    `json:"created_by"`
    CustomerID     *uint64    `json:"customer_id"`
    LocationID     *uint64    `json:"location_id"`
    Title          string     `json:"title"`
    Description    *string    `json:"description"`
    Status         string     `json:"status"`
    ScheduledDate  *time.Time `json:"scheduled_date"`
    CreatedAt      time.Time  `json:"created_at"`

    ExterminatorName  *string `json:"exterminator_name"`
    ExterminatorEmail *string `json:"exterminator_email"`
    ExterminatorPhone *string `json:"exterminator_mobile"`
    CreatedByName     *string `json:"created_by_name"`
    CustomerName      *string `json:"customer_name"`
    CustomerEmail     *string `json:"customer_email"`
    CustomerPhone     *string `json:"customer_phone"`
    LocationName      *string `json:"location_name"`
    LocationAddress   *string `json:"location_address"`
    LocationCity      *string `json:"location_city"`
    CompanyName       *string `json:"company_name"`
}

type NewMeeting struct {
    CompanyID      uint64     `json:"company_id"`
    ExterminatorID uint64     `json:"exterminator_id" validate:"required"`
    CustomerID     uint64     `json:"customer_id" validate:"required"`
    LocationID     uint64     `json:"location_id" validate:"required"`
    Title          string     `json:"title" validate:"required"`
    Description    *string    `json:"description"`
    ScheduledDate  *time.Time `json:"scheduled_date" validate:"required"`
    CreatedBy      uint64     `json:"-"`
}

type MeetingUpdate struct {
    ExterminatorID *uint64    `json:"exterminator_id"`
    CustomerID     *uint64    `json:"customer_id"`
    LocationID     *uint64    `json:"location_id"`
    Title          *string    `json:"title"`
    Description    *string    `json:"description"`
    ScheduledDate  *time.Time `json:"scheduled_date"`
    Status         *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

// MeetingFilter narrows meeting listings.  Zero values mean no filter.
type MeetingFilter struct {
    CompanyID      *uint64
    ExterminatorID uint64
}
