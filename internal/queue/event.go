// Package queue defines domain events exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

import "time"

// Event types published by the API.
const (
    EventUserRegistered        = "user.registered"
    EventUserActivated         = "user.activated"
    EventUserSocialSignup      = "user.social_signup"
    EventPhotoUploaded         = "photo.uploaded"
    EventSubscriptionRenewed   = "subscription.renewed"
    EventSubscriptionCancelled = "subscription.cancelled"
)

// Event is the envelope of every activity message.  Data carries
// type-specific fields (company name, invoice number, photo id...).
type Event struct {
    Type       string         `json:"type"`
    OccurredAt time.Time      `json:"occurred_at"`
    UserID     uint64         `json:"user_id,omitempty"`
    CompanyID  uint64         `json:"company_id,omitempty"`
    Email      string         `json:"email,omitempty"`
    Data       map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ string, userID, companyID uint64) Event {
    return Event{Type: typ, OccurredAt: time.Now().UTC(), UserID: userID, CompanyID: companyID}
}
