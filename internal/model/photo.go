package model

import (
    "encoding/json"
    "time"
)

// Photo is a trap-board capture uploaded from the field, with the
// per-family counts reported by the detection engine.
type Photo struct {
    ID             uint64    `json:"photo_id"`
    MeetingID      uint64    `json:"meeting_id"`
    ExterminatorID uint64    `json:"exterminator_id"`
    CustomerID     uint64    `json:"customer_id"`
    LocationID     *uint64   `json:"location_id"`
    TrapName       *string   `json:"trap_name"`
    ImageURL       string    `json:"image_url"`
    CreatedAt      time.Time `json:"created_at"`

    ExterminatorName *string `json:"exterminator_name"`
    CustomerName     *string `json:"customer_name"`
    LocationName     *string `json:"location_name"`
    CompanyName      *string `json:"company_name"`

    AIResults []AIResult `json:"ai_results"`
}

// SpeciesCount is one entry of a detection summary.  The engine emits
// "name"; older clients send "species".
type SpeciesCount struct {
    Name    string `json:"name"`
    Species string `json:"species,omitempty"`
    Count   int    `json:"count"`
}

// Label returns whichever of Name or Species is set.
func (s SpeciesCount) Label() string {
    if s.Name != "" {
        return s.Name
    }
    return s.Species
}

// AnalysisResult is the JSON document produced by the detection engine.
type AnalysisResult struct {
    TotalInsects int            `json:"total_insects"`
    Top5Species  []SpeciesCount `json:"top5_species"`
    Families     []SpeciesCount `json:"families"`
}

// NewPhoto is the upload payload.  ProcessedImage is base64, optionally as a data URL.
type NewPhoto struct {
    MeetingID      uint64         `json:"meeting_id" validate:"required"`
    CustomerID     uint64         `json:"customer_id" validate:"required"`
    LocationID     *uint64        `json:"location_id"`
    TrapName       *string        `json:"trap_name"`
    Summary        *AnalysisResult `json:"summary" validate:"required"`
    ProcessedImage string         `json:"processed_image" validate:"required"`
}

// AIResult mirrors `ai_results`: either a single detected pest with its
// count, or a full engine document in ResultJSON.
type AIResult struct {
    ID           uint64          `json:"id"`
    PhotoID      uint64          `json:"photo_id"`
    DetectedPest *string         `json:"species"`
    Confidence   *float64        `json:"confidence"`
    TotalCount   *int            `json:"total_count,omitempty"`
    ResultJSON   json.RawMessage `json:"result_json,omitempty"`
    CreatedAt    time.Time       `json:"created_at"`
}

type NewAIResult struct {
    PhotoID      uint64          `json:"photo_id" validate:"required"`
    DetectedPest *string         `json:"detected_pest"`
    Confidence   *float64        `json:"confidence"`
    TotalCount   *int            `json:"total_count"`
    ResultJSON   json.RawMessage `json:"result_json"`
}

type AIResultUpdate struct {
    DetectedPest *string         `json:"detected_pest"`
    Confidence   *float64        `json:"confidence"`
    TotalCount   *int            `json:"total_count"`
    ResultJSON   json.RawMessage `json:"result_json"`
}

// InsectRecord is one photo's family breakdown for the insect report.
type InsectRecord struct {
    ID           uint64  `json:"id"`
    RecordDate   string  `json:"record_date"`
    LocationName *string `json:"location_name"`
    TrapName     *string `json:"trap_name"`
    Araneae      int     `json:"araneae"`
    Coleoptera   int     `json:"coleoptera"`
    Diptera      int     `json:"diptera"`
    Hemiptera    int     `json:"hemiptera"`
    Hymenoptera  int     `json:"hymenoptera"`
    Lepidoptera  int     `json:"lepidoptera"`
}
