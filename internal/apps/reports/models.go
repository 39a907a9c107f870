package reports

import (
	"time"

	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusResolved = "resolved"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 5000
	maxCityLen        = 50
	maxCategoryLen    = 50
	defaultCategory   = "general"
)

// Report is a citizen's civic-issue submission. AI fields are written once, at creation.
type Report struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string     `gorm:"size:100;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Category     string     `gorm:"size:50;not null;default:'general'" json:"category"`
	City         string     `gorm:"size:50" json:"city"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	ImageRef     *string    `gorm:"size:80" json:"image_ref,omitempty"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AIAnalysis   *string    `gorm:"type:text" json:"ai_analysis"`
	AIConfidence int        `gorm:"not null;default:0;check:ai_confidence >= 0 AND ai_confidence <= 100" json:"ai_confidence"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ResolvedBy   *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// ReportStatus maps a verification outcome to the status a new report starts in.
func ReportStatus(o verification.Outcome) string {
	if o.Approved {
		return StatusVerified
	}
	return StatusPending
}

// --- DTOs ---

// SubmitInput is a new report as parsed from the multipart form.
type SubmitInput struct {
	Title       string
	Description string
	Category    string
	City        string
	Latitude    *float64
	Longitude   *float64
	Image       []byte
}

// UpdateInput carries the owner-editable fields. Nil means unchanged.
type UpdateInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	City        *string  `json:"city"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type ReportListResponse struct {
	Data       []Report `json:"data"`
	TotalCount int64    `json:"total_count"`
}

// Submitter is the contact info used to notify the report author.
type Submitter struct {
	Username string
	Phone    string
}
