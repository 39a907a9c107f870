package missions

import (
	"time"

	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

const (
	JoinStatusJoined        = "joined"
	JoinStatusAlreadyJoined = "already_joined"
)

// Mission is a catalog entry. Its description is the claim proofs are checked against.
type Mission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string    `gorm:"size:100;not null;uniqueIndex" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	PointsReward int       `gorm:"not null;check:points_reward > 0" json:"points_reward"`
	Icon         string    `gorm:"size:50" json:"icon"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Mission) TableName() string {
	return "missions"
}

// UserMission is one user's enrollment in one mission.
type UserMission struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_mission" json:"user_id"`
	MissionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_mission" json:"mission_id"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProofRef     *string    `gorm:"size:80" json:"proof_ref,omitempty"`
	AIAnalysis   *string    `gorm:"type:text" json:"ai_analysis"`
	AIConfidence int        `gorm:"not null;default:0" json:"ai_confidence"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"` // set on join, never by proofs
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Mission      *Mission   `gorm:"foreignKey:MissionID;constraint:OnDelete:CASCADE" json:"mission,omitempty"`
}

func (UserMission) TableName() string {
	return "user_missions"
}

// MissionStatus maps a proof outcome to the enrollment status it earns.
func MissionStatus(o verification.Outcome) string {
	if o.Approved {
		return StatusCompleted
	}
	return StatusPending
}

// --- DTOs ---

type JoinResult struct {
	Status     string       `json:"status"`
	Enrollment *UserMission `json:"enrollment"`
}

type ProofResult struct {
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
	Awarded    int    `json:"points_awarded"`
}

type MissionInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PointsReward int    `json:"points_reward"`
	Icon         string `json:"icon"`
}

type MissionPatch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	PointsReward *int    `json:"points_reward"`
	Icon         *string `json:"icon"`
}

type ApproveResult struct {
	Enrollment *UserMission `json:"enrollment"`
	Awarded    int          `json:"points_awarded"`
}

type ProofListResponse struct {
	Data       []UserMission `json:"data"`
	TotalCount int64         `json:"total_count"`
}
