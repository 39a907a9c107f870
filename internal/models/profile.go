package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultLevel = "Citizen"

// Profile holds a user's reputation. Points only ever grow through the ledger.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Points    int       `gorm:"not null;default:0;check:points >= 0" json:"points"`
	Level     string    `gorm:"size:50;not null;default:'Citizen'" json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}
