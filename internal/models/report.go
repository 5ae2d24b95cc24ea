package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxReportReasonLength = 200

// UserReport is one user flagging another. A reporter holds at most one
// report per target.
type UserReport struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TargetUserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reporter_target,priority:2" json:"targetUserId"`
	TargetUser   User      `gorm:"foreignKey:TargetUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ReporterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reporter_target,priority:1" json:"reporterId"`
	Reporter     User      `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reason       string    `gorm:"size:200;not null" json:"reason"`
	ReportedAt   time.Time `gorm:"not null" json:"reportedAt"`
}
