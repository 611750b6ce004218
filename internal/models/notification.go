package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model

	RuleID  uint   `gorm:"not null;index"`
	TaskID  uint   `gorm:"not null;index"`
	Channel string `gorm:"not null"`
	Status  string `gorm:"not null"` // "sent", "failed"
	Message string
	SentAt  *time.Time

	// Relationships
	Rule ReminderRule `gorm:"foreignKey:RuleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Task Task         `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
