package models

import (
	"gorm.io/datatypes"
)

type ReminderRule struct {
	BaseModel

	BoardID     uint           `gorm:"not null;index"`
	TriggerType string         `gorm:"not null"` // "task_due_soon", "task_overdue"
	Channel     string         `gorm:"not null"` // "discord", "slack"
	IsActive    bool           `gorm:"default:true"`
	Config      datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Board Board `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
