package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	BoardID     uint   `gorm:"not null;index"` // Never reassigned after creation
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:todo"`   // "todo", "in_progress", "review", "done"
	Priority    string `gorm:"not null;default:medium"` // "low", "medium", "high"
	AssigneeID  *uint  `gorm:"index"`
	ReviewerID  *uint  `gorm:"index"`
	DueDate     *time.Time
	CreatedByID *uint `gorm:"index"`

	// Relationships
	Board     Board     `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Reviewer  *User     `gorm:"foreignKey:ReviewerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	CreatedBy *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments  []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
