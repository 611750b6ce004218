package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	TaskID uint `gorm:"not null;index"`
	// Author is the username captured when the comment was written, not a
	// foreign key. Renaming the account later must not rewrite history.
	Author  string `gorm:"not null"`
	Content string `gorm:"not null"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
