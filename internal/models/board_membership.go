package models

import "gorm.io/gorm"

type BoardMembership struct {
	gorm.Model

	UserID  uint `gorm:"not null;uniqueIndex:idx_user_board"`
	BoardID uint `gorm:"not null;uniqueIndex:idx_user_board"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Board Board `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
