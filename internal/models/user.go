package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsSuperuser  bool   `gorm:"default:false"`

	// Relationships
	OwnedBoards      []Board           `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	BoardMemberships []BoardMembership `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTasks    []Task            `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	ReviewTasks      []Task            `gorm:"foreignKey:ReviewerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
