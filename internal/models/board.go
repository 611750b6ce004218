package models

import "gorm.io/gorm"

type Board struct {
	gorm.Model

	Title   string `gorm:"not null"`
	OwnerID uint   `gorm:"not null;index"`

	// Relationships
	Owner         User              `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Memberships   []BoardMembership `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks         []Task            `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ReminderRules []ReminderRule    `gorm:"foreignKey:BoardID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// HasMember reports whether userID holds a membership row on the board.
// The owner is written as a member at creation time, so ownership does not
// need a separate lookup here.
func (b *Board) HasMember(userID uint) bool {
	for _, membership := range b.Memberships {
		if membership.UserID == userID {
			return true
		}
	}
	return false
}
