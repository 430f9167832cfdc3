package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owners []ProjectOwner `gorm:"foreignKey:ProjectID" json:"owners,omitempty"`
	Cards  []Card         `gorm:"foreignKey:ProjectID" json:"cards,omitempty"`
}

// OwnerIDs returns the user IDs in the owner set. Owners must be preloaded.
func (p *Project) OwnerIDs() []uint64 {
	ids := make([]uint64, 0, len(p.Owners))
	for _, o := range p.Owners {
		ids = append(ids, o.UserID)
	}
	return ids
}
