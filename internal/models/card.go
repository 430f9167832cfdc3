package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Card struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	DueDate     string         `gorm:"type:varchar(64)" json:"duedate"`
	Type        string         `gorm:"type:varchar(64)" json:"type"`
	Color       string         `gorm:"type:varchar(32)" json:"color"`
	UserID      uint64         `gorm:"not null;index" json:"userId"`
	ProjectID   uint64         `gorm:"not null;index" json:"projectId"`
	Files       datatypes.JSON `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// FileList decodes the attachment URL column. A missing or corrupt column
// yields an empty list rather than an error.
func (c *Card) FileList() []string {
	if len(c.Files) == 0 {
		return []string{}
	}
	var files []string
	if err := json.Unmarshal(c.Files, &files); err != nil {
		return []string{}
	}
	return files
}

// SetFileList encodes the attachment URL list into the JSON column.
func (c *Card) SetFileList(files []string) error {
	raw, err := json.Marshal(files)
	if err != nil {
		return err
	}
	c.Files = datatypes.JSON(raw)
	return nil
}
