package models

import (
	"time"

	"flux/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the id and audit timestamps shared by every table.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUIDv7 to records that do not carry one yet.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
