package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved pickup location. City and area drive courier proximity
// scoring; the street is only carried for display.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	City      string    `gorm:"column:city;type:text;not null"`
	Area      string    `gorm:"column:area;type:text;not null"`
	Street    string    `gorm:"column:street;type:text;not null"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
