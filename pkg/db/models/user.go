package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// User represents any account on the platform: customers and buyers who own
// orders, delivery couriers, and admins.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Phone     *string        `gorm:"column:phone;type:text"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	Approved  bool           `gorm:"column:approved;not null;default:false"`
	Points    int            `gorm:"column:points;not null;default:0"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
