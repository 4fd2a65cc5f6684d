package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// OrderStatusHistory is the append-only trail of status changes. Rows are
// never updated or deleted.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	ActorID   uuid.UUID         `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole enums.UserRole    `gorm:"column:actor_role;type:user_role;not null"`
	Notes     *string           `gorm:"column:notes;type:text"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
