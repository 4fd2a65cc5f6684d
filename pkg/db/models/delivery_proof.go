package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryProof stores the photo reference a courier submits when closing out
// a pickup.
type DeliveryProof struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	CourierID uuid.UUID `gorm:"column:courier_id;type:uuid;not null"`
	PhotoKey  string    `gorm:"column:photo_key;type:text;not null"`
	Notes     *string   `gorm:"column:notes;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
