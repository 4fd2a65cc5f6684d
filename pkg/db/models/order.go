package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// Order is a recyclables pickup order. TotalAmount is frozen at creation time
// (sum of item price x quantity plus the delivery fee); later quantity
// adjustments only affect reward and stock accounting, never the price.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerRole     enums.UserRole      `gorm:"column:owner_role;type:user_role;not null"`
	AddressID     uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	CourierID     *uuid.UUID          `gorm:"column:courier_id;type:uuid;index"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'cash'"`
	HasAdjustment bool                `gorm:"column:has_adjustment;not null;default:false"`
	CollectedAt   *time.Time          `gorm:"column:collected_at"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History       []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Proofs        []DeliveryProof     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RewardPoints returns the points this order is worth, using the current
// (possibly courier-adjusted) quantities.
func (o Order) RewardPoints() int {
	total := 0
	for _, item := range o.Items {
		total += item.UnitPoints * item.Quantity
	}
	return total
}
