package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one recyclable line on an order. When a courier corrects the
// quantity at collection time the original quantity is recorded once and the
// adjusted flag is set.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Name             string          `gorm:"column:name;type:text;not null"`
	UnitPoints       int             `gorm:"column:unit_points;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	OriginalQuantity *int            `gorm:"column:original_quantity"`
	Adjusted         bool            `gorm:"column:adjusted;not null;default:false"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
