package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// PointsEntry is one signed movement on a user's points ledger. OrderID is
// set for order rewards and nil for manual admin deductions; reversal appends
// an offsetting entry rather than editing history.
type PointsEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	Points    int                   `gorm:"column:points;not null"`
	Type      enums.PointsEntryType `gorm:"column:type;type:points_entry_type;not null"`
	Reason    string                `gorm:"column:reason;type:text;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
