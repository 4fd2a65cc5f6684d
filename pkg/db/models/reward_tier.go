package models

import (
	"time"

	"github.com/google/uuid"
)

// RewardTier is one band of the loyalty ladder. Bands are keyed by completed
// order count and must be disjoint and exhaustive.
type RewardTier struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string    `gorm:"column:name;type:text;not null"`
	MinCompletedOrders int       `gorm:"column:min_completed_orders;not null"`
	MaxCompletedOrders int       `gorm:"column:max_completed_orders;not null"`
	BonusPerOrder      int       `gorm:"column:bonus_per_order;not null;default:0"`
	BonusOnReach       int       `gorm:"column:bonus_on_reach;not null;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Contains reports whether the completed-order count falls in this band.
func (t RewardTier) Contains(completedOrders int) bool {
	return completedOrders >= t.MinCompletedOrders && completedOrders <= t.MaxCompletedOrders
}
