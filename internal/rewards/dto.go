package rewards

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// AwardInput carries the data required to award order completion points.
type AwardInput struct {
	UserID     uuid.UUID
	OrderID    uuid.UUID
	BasePoints int
	Reason     string
}

// AwardResult reports what a single award wrote to the ledger.
type AwardResult struct {
	AlreadyAwarded bool `json:"already_awarded"`
	BasePoints     int  `json:"base_points"`
	TierBonus      int  `json:"tier_bonus"`
	MilestoneBonus int  `json:"milestone_bonus"`
	TotalPoints    int  `json:"total_points"`
}

// DeductInput carries the data required for a manual points deduction.
type DeductInput struct {
	UserID  uuid.UUID
	Points  int
	Reason  string
	OrderID *uuid.UUID
}

// BackfillResult summarizes a retroactive backfill run.
type BackfillResult struct {
	OrdersAwarded int `json:"orders_awarded"`
	PointsAwarded int `json:"points_awarded"`
}

// LeaderboardEntry is one ranked row of the points leaderboard.
type LeaderboardEntry struct {
	Rank   int       `json:"rank"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
}

// PointsHistoryEntry is one ledger row in the points summary.
type PointsHistoryEntry struct {
	ID        uuid.UUID             `json:"id"`
	OrderID   *uuid.UUID            `json:"order_id,omitempty"`
	Points    int                   `json:"points"`
	Type      enums.PointsEntryType `json:"type"`
	Reason    string                `json:"reason"`
	CreatedAt time.Time             `json:"created_at"`
}

// PointsSummary is the cached total plus a page of ledger history.
type PointsSummary struct {
	UserID     uuid.UUID            `json:"user_id"`
	Points     int                  `json:"points"`
	Tier       string               `json:"tier"`
	History    []PointsHistoryEntry `json:"history"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
