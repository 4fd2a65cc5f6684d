package rewards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

// Repository defines persistence operations for the points ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListTiers(ctx context.Context) ([]models.RewardTier, error)
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	CountCompletedOrders(ctx context.Context, userID uuid.UUID) (int, error)
	HasEarnedEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	HasEntryWithReason(ctx context.Context, userID uuid.UUID, reason string) (bool, error)
	HasReversalForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	EarnedPointsForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	CreateEntry(ctx context.Context, entry *models.PointsEntry) error
	AddCachedPoints(ctx context.Context, userID uuid.UUID, delta int) error
	DeductCachedPoints(ctx context.Context, userID uuid.UUID, points int) (bool, error)
	ListCompletedOrdersWithoutReward(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	TopUsersByPoints(ctx context.Context, limit int) ([]models.User, error)
	ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointsEntry, string, error)
}
