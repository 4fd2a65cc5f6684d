package rewards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rewards repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListTiers(ctx context.Context) ([]models.RewardTier, error) {
	var tiers []models.RewardTier
	err := r.db.WithContext(ctx).
		Order("min_completed_orders ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CountCompletedOrders(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("owner_id = ? AND status = ?", userID, enums.OrderStatusCompleted).
		Count(&count).Error
	return int(count), err
}

func (r *repository) HasEarnedEntryForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsEntry{}).
		Where("order_id = ? AND type = ? AND reason = ?", orderID, enums.PointsEntryTypeEarned, ReasonOrderCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasEntryWithReason(ctx context.Context, userID uuid.UUID, reason string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsEntry{}).
		Where("user_id = ? AND reason = ?", userID, reason).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasReversalForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsEntry{}).
		Where("order_id = ? AND type = ? AND reason = ?", orderID, enums.PointsEntryTypeDeducted, ReasonOrderReversal).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) EarnedPointsForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PointsEntry{}).
		Select("COALESCE(SUM(points), 0)").
		Where("order_id = ? AND type = ?", orderID, enums.PointsEntryTypeEarned).
		Scan(&total).Error
	return int(total), err
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.PointsEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) AddCachedPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", delta)).Error
}

// DeductCachedPoints performs the atomic check-and-deduct. A false return
// means the guard rejected the write (missing user or insufficient points).
func (r *repository) DeductCachedPoints(ctx context.Context, userID uuid.UUID, points int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, points).
		Update("points", gorm.Expr("points - ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListCompletedOrdersWithoutReward(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_id = ? AND owner_role = ? AND status = ?", userID, enums.UserRoleCustomer, enums.OrderStatusCompleted).
		Where("id NOT IN (?)", r.db.
			Model(&models.PointsEntry{}).
			Select("order_id").
			Where("order_id IS NOT NULL AND type = ? AND reason = ?", enums.PointsEntryTypeEarned, ReasonOrderCompleted)).
		Order("completed_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) TopUsersByPoints(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("points DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *repository) ListEntries(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.PointsEntry, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.PointsEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, next, nil
}
