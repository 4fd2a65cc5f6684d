package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

var activeStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusAssignToCourier,
	enums.OrderStatusCollected,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dispatch repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// FindPrimaryAddress returns the courier's primary address, or their oldest
// one when none is flagged primary. Nil without error when they have none.
func (r *repository) FindPrimaryAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

func (r *repository) ListApprovedCouriers(ctx context.Context) ([]models.User, error) {
	var couriers []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND approved = ? AND is_active = ?", enums.UserRoleDelivery, true, true).
		Find(&couriers).Error
	return couriers, err
}

func (r *repository) CountActiveLoad(ctx context.Context, courierID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("courier_id = ? AND status IN ?", courierID, activeStatuses).
		Count(&count).Error
	return int(count), err
}
