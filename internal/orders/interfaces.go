package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/rewards"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

// Repository defines persistence operations for pickup orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, current enums.OrderStatus, updates map[string]any) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	CreateProof(ctx context.Context, proof *models.DeliveryProof) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindInventoryItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.InventoryItem, error)
	ListOwnerOrders(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status *enums.OrderStatus) ([]models.Order, string, error)
	ListCourierOrders(ctx context.Context, courierID uuid.UUID, params pagination.Params, status *enums.OrderStatus) ([]models.Order, string, error)
}

// PointsEngine is the slice of the rewards service the lifecycle calls into.
type PointsEngine interface {
	AwardPoints(ctx context.Context, input rewards.AwardInput) (*rewards.AwardResult, error)
	ReverseOrderPoints(ctx context.Context, userID, orderID uuid.UUID) error
}
