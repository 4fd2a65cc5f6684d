package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenloop-app/greenloop-backend/internal/orders"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
)

// Repository defines the reads the dispatcher needs to score couriers.
type Repository interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error)
	FindPrimaryAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error)
	ListApprovedCouriers(ctx context.Context) ([]models.User, error)
	CountActiveLoad(ctx context.Context, courierID uuid.UUID) (int, error)
}

// Assigner performs the guarded courier assignment. The order lifecycle
// service satisfies this.
type Assigner interface {
	AssignCourier(ctx context.Context, input orders.AssignCourierInput) error
}
