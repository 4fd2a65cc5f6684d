package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// Actor identifies who requested an operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// CartLine is one requested item in an order creation call.
type CartLine struct {
	ItemID   uuid.UUID
	Quantity int
}

// CreateOrderInput carries the data required to create an order from a cart.
type CreateOrderInput struct {
	OwnerID       uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	DeliveryFee   decimal.Decimal
	Lines         []CartLine
}

// TransitionInput carries a status transition request.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   Actor
	Reason  *string
	Notes   *string
}

// AssignCourierInput carries a manual or automatic courier assignment.
type AssignCourierInput struct {
	OrderID   uuid.UUID
	CourierID uuid.UUID
	Target    enums.OrderStatus
	Actor     Actor
	Notes     *string
}

// QuantityAdjustment corrects one item's quantity at collection time.
type QuantityAdjustment struct {
	ItemID   uuid.UUID
	Quantity int
}

// CompleteWithProofInput carries the courier's handover call.
type CompleteWithProofInput struct {
	OrderID     uuid.UUID
	CourierID   uuid.UUID
	PhotoKey    string
	Notes       *string
	Adjustments []QuantityAdjustment
}

// ItemDetail is one order line in the detail projection.
type ItemDetail struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	Name             string          `json:"name"`
	UnitPoints       int             `json:"unit_points"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	OriginalQuantity *int            `json:"original_quantity,omitempty"`
	Adjusted         bool            `json:"adjusted"`
}

// HistoryDetail is one append-only history row in the detail projection.
type HistoryDetail struct {
	Status    enums.OrderStatus `json:"status"`
	ActorID   uuid.UUID         `json:"actor_id"`
	ActorRole enums.UserRole    `json:"actor_role"`
	Notes     *string           `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ProofDetail is one delivery proof in the detail projection.
type ProofDetail struct {
	CourierID uuid.UUID `json:"courier_id"`
	PhotoKey  string    `json:"photo_key"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDetail is the full read projection of one order.
type OrderDetail struct {
	ID            uuid.UUID           `json:"id"`
	OwnerID       uuid.UUID           `json:"owner_id"`
	OwnerRole     enums.UserRole      `json:"owner_role"`
	AddressID     uuid.UUID           `json:"address_id"`
	CourierID     *uuid.UUID          `json:"courier_id,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	HasAdjustment bool                `json:"has_adjustment"`
	CollectedAt   *time.Time          `json:"collected_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []ItemDetail        `json:"items"`
	History       []HistoryDetail     `json:"history"`
	Proofs        []ProofDetail       `json:"proofs,omitempty"`
}

// OrderSummary is one row of the order list projections.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OwnerID     uuid.UUID         `json:"owner_id"`
	OwnerRole   enums.UserRole    `json:"owner_role"`
	CourierID   *uuid.UUID        `json:"courier_id,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TotalItems  int               `json:"total_items"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
