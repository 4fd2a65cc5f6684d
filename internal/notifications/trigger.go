package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
)

// Actor identifies who triggered the notification.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// OrderEvent is the payload shared by all order notifications. Delivery
// mechanics live downstream of the outbox; the trigger only records the fact.
type OrderEvent struct {
	OrderID        uuid.UUID          `json:"order_id"`
	OwnerID        uuid.UUID          `json:"owner_id"`
	OwnerRole      enums.UserRole     `json:"owner_role"`
	CourierID      *uuid.UUID         `json:"courier_id,omitempty"`
	PreviousStatus *enums.OrderStatus `json:"previous_status,omitempty"`
	Status         enums.OrderStatus  `json:"status"`
	Reason         *string            `json:"reason,omitempty"`
}

// Trigger records order notification events. Implementations must be safe to
// call best-effort: callers log failures and continue.
type Trigger interface {
	OrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error
	OrderAssigned(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID, actor Actor) error
	StatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus, reason *string, actor Actor) error
	OrderDeleted(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type trigger struct {
	publisher outboxPublisher
	client    *db.Client
}

// NewTrigger builds the outbox-backed notification trigger.
func NewTrigger(publisher outboxPublisher, client *db.Client) (Trigger, error) {
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &trigger{publisher: publisher, client: client}, nil
}

func (t *trigger) OrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	return t.emit(ctx, tx, enums.EventOrderCreated, order, OrderEvent{
		OrderID:   order.ID,
		OwnerID:   order.OwnerID,
		OwnerRole: order.OwnerRole,
		Status:    order.Status,
	}, actor)
}

func (t *trigger) OrderAssigned(ctx context.Context, tx *gorm.DB, order *models.Order, courierID uuid.UUID, actor Actor) error {
	courier := courierID
	return t.emit(ctx, tx, enums.EventOrderAssigned, order, OrderEvent{
		OrderID:   order.ID,
		OwnerID:   order.OwnerID,
		OwnerRole: order.OwnerRole,
		CourierID: &courier,
		Status:    order.Status,
	}, actor)
}

func (t *trigger) StatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus, reason *string, actor Actor) error {
	eventType := enums.EventOrderStatusChanged
	switch order.Status {
	case enums.OrderStatusCompleted:
		eventType = enums.EventOrderCompleted
	case enums.OrderStatusCancelled:
		eventType = enums.EventOrderCancelled
	}
	prev := previous
	return t.emit(ctx, tx, eventType, order, OrderEvent{
		OrderID:        order.ID,
		OwnerID:        order.OwnerID,
		OwnerRole:      order.OwnerRole,
		CourierID:      order.CourierID,
		PreviousStatus: &prev,
		Status:         order.Status,
		Reason:         reason,
	}, actor)
}

func (t *trigger) OrderDeleted(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	return t.emit(ctx, tx, enums.EventOrderDeleted, order, OrderEvent{
		OrderID:   order.ID,
		OwnerID:   order.OwnerID,
		OwnerRole: order.OwnerRole,
		CourierID: order.CourierID,
		Status:    order.Status,
	}, actor)
}

func (t *trigger) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, data OrderEvent, actor Actor) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data:          data,
	}
	if actor.UserID != uuid.Nil {
		event.Actor = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
	}
	if tx != nil {
		return t.publisher.Emit(ctx, tx, event)
	}
	if t.client == nil {
		return fmt.Errorf("no transaction and no db client for notification emit")
	}
	return t.client.WithTx(ctx, func(ownTx *gorm.DB) error {
		return t.publisher.Emit(ctx, ownTx, event)
	})
}
