package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
)

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func testOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		OwnerRole: enums.UserRoleCustomer,
		Status:    status,
	}
}

func TestOrderCreatedEmitsCreatedEvent(t *testing.T) {
	publisher := &stubPublisher{}
	trig, err := NewTrigger(publisher, nil)
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}

	order := testOrder(enums.OrderStatusPending)
	actor := Actor{UserID: order.OwnerID, Role: enums.UserRoleCustomer}
	if err := trig.OrderCreated(context.Background(), &gorm.DB{}, order, actor); err != nil {
		t.Fatalf("order created: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if event.AggregateID != order.ID {
		t.Fatalf("event bound to wrong aggregate")
	}
	if event.Actor == nil || event.Actor.UserID != order.OwnerID {
		t.Fatalf("event missing actor reference")
	}
}

func TestStatusChangedPicksTerminalEventTypes(t *testing.T) {
	cases := []struct {
		status enums.OrderStatus
		want   enums.OutboxEventType
	}{
		{status: enums.OrderStatusCollected, want: enums.EventOrderStatusChanged},
		{status: enums.OrderStatusCompleted, want: enums.EventOrderCompleted},
		{status: enums.OrderStatusCancelled, want: enums.EventOrderCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			publisher := &stubPublisher{}
			trig, err := NewTrigger(publisher, nil)
			if err != nil {
				t.Fatalf("new trigger: %v", err)
			}

			order := testOrder(tc.status)
			err = trig.StatusChanged(context.Background(), &gorm.DB{}, order, enums.OrderStatusAssignToCourier, nil, Actor{})
			if err != nil {
				t.Fatalf("status changed: %v", err)
			}
			if publisher.events[0].EventType != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, publisher.events[0].EventType)
			}

			payload, ok := publisher.events[0].Data.(OrderEvent)
			if !ok {
				t.Fatalf("unexpected payload type %T", publisher.events[0].Data)
			}
			if payload.PreviousStatus == nil || *payload.PreviousStatus != enums.OrderStatusAssignToCourier {
				t.Fatalf("payload missing previous status")
			}
		})
	}
}

func TestEmitWithoutTransactionNeedsClient(t *testing.T) {
	trig, err := NewTrigger(&stubPublisher{}, nil)
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}
	order := testOrder(enums.OrderStatusPending)
	if err := trig.OrderDeleted(context.Background(), nil, order, Actor{}); err == nil {
		t.Fatalf("expected error without transaction or client")
	}
}

func TestOrderEventPayloadShape(t *testing.T) {
	courier := uuid.New()
	reason := "customer request"
	prev := enums.OrderStatusAssignToCourier
	payload := OrderEvent{
		OrderID:        uuid.New(),
		OwnerID:        uuid.New(),
		OwnerRole:      enums.UserRoleBuyer,
		CourierID:      &courier,
		PreviousStatus: &prev,
		Status:         enums.OrderStatusCancelled,
		Reason:         &reason,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, key := range []string{"order_id", "owner_id", "owner_role", "courier_id", "previous_status", "status", "reason"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("payload missing %q", key)
		}
	}
}
