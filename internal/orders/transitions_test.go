package orders

import (
	"testing"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

var allStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusAssignToCourier,
	enums.OrderStatusCollected,
	enums.OrderStatusCompleted,
	enums.OrderStatusCancelled,
}

func TestTransitionTableExhaustive(t *testing.T) {
	expected := map[enums.UserRole]map[enums.OrderStatus][]enums.OrderStatus{
		enums.UserRoleCustomer: {
			enums.OrderStatusPending:         {enums.OrderStatusAssignToCourier, enums.OrderStatusCancelled},
			enums.OrderStatusAssignToCourier: {enums.OrderStatusCollected, enums.OrderStatusCancelled, enums.OrderStatusPending},
			enums.OrderStatusCollected:       {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
			enums.OrderStatusCompleted:       {},
			enums.OrderStatusCancelled:       {},
		},
		enums.UserRoleBuyer: {
			enums.OrderStatusPending:         {enums.OrderStatusAssignToCourier, enums.OrderStatusCancelled},
			enums.OrderStatusAssignToCourier: {enums.OrderStatusCompleted, enums.OrderStatusCancelled, enums.OrderStatusPending},
			enums.OrderStatusCollected:       {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
			enums.OrderStatusCompleted:       {},
			enums.OrderStatusCancelled:       {},
		},
	}

	for role, table := range expected {
		for current, edges := range table {
			allowed := make(map[enums.OrderStatus]bool, len(edges))
			for _, edge := range edges {
				allowed[edge] = true
			}
			for _, target := range allStatuses {
				got := CanTransition(role, current, target)
				if got != allowed[target] {
					t.Errorf("role %s: %s -> %s: got %v, want %v", role, current, target, got, allowed[target])
				}
			}
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, role := range []enums.UserRole{enums.UserRoleCustomer, enums.UserRoleBuyer} {
		for _, terminal := range []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled} {
			if edges := AllowedTransitions(role, terminal); len(edges) != 0 {
				t.Fatalf("role %s: terminal status %s has edges %v", role, terminal, edges)
			}
		}
	}
}

func TestUnknownRoleHasNoEdges(t *testing.T) {
	if CanTransition(enums.UserRoleDelivery, enums.OrderStatusPending, enums.OrderStatusCancelled) {
		t.Fatal("delivery role must not own a transition table")
	}
}
