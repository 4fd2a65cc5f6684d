package orders

import "github.com/greenloop-app/greenloop-backend/pkg/enums"

// transitionTable is the single source of truth for the per-role state
// machine. Keying by (role, status) keeps the customer and buyer tables from
// drifting apart: the only difference is that buyer orders skip the explicit
// collected checkpoint and complete straight from assigntocourier.
var transitionTable = map[enums.UserRole]map[enums.OrderStatus][]enums.OrderStatus{
	enums.UserRoleCustomer: {
		enums.OrderStatusPending:         {enums.OrderStatusAssignToCourier, enums.OrderStatusCancelled},
		enums.OrderStatusAssignToCourier: {enums.OrderStatusCollected, enums.OrderStatusCancelled, enums.OrderStatusPending},
		enums.OrderStatusCollected:       {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	},
	enums.UserRoleBuyer: {
		enums.OrderStatusPending:         {enums.OrderStatusAssignToCourier, enums.OrderStatusCancelled},
		enums.OrderStatusAssignToCourier: {enums.OrderStatusCompleted, enums.OrderStatusCancelled, enums.OrderStatusPending},
		enums.OrderStatusCollected:       {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	},
}

// AllowedTransitions returns the outbound edges for the order owner's role
// and current status. Terminal statuses have none.
func AllowedTransitions(role enums.UserRole, current enums.OrderStatus) []enums.OrderStatus {
	table, ok := transitionTable[role]
	if !ok {
		return nil
	}
	return table[current]
}

// CanTransition reports whether target is reachable from current under the
// owner's role table.
func CanTransition(role enums.UserRole, current, target enums.OrderStatus) bool {
	for _, edge := range AllowedTransitions(role, current) {
		if edge == target {
			return true
		}
	}
	return false
}
