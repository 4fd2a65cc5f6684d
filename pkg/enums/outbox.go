package enums

// OutboxEventType names the domain events written to the outbox.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderAssigned      OutboxEventType = "order.assigned"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderCompleted     OutboxEventType = "order.completed"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventOrderDeleted       OutboxEventType = "order.deleted"
	EventPointsAwarded      OutboxEventType = "points.awarded"
	EventWalletCredited     OutboxEventType = "wallet.credited"
)

// OutboxAggregateType names the aggregate a domain event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateUser   OutboxAggregateType = "user"
	AggregateWallet OutboxAggregateType = "wallet"
)
