package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/notifications"
	"github.com/greenloop-app/greenloop-backend/internal/rewards"
	"github.com/greenloop-app/greenloop-backend/internal/stock"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrderFromCart(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	RequestTransition(ctx context.Context, input TransitionInput) error
	AssignCourier(ctx context.Context, input AssignCourierInput) error
	CompleteWithProof(ctx context.Context, input CompleteWithProofInput) error
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID, actor Actor) error
	OrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	ListOwnerOrders(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*OrderList, error)
	ListCourierOrders(ctx context.Context, courierID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*OrderList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	points PointsEngine
	stock  stock.Adjuster
	notify notifications.Trigger
	logg   *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, points PointsEngine, adjuster stock.Adjuster, notify notifications.Trigger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if points == nil {
		return nil, fmt.Errorf("points engine required")
	}
	if adjuster == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notification trigger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		points: points,
		stock:  adjuster,
		notify: notify,
		logg:   logg,
	}, nil
}

func (s *service) CreateOrderFromCart(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.ItemID == uuid.Nil || line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each line requires an item id and a positive quantity")
		}
	}
	if input.DeliveryFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodCash
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	owner, err := s.repo.FindUser(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}
	if !owner.Role.IsOrderOwner() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers and buyers can create orders")
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}
	inventory, err := s.repo.FindInventoryItems(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory items")
	}
	byID := make(map[uuid.UUID]models.InventoryItem, len(inventory))
	for _, item := range inventory {
		byID[item.ID] = item
	}

	// Prices and points are snapshotted onto the order lines; the total is
	// frozen here and never recomputed.
	total := input.DeliveryFee
	lines := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		item, ok := byID[line.ItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown item in cart")
		}
		total = total.Add(item.UnitPrice.Mul(decimalFromInt(line.Quantity)))
		lines = append(lines, models.OrderItem{
			ItemID:     item.ID,
			Name:       item.Name,
			UnitPoints: item.UnitPoints,
			UnitPrice:  item.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	order := &models.Order{
		OwnerID:       owner.ID,
		OwnerRole:     owner.Role,
		AddressID:     input.AddressID,
		Status:        enums.OrderStatusPending,
		DeliveryFee:   input.DeliveryFee,
		TotalAmount:   total,
		PaymentMethod: input.PaymentMethod,
		Items:         lines,
	}

	actor := notifications.Actor{UserID: owner.ID, Role: owner.Role}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if owner.Role == enums.UserRoleBuyer {
			deltas := make([]stock.Delta, 0, len(order.Items))
			for _, item := range order.Items {
				deltas = append(deltas, stock.Delta{ItemID: item.ItemID, Qty: -item.Quantity})
			}
			if err := s.stock.Adjust(ctx, tx, deltas); err != nil {
				return err
			}
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			ActorID:   owner.ID,
			ActorRole: owner.Role,
		}
		if err := repo.AppendHistory(ctx, &history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write creation history")
		}
		return s.notify.OrderCreated(ctx, tx, order, actor)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RequestTransition(ctx context.Context, input TransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if input.Actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var (
		order *models.Order
		prev  enums.OrderStatus
		noop  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded
		prev = loaded.Status
		if prev == input.Target {
			noop = true
			return nil
		}
		return s.applyTransition(ctx, tx, repo, loaded, transitionArgs{
			target: input.Target,
			actor:  input.Actor,
			reason: input.Reason,
			notes:  input.Notes,
		})
	})
	if err != nil {
		return err
	}
	if noop {
		return nil
	}
	s.runSideEffects(ctx, order.ID, s.transitionEffects(order, prev))
	return nil
}

func (s *service) AssignCourier(ctx context.Context, input AssignCourierInput) error {
	if input.OrderID == uuid.Nil || input.CourierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id and courier id required")
	}
	if input.Target == "" {
		input.Target = enums.OrderStatusAssignToCourier
	}
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	courier, err := s.repo.FindUser(ctx, input.CourierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	if courier.Role != enums.UserRoleDelivery {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is not a courier")
	}
	if !courier.Approved {
		return pkgerrors.New(pkgerrors.CodeForbidden, "courier is not approved")
	}

	var (
		order *models.Order
		prev  enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded
		prev = loaded.Status
		courierID := input.CourierID
		return s.applyTransition(ctx, tx, repo, loaded, transitionArgs{
			target:     input.Target,
			actor:      input.Actor,
			notes:      input.Notes,
			courierID:  &courierID,
			assignment: true,
		})
	})
	if err != nil {
		return err
	}
	s.runSideEffects(ctx, order.ID, s.transitionEffects(order, prev))
	return nil
}

func (s *service) CompleteWithProof(ctx context.Context, input CompleteWithProofInput) error {
	if input.OrderID == uuid.Nil || input.CourierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id and courier id required")
	}
	if input.PhotoKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "proof photo required")
	}

	var (
		order *models.Order
		prev  enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.CourierID == nil || *loaded.CourierID != input.CourierID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this courier")
		}
		if loaded.Status != enums.OrderStatusAssignToCourier {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting handover")
		}

		// Customer orders park at collected for the depot check-in; buyer
		// orders complete in one step.
		target := enums.OrderStatusCollected
		if loaded.OwnerRole == enums.UserRoleBuyer {
			target = enums.OrderStatusCompleted
		}

		extra := map[string]any{}
		if len(input.Adjustments) > 0 {
			if loaded.OwnerRole != enums.UserRoleCustomer {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity adjustments apply to customer orders only")
			}
			if err := s.applyAdjustments(ctx, repo, loaded, input.Adjustments); err != nil {
				return err
			}
			extra["has_adjustment"] = true
			loaded.HasAdjustment = true
		}

		proof := models.DeliveryProof{
			OrderID:   loaded.ID,
			CourierID: input.CourierID,
			PhotoKey:  input.PhotoKey,
			Notes:     input.Notes,
		}
		if err := repo.CreateProof(ctx, &proof); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write delivery proof")
		}

		order = loaded
		prev = loaded.Status
		return s.applyTransition(ctx, tx, repo, loaded, transitionArgs{
			target:       target,
			actor:        Actor{ID: input.CourierID, Role: enums.UserRoleDelivery},
			notes:        input.Notes,
			extraUpdates: extra,
		})
	})
	if err != nil {
		return err
	}
	s.runSideEffects(ctx, order.ID, s.transitionEffects(order, prev))
	return nil
}

// applyAdjustments overwrites line quantities with the courier's counts. The
// original quantity is recorded once; final reward points are computed from
// the adjusted quantities.
func (s *service) applyAdjustments(ctx context.Context, repo Repository, order *models.Order, adjustments []QuantityAdjustment) error {
	byItemID := make(map[uuid.UUID]int, len(order.Items))
	for i, item := range order.Items {
		byItemID[item.ItemID] = i
	}
	for _, adj := range adjustments {
		if adj.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjusted quantity cannot be negative")
		}
		idx, ok := byItemID[adj.ItemID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment references an item not on the order")
		}
		item := &order.Items[idx]
		updates := map[string]any{
			"quantity": adj.Quantity,
			"adjusted": true,
		}
		if item.OriginalQuantity == nil {
			original := item.Quantity
			updates["original_quantity"] = original
			item.OriginalQuantity = &original
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust item quantity")
		}
		item.Quantity = adj.Quantity
		item.Adjusted = true
	}
	return nil
}

// CancelOrder is the owner self-service path. It is intentionally stricter
// than the general transition table: once a courier is assigned the owner can
// no longer cancel directly and must go through support.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.OwnerID != actor.ID && actor.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		return s.applyTransition(ctx, tx, repo, order, transitionArgs{
			target: enums.OrderStatusCancelled,
			actor:  actor,
			reason: reasonPtr,
		})
	})
}

func (s *service) DeleteOrder(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.OwnerID != actor.ID && actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	// Points reversal must not block the delete.
	if order.Status == enums.OrderStatusCompleted {
		if err := s.points.ReverseOrderPoints(ctx, order.OwnerID, order.ID); err != nil && s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Warn(logCtx, "points reversal failed before order delete: "+err.Error())
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return s.notify.OrderDeleted(ctx, tx, order, notifications.Actor{UserID: actor.ID, Role: actor.Role})
	})
}

func (s *service) OrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return buildOrderDetail(order), nil
}

func (s *service) ListOwnerOrders(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*OrderList, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	rows, next, err := s.repo.ListOwnerOrders(ctx, ownerID, params, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner orders")
	}
	return buildOrderList(rows, next), nil
}

func (s *service) ListCourierOrders(ctx context.Context, courierID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*OrderList, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	rows, next, err := s.repo.ListCourierOrders(ctx, courierID, params, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list courier orders")
	}
	return buildOrderList(rows, next), nil
}

type transitionArgs struct {
	target       enums.OrderStatus
	actor        Actor
	reason       *string
	notes        *string
	courierID    *uuid.UUID
	extraUpdates map[string]any
	assignment   bool
}

// applyTransition is the single guarded write path for every status change.
// The status predicate in the UPDATE means two concurrent transitions from
// the same source state cannot both win.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, args transitionArgs) error {
	allowed := CanTransition(order.OwnerRole, order.Status, args.target)
	// Support surface: admins may void an already-completed order, which is
	// what makes completion rewards reversible.
	if !allowed && args.actor.Role == enums.UserRoleAdmin &&
		order.Status == enums.OrderStatusCompleted && args.target == enums.OrderStatusCancelled {
		allowed = true
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move %s order from %s to %s", order.OwnerRole, order.Status, args.target))
	}

	now := time.Now()
	updates := map[string]any{"status": args.target}
	for key, value := range args.extraUpdates {
		updates[key] = value
	}
	if args.courierID != nil {
		updates["courier_id"] = *args.courierID
	} else if args.target == enums.OrderStatusPending && order.CourierID != nil {
		// Returning to pending releases the courier.
		updates["courier_id"] = nil
	}
	if args.target == enums.OrderStatusCollected && order.CollectedAt == nil {
		updates["collected_at"] = now
	}
	if args.target == enums.OrderStatusCompleted {
		updates["completed_at"] = now
	}

	previous := order.Status
	ok, err := repo.UpdateOrderGuarded(ctx, order.ID, previous, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently")
	}

	order.Status = args.target
	if args.courierID != nil {
		order.CourierID = args.courierID
	} else if args.target == enums.OrderStatusPending {
		order.CourierID = nil
	}
	if args.target == enums.OrderStatusCollected && order.CollectedAt == nil {
		order.CollectedAt = &now
	}
	if args.target == enums.OrderStatusCompleted {
		order.CompletedAt = &now
	}

	history := models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    args.target,
		ActorID:   args.actor.ID,
		ActorRole: args.actor.Role,
		Notes:     args.notes,
	}
	if err := repo.AppendHistory(ctx, &history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write status history")
	}

	actor := notifications.Actor{UserID: args.actor.ID, Role: args.actor.Role}
	if args.assignment && args.courierID != nil {
		return s.notify.OrderAssigned(ctx, tx, order, *args.courierID, actor)
	}
	return s.notify.StatusChanged(ctx, tx, order, previous, args.reason, actor)
}

type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

// transitionEffects builds the best-effort follow-ups for a committed
// transition. They fire only because the previous status differed from the
// new one; callers skip this entirely on no-op re-saves.
func (s *service) transitionEffects(order *models.Order, previous enums.OrderStatus) []sideEffect {
	var effects []sideEffect
	switch order.Status {
	case enums.OrderStatusCompleted:
		if order.OwnerRole == enums.UserRoleCustomer {
			if base := order.RewardPoints(); base > 0 {
				effects = append(effects, sideEffect{
					name: "award completion points",
					run: func(ctx context.Context) error {
						_, err := s.points.AwardPoints(ctx, rewards.AwardInput{
							UserID:     order.OwnerID,
							OrderID:    order.ID,
							BasePoints: base,
						})
						return err
					},
				})
			}
		}
		if order.OwnerRole == enums.UserRoleBuyer {
			items := order.Items
			effects = append(effects, sideEffect{
				name: "restore stock",
				run: func(ctx context.Context) error {
					deltas := make([]stock.Delta, 0, len(items))
					for _, item := range items {
						deltas = append(deltas, stock.Delta{ItemID: item.ItemID, Qty: item.Quantity})
					}
					return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
						return s.stock.Adjust(ctx, tx, deltas)
					})
				},
			})
		}
	case enums.OrderStatusCancelled:
		if previous == enums.OrderStatusCompleted {
			effects = append(effects, sideEffect{
				name: "reverse awarded points",
				run: func(ctx context.Context) error {
					return s.points.ReverseOrderPoints(ctx, order.OwnerID, order.ID)
				},
			})
		}
	}
	return effects
}

// runSideEffects attempts every effect, collects failures, and logs them.
// The primary transition is already durable; a failed side effect is
// recoverable by retry or backfill, an unwound transition is not.
func (s *service) runSideEffects(ctx context.Context, orderID uuid.UUID, effects []sideEffect) {
	var errs error
	for _, effect := range effects {
		if err := effect.run(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", effect.name, err))
		}
	}
	if errs != nil && s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Error(logCtx, "order side effects failed after committed transition", errs)
	}
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func buildOrderDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:            order.ID,
		OwnerID:       order.OwnerID,
		OwnerRole:     order.OwnerRole,
		AddressID:     order.AddressID,
		CourierID:     order.CourierID,
		Status:        order.Status,
		DeliveryFee:   order.DeliveryFee,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		HasAdjustment: order.HasAdjustment,
		CollectedAt:   order.CollectedAt,
		CompletedAt:   order.CompletedAt,
		CreatedAt:     order.CreatedAt,
		Items:         make([]ItemDetail, 0, len(order.Items)),
		History:       make([]HistoryDetail, 0, len(order.History)),
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, ItemDetail{
			ID:               item.ID,
			ItemID:           item.ItemID,
			Name:             item.Name,
			UnitPoints:       item.UnitPoints,
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			OriginalQuantity: item.OriginalQuantity,
			Adjusted:         item.Adjusted,
		})
	}
	for _, entry := range order.History {
		detail.History = append(detail.History, HistoryDetail{
			Status:    entry.Status,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		})
	}
	for _, proof := range order.Proofs {
		detail.Proofs = append(detail.Proofs, ProofDetail{
			CourierID: proof.CourierID,
			PhotoKey:  proof.PhotoKey,
			Notes:     proof.Notes,
			CreatedAt: proof.CreatedAt,
		})
	}
	return detail
}

func buildOrderList(rows []models.Order, next string) *OrderList {
	list := &OrderList{
		Orders:     make([]OrderSummary, 0, len(rows)),
		NextCursor: next,
	}
	for _, order := range rows {
		totalItems := 0
		for _, item := range order.Items {
			totalItems += item.Quantity
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:          order.ID,
			OwnerID:     order.OwnerID,
			OwnerRole:   order.OwnerRole,
			CourierID:   order.CourierID,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
			TotalItems:  totalItems,
			CreatedAt:   order.CreatedAt,
		})
	}
	return list
}
