package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop-app/greenloop-backend/api/middleware"
	"github.com/greenloop-app/greenloop-backend/api/responses"
	"github.com/greenloop-app/greenloop-backend/api/validators"
	"github.com/greenloop-app/greenloop-backend/internal/dispatch"
	internalorders "github.com/greenloop-app/greenloop-backend/internal/orders"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

type createOrderRequest struct {
	AddressID     string                   `json:"address_id" validate:"required,uuid"`
	PaymentMethod string                   `json:"payment_method"`
	DeliveryFee   decimal.Decimal          `json:"delivery_fee"`
	Lines         []createOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type createOrderLineRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type transitionRequest struct {
	Target string  `json:"target" validate:"required"`
	Reason *string `json:"reason,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type assignCourierRequest struct {
	CourierID string  `json:"courier_id" validate:"required,uuid"`
	Notes     *string `json:"notes,omitempty"`
}

type proofRequest struct {
	PhotoKey    string                   `json:"photo_key" validate:"required"`
	Notes       *string                  `json:"notes,omitempty"`
	Adjustments []proofAdjustmentRequest `json:"adjustments,omitempty" validate:"omitempty,dive"`
}

type proofAdjustmentRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// CreateOrder creates an order from the actor's cart lines and then attempts
// automatic courier dispatch. Dispatch is best-effort: its failure never
// fails the creation response.
func CreateOrder(svc internalorders.Service, dispatcher dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := uuid.Parse(req.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		var paymentMethod enums.PaymentMethod
		if req.PaymentMethod != "" {
			paymentMethod, err = enums.ParsePaymentMethod(req.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
		}

		lines := make([]internalorders.CartLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			itemID, err := uuid.Parse(line.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			lines = append(lines, internalorders.CartLine{ItemID: itemID, Quantity: line.Quantity})
		}

		order, err := svc.CreateOrderFromCart(r.Context(), internalorders.CreateOrderInput{
			OwnerID:       actor.ID,
			AddressID:     addressID,
			PaymentMethod: paymentMethod,
			DeliveryFee:   req.DeliveryFee,
			Lines:         lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispatched := false
		if dispatcher != nil {
			assigned, dispatchErr := dispatcher.AutoAssign(r.Context(), order.ID)
			if dispatchErr != nil && logg != nil {
				logg.Error(logg.WithOrderID(r.Context(), order.ID.String()), "auto dispatch failed after order creation", dispatchErr)
			}
			dispatched = assigned
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":      order,
			"dispatched": dispatched,
		})
	}
}

// OrderDetail returns the full order projection to its owner, its courier, or
// an admin.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.OrderDetail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !canViewOrder(actor, detail) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to actor"))
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ListOrders pages the actor's own orders, optionally filtered by status.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, status, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOwnerOrders(r.Context(), actor.ID, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListCourierOrders pages the orders assigned to the acting courier.
func ListCourierOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, status, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCourierOrders(r.Context(), actor.ID, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// RequestTransition moves an order along the status graph for the acting user.
func RequestTransition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		if err := svc.RequestTransition(r.Context(), internalorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   actor,
			Reason:  req.Reason,
			Notes:   req.Notes,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": target.String()})
	}
}

// CancelOrder is the owner's self-service cancellation, legal only while the
// order is still pending.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelOrder(r.Context(), orderID, actor, validators.SanitizeString(req.Reason, 500)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": enums.OrderStatusCancelled.String()})
	}
}

// AssignCourier assigns a specific courier to an order.
func AssignCourier(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignCourierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := uuid.Parse(req.CourierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier id"))
			return
		}

		if err := svc.AssignCourier(r.Context(), internalorders.AssignCourierInput{
			OrderID:   orderID,
			CourierID: courierID,
			Target:    enums.OrderStatusAssignToCourier,
			Actor:     actor,
			Notes:     req.Notes,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": enums.OrderStatusAssignToCourier.String()})
	}
}

// DispatchOrder retries automatic courier selection for an order.
func DispatchOrder(dispatcher dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assigned, err := dispatcher.AutoAssign(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"dispatched": assigned})
	}
}

// CompleteWithProof records the courier's handover photo and moves the order
// forward (collected for customer orders, completed for buyer orders).
func CompleteWithProof(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req proofRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustments := make([]internalorders.QuantityAdjustment, 0, len(req.Adjustments))
		for _, adj := range req.Adjustments {
			itemID, err := uuid.Parse(adj.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment item id"))
				return
			}
			adjustments = append(adjustments, internalorders.QuantityAdjustment{ItemID: itemID, Quantity: adj.Quantity})
		}

		if err := svc.CompleteWithProof(r.Context(), internalorders.CompleteWithProofInput{
			OrderID:     orderID,
			CourierID:   actor.ID,
			PhotoKey:    req.PhotoKey,
			Notes:       req.Notes,
			Adjustments: adjustments,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "recorded"})
	}
}

// DeleteOrder removes an order entirely, reversing earned points first when
// it had completed.
func DeleteOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteOrder(r.Context(), orderID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func actorFromContext(r *http.Request) (internalorders.Actor, error) {
	rawID := middleware.ActorIDFromContext(r.Context())
	rawRole := middleware.ActorRoleFromContext(r.Context())
	if rawID == "" || rawRole == "" {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	role, err := enums.ParseUserRole(rawRole)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return internalorders.Actor{ID: actorID, Role: role}, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func listParams(r *http.Request) (pagination.Params, *enums.OrderStatus, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, nil, err
	}
	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	var status *enums.OrderStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Params{}, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		status = &parsed
	}
	return params, status, nil
}

func canViewOrder(actor internalorders.Actor, detail *internalorders.OrderDetail) bool {
	if actor.Role == enums.UserRoleAdmin {
		return true
	}
	if detail.OwnerID == actor.ID {
		return true
	}
	if detail.CourierID != nil && *detail.CourierID == actor.ID {
		return true
	}
	return false
}
