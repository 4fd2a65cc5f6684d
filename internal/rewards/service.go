package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/greenloop-app/greenloop-backend/pkg/db"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

// Ledger entry reasons. ReasonOrderCompleted doubles as the idempotency tag:
// the partial unique index on points_entries matches this exact string.
const (
	ReasonOrderCompleted = "order completed"
	ReasonTierBonus      = "reward tier bonus"
	ReasonOrderReversal  = "order reward reversed"
	ReasonConversion     = "points converted to wallet cashback"
)

const earnedEntryIndex = "ux_points_entries_order_earned"

var errAlreadyAwarded = errors.New("order already rewarded")

func milestoneReason(tierName string) string {
	return "reached reward tier " + tierName
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the points ledger operations.
type Service interface {
	AwardPoints(ctx context.Context, input AwardInput) (*AwardResult, error)
	DeductPoints(ctx context.Context, input DeductInput) error
	DeductPointsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, reason string) error
	ReverseOrderPoints(ctx context.Context, userID, orderID uuid.UUID) error
	RetroactiveBackfill(ctx context.Context, userID uuid.UUID) (*BackfillResult, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	PointsSummary(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PointsSummary, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// PointsAwardedEvent is emitted when an award commits.
type PointsAwardedEvent struct {
	UserID  uuid.UUID `json:"user_id"`
	OrderID uuid.UUID `json:"order_id"`
	Points  int       `json:"points"`
}

// NewService builds the points ledger service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, logg: logg}, nil
}

func (s *service) AwardPoints(ctx context.Context, input AwardInput) (*AwardResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BasePoints <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if input.Reason == "" {
		input.Reason = ReasonOrderCompleted
	}

	result := &AwardResult{BasePoints: input.BasePoints}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.HasEarnedEntryForOrder(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing award")
		}
		if exists {
			return errAlreadyAwarded
		}

		tierRows, err := repo.ListTiers(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward tiers")
		}
		table, err := NewTierTable(tierRows)
		if err != nil {
			return err
		}

		completed, err := repo.CountCompletedOrders(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed orders")
		}
		current := table.TierFor(completed)
		previous := table.TierFor(completed - 1)

		orderID := input.OrderID
		base := models.PointsEntry{
			UserID:  input.UserID,
			OrderID: &orderID,
			Points:  input.BasePoints,
			Type:    enums.PointsEntryTypeEarned,
			Reason:  input.Reason,
		}
		if err := repo.CreateEntry(ctx, &base); err != nil {
			if dbpkg.IsUniqueViolation(err, earnedEntryIndex) {
				return errAlreadyAwarded
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write earned entry")
		}

		total := input.BasePoints
		if current.BonusPerOrder > 0 {
			bonus := models.PointsEntry{
				UserID:  input.UserID,
				OrderID: &orderID,
				Points:  current.BonusPerOrder,
				Type:    enums.PointsEntryTypeEarned,
				Reason:  ReasonTierBonus,
			}
			if err := repo.CreateEntry(ctx, &bonus); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write tier bonus entry")
			}
			result.TierBonus = current.BonusPerOrder
			total += current.BonusPerOrder
		}

		// The milestone bonus fires only on the order that crosses the tier
		// boundary, and never twice for the same tier.
		if current.ID != previous.ID && current.BonusOnReach > 0 {
			reached, err := repo.HasEntryWithReason(ctx, input.UserID, milestoneReason(current.Name))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check milestone bonus")
			}
			if !reached {
				milestone := models.PointsEntry{
					UserID:  input.UserID,
					OrderID: &orderID,
					Points:  current.BonusOnReach,
					Type:    enums.PointsEntryTypeEarned,
					Reason:  milestoneReason(current.Name),
				}
				if err := repo.CreateEntry(ctx, &milestone); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write milestone entry")
				}
				result.MilestoneBonus = current.BonusOnReach
				total += current.BonusOnReach
			}
		}

		if err := repo.AddCachedPoints(ctx, input.UserID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cached points")
		}
		result.TotalPoints = total

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPointsAwarded,
			AggregateType: enums.AggregateUser,
			AggregateID:   input.UserID,
			Version:       1,
			Data: PointsAwardedEvent{
				UserID:  input.UserID,
				OrderID: input.OrderID,
				Points:  total,
			},
		})
	})
	if errors.Is(err, errAlreadyAwarded) {
		return &AwardResult{AlreadyAwarded: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) DeductPoints(ctx context.Context, input DeductInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.deduct(ctx, s.repo.WithTx(tx), input.UserID, input.Points, input.Reason, input.OrderID)
	})
}

// DeductPointsTx runs the deduction inside the caller's transaction. Used by
// wallet conversion so the points debit and the cash credit commit together.
func (s *service) DeductPointsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	return s.deduct(ctx, s.repo.WithTx(tx), userID, points, reason, nil)
}

func (s *service) deduct(ctx context.Context, repo Repository, userID uuid.UUID, points int, reason string, orderID *uuid.UUID) error {
	ok, err := repo.DeductCachedPoints(ctx, userID, points)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct cached points")
	}
	if !ok {
		if _, err := repo.FindUser(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient points")
	}

	entry := models.PointsEntry{
		UserID:  userID,
		OrderID: orderID,
		Points:  -points,
		Type:    enums.PointsEntryTypeDeducted,
		Reason:  reason,
	}
	if err := repo.CreateEntry(ctx, &entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write deducted entry")
	}
	return nil
}

// ReverseOrderPoints deducts everything previously earned for the order. The
// existing-reversal check makes retries append nothing. When the user has
// already spent part of the earned points the reversal is clamped to the
// remaining cached total so the balance never goes negative.
func (s *service) ReverseOrderPoints(ctx context.Context, userID, orderID uuid.UUID) error {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reversed, err := repo.HasReversalForOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing reversal")
		}
		if reversed {
			return nil
		}

		earned, err := repo.EarnedPointsForOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum earned points")
		}
		if earned <= 0 {
			return nil
		}

		user, err := repo.FindUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		deductible := earned
		if user.Points < deductible {
			deductible = user.Points
		}
		if deductible <= 0 {
			return nil
		}

		id := orderID
		return s.deduct(ctx, repo, userID, deductible, ReasonOrderReversal, &id)
	})
}

// RetroactiveBackfill awards points for completed orders that have no earned
// entry tagged with their order id. Safe to run repeatedly: the per-order tag
// check means a re-run adds zero additional points.
func (s *service) RetroactiveBackfill(ctx context.Context, userID uuid.UUID) (*BackfillResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	orders, err := s.repo.ListCompletedOrdersWithoutReward(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unrewarded orders")
	}

	result := &BackfillResult{}
	for _, order := range orders {
		base := order.RewardPoints()
		if base <= 0 {
			continue
		}
		awarded, err := s.AwardPoints(ctx, AwardInput{
			UserID:     userID,
			OrderID:    order.ID,
			BasePoints: base,
		})
		if err != nil {
			return nil, err
		}
		if awarded.AlreadyAwarded {
			continue
		}
		result.OrdersAwarded++
		result.PointsAwarded += awarded.TotalPoints
	}

	if s.logg != nil && result.OrdersAwarded > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":        userID.String(),
			"orders_awarded": result.OrdersAwarded,
			"points_awarded": result.PointsAwarded,
		})
		s.logg.Info(logCtx, "retroactive points backfill applied")
	}
	return result, nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	users, err := s.repo.TopUsersByPoints(ctx, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load leaderboard")
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			UserID: user.ID,
			Name:   user.Name,
			Points: user.Points,
		})
	}
	return entries, nil
}

func (s *service) PointsSummary(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PointsSummary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	entries, next, err := s.repo.ListEntries(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list points history")
	}

	summary := &PointsSummary{
		UserID:     userID,
		Points:     user.Points,
		History:    make([]PointsHistoryEntry, 0, len(entries)),
		NextCursor: next,
	}

	tierRows, err := s.repo.ListTiers(ctx)
	if err == nil {
		if table, tableErr := NewTierTable(tierRows); tableErr == nil {
			completed, countErr := s.repo.CountCompletedOrders(ctx, userID)
			if countErr == nil {
				summary.Tier = table.TierFor(completed).Name
			}
		}
	}

	for _, entry := range entries {
		summary.History = append(summary.History, PointsHistoryEntry{
			ID:        entry.ID,
			OrderID:   entry.OrderID,
			Points:    entry.Points,
			Type:      entry.Type,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		})
	}
	return summary, nil
}
