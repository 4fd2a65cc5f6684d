package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/rewards"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// pointsDeducter debits the points ledger inside the caller's transaction.
type pointsDeducter interface {
	DeductPointsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, reason string) error
}

// Service defines the wallet ledger operations.
type Service interface {
	AddTransaction(ctx context.Context, input TransactionInput) (*models.WalletTransaction, error)
	ConvertPointsToCash(ctx context.Context, input ConvertInput) (*ConversionResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (*Balance, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*History, error)
}

type service struct {
	repo           Repository
	tx             txRunner
	points         pointsDeducter
	outbox         outboxPublisher
	logg           *logger.Logger
	pointsPerUnit  int
	defaultGateway string
}

// WalletCreditedEvent is emitted when a conversion credits the wallet.
type WalletCreditedEvent struct {
	UserID         uuid.UUID       `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	PointsDeducted int             `json:"points_deducted"`
}

// NewService builds the wallet ledger service.
func NewService(repo Repository, tx txRunner, points pointsDeducter, publisher outboxPublisher, logg *logger.Logger, pointsPerUnit int, defaultGateway string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if points == nil {
		return nil, fmt.Errorf("points deducter required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if pointsPerUnit <= 0 {
		return nil, fmt.Errorf("points per unit must be positive")
	}
	return &service{
		repo:           repo,
		tx:             tx,
		points:         points,
		outbox:         publisher,
		logg:           logg,
		pointsPerUnit:  pointsPerUnit,
		defaultGateway: defaultGateway,
	}, nil
}

func (s *service) AddTransaction(ctx context.Context, input TransactionInput) (*models.WalletTransaction, error) {
	if err := validateTransactionInput(input); err != nil {
		return nil, err
	}

	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.appendTransaction(ctx, s.repo.WithTx(tx), input)
		if err != nil {
			return err
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func validateTransactionInput(input TransactionInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Type == enums.WalletTransactionTypeWithdrawal && input.Gateway == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "withdrawal requires a gateway")
	}
	return nil
}

// appendTransaction writes the ledger entry and the cache update together.
// The debit path is a conditional update so a concurrent withdrawal cannot
// drive the balance negative.
func (s *service) appendTransaction(ctx context.Context, repo Repository, input TransactionInput) (*models.WalletTransaction, error) {
	if err := repo.EnsureWallet(ctx, input.UserID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
	}

	signed := input.Amount
	if input.Type == enums.WalletTransactionTypeWithdrawal {
		signed = input.Amount.Neg()
		ok, err := repo.DebitBalance(ctx, input.UserID, input.Amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance")
		}
	} else {
		if err := repo.CreditBalance(ctx, input.UserID, input.Amount); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
		}
	}

	txn := models.WalletTransaction{
		UserID:    input.UserID,
		Amount:    signed,
		Type:      input.Type,
		Gateway:   input.Gateway,
		Reference: input.Reference,
	}
	if err := repo.CreateTransaction(ctx, &txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write wallet transaction")
	}
	return &txn, nil
}

// ConvertPointsToCash exchanges points for wallet balance at the configured
// rate. The points debit and the cashback credit run in one transaction so a
// failed credit rolls the deduction back.
func (s *service) ConvertPointsToCash(ctx context.Context, input ConvertInput) (*ConversionResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.FindUser(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Role != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "conversion is available to customers only")
	}

	pointsNeeded, credit, err := s.conversionAmounts(user.Points, input.Amount)
	if err != nil {
		return nil, err
	}

	result := &ConversionResult{PointsDeducted: pointsNeeded, AmountCredited: credit}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.points.DeductPointsTx(ctx, tx, input.UserID, pointsNeeded, rewards.ReasonConversion); err != nil {
			return err
		}
		if _, err := s.appendTransaction(ctx, s.repo.WithTx(tx), TransactionInput{
			UserID:  input.UserID,
			Type:    enums.WalletTransactionTypeCashback,
			Amount:  credit,
			Gateway: s.defaultGateway,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletCredited,
			AggregateType: enums.AggregateWallet,
			AggregateID:   input.UserID,
			Version:       1,
			Data: WalletCreditedEvent{
				UserID:         input.UserID,
				Amount:         credit,
				PointsDeducted: pointsNeeded,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if wallet, walletErr := s.repo.FindWallet(ctx, input.UserID); walletErr == nil {
		result.Balance = wallet.Balance
	}
	return result, nil
}

// conversionAmounts resolves the two conversion modes: max affordable whole
// units when no amount is requested, or ceil(amount x rate) points otherwise.
func (s *service) conversionAmounts(currentPoints int, requested *decimal.Decimal) (int, decimal.Decimal, error) {
	rate := decimal.NewFromInt(int64(s.pointsPerUnit))

	if requested == nil {
		units := currentPoints / s.pointsPerUnit
		if units <= 0 {
			return 0, decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "not enough points to convert")
		}
		return units * s.pointsPerUnit, decimal.NewFromInt(int64(units)), nil
	}

	if !requested.IsPositive() {
		return 0, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	needed := int(requested.Mul(rate).Ceil().IntPart())
	if needed > currentPoints {
		return 0, decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient points")
	}
	return needed, *requested, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.FindWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Balance{UserID: userID, Balance: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return &Balance{UserID: userID, Balance: wallet.Balance}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*History, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	txns, next, err := s.repo.ListTransactions(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	history := &History{
		Transactions: make([]HistoryEntry, 0, len(txns)),
		NextCursor:   next,
	}
	for _, txn := range txns {
		history.Transactions = append(history.Transactions, HistoryEntry{
			ID:        txn.ID,
			Amount:    txn.Amount,
			Type:      txn.Type,
			Gateway:   txn.Gateway,
			Reference: txn.Reference,
			CreatedAt: txn.CreatedAt,
		})
	}
	return history, nil
}
