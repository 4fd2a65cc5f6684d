package wallet

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/internal/rewards"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop-app/greenloop-backend/pkg/errors"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubPoints struct {
	deducted map[uuid.UUID]int
	reasons  []string
	failWith error
}

func (s *stubPoints) DeductPointsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, reason string) error {
	if s.failWith != nil {
		return s.failWith
	}
	if s.deducted == nil {
		s.deducted = map[uuid.UUID]int{}
	}
	s.deducted[userID] += points
	s.reasons = append(s.reasons, reason)
	return nil
}

type stubWalletRepo struct {
	usersByID map[uuid.UUID]*models.User
	balances  map[uuid.UUID]decimal.Decimal
	txns      []models.WalletTransaction
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{
		usersByID: map[uuid.UUID]*models.User{},
		balances:  map[uuid.UUID]decimal.Decimal{},
	}
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubWalletRepo) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.usersByID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubWalletRepo) FindWallet(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error) {
	balance, ok := s.balances[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.UserWallet{UserID: userID, Balance: balance}, nil
}

func (s *stubWalletRepo) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = decimal.Zero
	}
	return nil
}

func (s *stubWalletRepo) CreditBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	s.balances[userID] = s.balances[userID].Add(amount)
	return nil
}

func (s *stubWalletRepo) DebitBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	current := s.balances[userID]
	if current.LessThan(amount) {
		return false, nil
	}
	s.balances[userID] = current.Sub(amount)
	return true, nil
}

func (s *stubWalletRepo) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.txns = append(s.txns, *txn)
	return nil
}

func (s *stubWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	var txns []models.WalletTransaction
	for _, txn := range s.txns {
		if txn.UserID == userID {
			txns = append(txns, txn)
		}
	}
	return txns, "", nil
}

type walletFixture struct {
	repo      *stubWalletRepo
	points    *stubPoints
	publisher *stubPublisher
	svc       Service
}

func newWalletFixture(t *testing.T) *walletFixture {
	t.Helper()
	repo := newStubWalletRepo()
	points := &stubPoints{}
	publisher := &stubPublisher{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, stubTxRunner{}, points, publisher, logg, 19, "internal")
	require.NoError(t, err)
	return &walletFixture{repo: repo, points: points, publisher: publisher, svc: svc}
}

func (f *walletFixture) addUser(role enums.UserRole, points int) *models.User {
	user := &models.User{ID: uuid.New(), Name: "user", Role: role, Points: points}
	f.repo.usersByID[user.ID] = user
	return user
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	require.NotNil(t, coded, "expected coded error, got %v", err)
	require.Equal(t, code, coded.Code())
}

func TestConvertAllAffordableUnits(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 38)

	result, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID})
	require.NoError(t, err)

	assert.Equal(t, 38, result.PointsDeducted)
	assert.True(t, result.AmountCredited.Equal(decimal.NewFromInt(2)), "credited %s", result.AmountCredited)
	assert.Equal(t, 38, f.points.deducted[user.ID])
	assert.Equal(t, []string{rewards.ReasonConversion}, f.points.reasons)
	assert.True(t, f.repo.balances[user.ID].Equal(decimal.NewFromInt(2)))

	require.Len(t, f.repo.txns, 1)
	assert.Equal(t, enums.WalletTransactionTypeCashback, f.repo.txns[0].Type)
	assert.True(t, f.repo.txns[0].Amount.Equal(decimal.NewFromInt(2)))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, enums.EventWalletCredited, f.publisher.events[0].EventType)
}

func TestConvertDropsRemainderBelowOneUnit(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 37)

	result, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID})
	require.NoError(t, err)

	assert.Equal(t, 19, result.PointsDeducted)
	assert.True(t, result.AmountCredited.Equal(decimal.NewFromInt(1)))
}

func TestConvertRequestedAmountRoundsPointsUp(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 40)

	amount := decimal.NewFromFloat(1.5)
	result, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID, Amount: &amount})
	require.NoError(t, err)

	// 1.5 x 19 = 28.5, rounded up to 29 points.
	assert.Equal(t, 29, result.PointsDeducted)
	assert.True(t, result.AmountCredited.Equal(amount))
	assert.True(t, f.repo.balances[user.ID].Equal(amount))
}

func TestConvertRejectsBelowMinimum(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 18)

	_, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID})
	requireCode(t, err, pkgerrors.CodeInsufficientFunds)
	assert.Empty(t, f.repo.txns)
	assert.Empty(t, f.points.deducted)
}

func TestConvertRejectsAmountBeyondPoints(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 20)

	amount := decimal.NewFromInt(2)
	_, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID, Amount: &amount})
	requireCode(t, err, pkgerrors.CodeInsufficientFunds)
}

func TestConvertCustomersOnly(t *testing.T) {
	f := newWalletFixture(t)
	buyer := f.addUser(enums.UserRoleBuyer, 100)

	_, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: buyer.ID})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestConvertFailedDeductionWritesNothing(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 38)
	f.points.failWith = errors.New("ledger unavailable")

	_, err := f.svc.ConvertPointsToCash(context.Background(), ConvertInput{UserID: user.ID})
	require.Error(t, err)
	assert.Empty(t, f.repo.txns)
	assert.Empty(t, f.publisher.events)
}

func TestAddTransactionCashbackCredits(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 0)

	txn, err := f.svc.AddTransaction(context.Background(), TransactionInput{
		UserID: user.ID,
		Type:   enums.WalletTransactionTypeCashback,
		Amount: decimal.NewFromFloat(12.50),
	})
	require.NoError(t, err)

	assert.True(t, txn.Amount.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, f.repo.balances[user.ID].Equal(decimal.NewFromFloat(12.50)))
}

func TestAddTransactionWithdrawal(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 0)
	f.repo.balances[user.ID] = decimal.NewFromInt(50)

	txn, err := f.svc.AddTransaction(context.Background(), TransactionInput{
		UserID:  user.ID,
		Type:    enums.WalletTransactionTypeWithdrawal,
		Amount:  decimal.NewFromInt(30),
		Gateway: "bank",
	})
	require.NoError(t, err)

	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(-30)), "ledger amount is signed")
	assert.True(t, f.repo.balances[user.ID].Equal(decimal.NewFromInt(20)))
}

func TestAddTransactionWithdrawalGuards(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 0)
	f.repo.balances[user.ID] = decimal.NewFromInt(10)

	_, err := f.svc.AddTransaction(context.Background(), TransactionInput{
		UserID:  user.ID,
		Type:    enums.WalletTransactionTypeWithdrawal,
		Amount:  decimal.NewFromInt(30),
		Gateway: "bank",
	})
	requireCode(t, err, pkgerrors.CodeInsufficientFunds)
	assert.Empty(t, f.repo.txns, "rejected withdrawal must not write a ledger entry")

	_, err = f.svc.AddTransaction(context.Background(), TransactionInput{
		UserID: user.ID,
		Type:   enums.WalletTransactionTypeWithdrawal,
		Amount: decimal.NewFromInt(5),
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestBalanceWithoutWalletRow(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 0)

	balance, err := f.svc.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.IsZero())
}

func TestHistoryReturnsUserTransactions(t *testing.T) {
	f := newWalletFixture(t)
	user := f.addUser(enums.UserRoleCustomer, 0)
	other := f.addUser(enums.UserRoleCustomer, 0)
	f.repo.txns = []models.WalletTransaction{
		{ID: uuid.New(), UserID: user.ID, Amount: decimal.NewFromInt(5), Type: enums.WalletTransactionTypeCashback},
		{ID: uuid.New(), UserID: other.ID, Amount: decimal.NewFromInt(9), Type: enums.WalletTransactionTypeCashback},
	}

	history, err := f.svc.History(context.Background(), user.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, history.Transactions, 1)
	assert.True(t, history.Transactions[0].Amount.Equal(decimal.NewFromInt(5)))
}
