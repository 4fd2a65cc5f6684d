package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/pagination"
)

// Repository defines persistence operations for the wallet ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindWallet(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error)
	EnsureWallet(ctx context.Context, userID uuid.UUID) error
	CreditBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	DebitBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
}
