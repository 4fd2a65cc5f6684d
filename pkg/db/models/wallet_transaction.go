package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// WalletTransaction is one signed movement on a user's wallet. Amount is
// negative for withdrawals and positive for cashback; the user's cached
// balance must always equal the sum of their transactions.
type WalletTransaction struct {
	ID        uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Amount    decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	Type      enums.WalletTransactionType `gorm:"column:type;type:wallet_transaction_type;not null"`
	Gateway   string                      `gorm:"column:gateway;type:text;not null;default:''"`
	Reference *string                     `gorm:"column:reference;type:text"`
	CreatedAt time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

// UserWallet caches a user's balance for fast reads. The transaction log is
// the source of truth.
type UserWallet struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
