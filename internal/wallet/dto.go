package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenloop-app/greenloop-backend/pkg/enums"
)

// TransactionInput carries the data required to append a wallet transaction.
type TransactionInput struct {
	UserID    uuid.UUID
	Type      enums.WalletTransactionType
	Amount    decimal.Decimal
	Gateway   string
	Reference *string
}

// ConvertInput carries the points-to-cash conversion request. A nil Amount
// means "convert the maximum whole-unit amount affordable".
type ConvertInput struct {
	UserID uuid.UUID
	Amount *decimal.Decimal
}

// ConversionResult reports what a conversion deducted and credited.
type ConversionResult struct {
	PointsDeducted int             `json:"points_deducted"`
	AmountCredited decimal.Decimal `json:"amount_credited"`
	Balance        decimal.Decimal `json:"balance"`
}

// Balance is the cached wallet balance projection.
type Balance struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// HistoryEntry is one wallet transaction in the history projection.
type HistoryEntry struct {
	ID        uuid.UUID                   `json:"id"`
	Amount    decimal.Decimal             `json:"amount"`
	Type      enums.WalletTransactionType `json:"type"`
	Gateway   string                      `json:"gateway,omitempty"`
	Reference *string                     `json:"reference,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

// History wraps a page of wallet transactions plus the next cursor.
type History struct {
	Transactions []HistoryEntry `json:"transactions"`
	NextCursor   string         `json:"next_cursor,omitempty"`
}
