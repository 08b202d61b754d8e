package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry records one signed fund movement on one wallet bucket.
// Entries are append-only: never updated, never deleted. A wallet's Balance is
// the sum of AVAILABLE-leg amounts and its EscrowBalance the sum of ESCROW-leg
// amounts, starting from zero.
type LedgerEntry struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	WalletID uint            `gorm:"not null;index;uniqueIndex:idx_ledger_idem" json:"wallet_id"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"` // positive = credit, negative = debit
	Kind     string          `gorm:"size:20;not null;index;uniqueIndex:idx_ledger_idem" json:"kind"`
	Leg      string          `gorm:"size:10;not null;uniqueIndex:idx_ledger_idem" json:"leg"`
	// Reference is the idempotency key against outside systems: the gateway
	// reference for deposits, the order id for escrow movements, a generated
	// destination+timestamp token for withdrawals. Always non-empty so the
	// unique index enforces exactly-once recording.
	Reference string    `gorm:"size:128;not null;uniqueIndex:idx_ledger_idem" json:"reference"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
