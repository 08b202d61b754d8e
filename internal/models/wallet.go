package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance record, created lazily on first access and
// never deleted. Balance and EscrowBalance are mutated only inside a database
// transaction, together with the ledger entries documenting the change.
type Wallet struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OwnerID              uint            `gorm:"uniqueIndex;not null" json:"owner_id"`
	Balance              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	EscrowBalance        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"escrow_balance"`
	VirtualAccountNumber string          `gorm:"size:20;uniqueIndex;not null" json:"virtual_account_number"`
	BankLabel            string          `gorm:"size:64" json:"bank_label"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	Cards         []Card         `gorm:"foreignKey:WalletID" json:"cards,omitempty"`
	PayoutMethods []PayoutMethod `gorm:"foreignKey:WalletID" json:"payout_methods,omitempty"`
}

func (Wallet) TableName() string {
	return "wallets"
}
