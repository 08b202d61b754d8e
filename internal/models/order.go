package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is owned by the order service; the engine reads it and writes
// PaymentStatus/Commission inside the same transaction as the balance moves.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BuyerID       uint            `gorm:"not null;index" json:"buyer_id"`
	Total         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	PaymentStatus string          `gorm:"size:20;not null;index" json:"payment_status"`
	Commission    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"commission"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem references a product with its own independent seller. One order
// may aggregate items from multiple distinct sellers.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	SellerID  uint            `gorm:"not null;index" json:"seller_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is the item's contribution to the order total.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// EscrowAllocation is the per-seller hold record: the provisional share
// computed once when escrow is held. Release and refund read Amount back
// verbatim instead of recomputing, so rounding can never drift between the
// two sides of the lifecycle.
type EscrowAllocation struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex:idx_alloc_order_seller" json:"order_id"`
	SellerID  uint            `gorm:"not null;uniqueIndex:idx_alloc_order_seller" json:"seller_id"`
	WalletID  uint            `gorm:"not null;index" json:"wallet_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status    string          `gorm:"size:20;not null;index" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (EscrowAllocation) TableName() string {
	return "escrow_allocations"
}
