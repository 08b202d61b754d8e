package models

import (
	"time"

	"gorm.io/gorm"
)

// Card is deposit-origin metadata only. The engine never charges it directly;
// charging is the external gateway's job.
type Card struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WalletID    uint           `gorm:"not null;index" json:"wallet_id"`
	Brand       string         `gorm:"size:20;not null" json:"brand"`
	Last4       string         `gorm:"size:4;not null" json:"last4"`
	ExpiryMonth int            `gorm:"not null" json:"expiry_month"`
	ExpiryYear  int            `gorm:"not null" json:"expiry_year"`
	HolderName  string         `gorm:"size:100;not null" json:"holder_name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Card) TableName() string {
	return "cards"
}
