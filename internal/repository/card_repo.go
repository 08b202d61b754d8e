package repository

import (
	"sokoni/internal/models"

	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) WithTx(tx *gorm.DB) *CardRepository {
	return &CardRepository{db: tx}
}

func (r *CardRepository) Create(c *models.Card) error {
	return r.db.Create(c).Error
}

func (r *CardRepository) ListByWalletID(walletID uint) ([]models.Card, error) {
	var list []models.Card
	err := r.db.Where("wallet_id = ?", walletID).Order("created_at DESC").Find(&list).Error
	return list, err
}
