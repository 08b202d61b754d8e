package repository

import (
	"errors"

	"sokoni/internal/domain"
	"sokoni/internal/models"

	"gorm.io/gorm"
)

type PayoutMethodRepository struct {
	db *gorm.DB
}

func NewPayoutMethodRepository(db *gorm.DB) *PayoutMethodRepository {
	return &PayoutMethodRepository{db: db}
}

func (r *PayoutMethodRepository) WithTx(tx *gorm.DB) *PayoutMethodRepository {
	return &PayoutMethodRepository{db: tx}
}

func (r *PayoutMethodRepository) Create(m *models.PayoutMethod) error {
	return r.db.Create(m).Error
}

// GetForWallet resolves a payout method only if it belongs to the wallet.
func (r *PayoutMethodRepository) GetForWallet(id, walletID uint) (*models.PayoutMethod, error) {
	var m models.PayoutMethod
	err := r.db.Where("id = ? AND wallet_id = ?", id, walletID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PayoutMethodRepository) ListByWalletID(walletID uint) ([]models.PayoutMethod, error) {
	var list []models.PayoutMethod
	err := r.db.Where("wallet_id = ?", walletID).Order("is_default DESC, created_at DESC").Find(&list).Error
	return list, err
}

// ClearDefaults drops the default flag on every method of the wallet. Run in
// the same transaction as the insert that sets a new default.
func (r *PayoutMethodRepository) ClearDefaults(walletID uint) error {
	return r.db.Model(&models.PayoutMethod{}).
		Where("wallet_id = ? AND is_default = ?", walletID, true).
		Update("is_default", false).Error
}
