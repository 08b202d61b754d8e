package repository

import (
	"errors"

	"sokoni/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: tx}
}

// Append records one fund movement. Entries are immutable; there is no update
// or delete counterpart on purpose.
func (r *LedgerRepository) Append(e *models.LedgerEntry) error {
	return r.db.Create(e).Error
}

// FindByKindAndReference returns the first entry of the given kind carrying
// the reference, or nil when none exists. Used for idempotency checks.
func (r *LedgerRepository) FindByKindAndReference(kind, reference string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.db.Where("kind = ? AND reference = ?", kind, reference).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *LedgerRepository) ListByWalletID(walletID uint, limit, offset int) ([]models.LedgerEntry, error) {
	var list []models.LedgerEntry
	err := r.db.Where("wallet_id = ?", walletID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// SumByWalletAndLeg recomputes a wallet bucket from its entries. The result
// must always equal the corresponding wallet field; reconciliation jobs and
// the test suite rely on that.
func (r *LedgerRepository) SumByWalletAndLeg(walletID uint, leg string) (decimal.Decimal, error) {
	var raw *string
	err := r.db.Model(&models.LedgerEntry{}).
		Where("wallet_id = ? AND leg = ?", walletID, leg).
		Select("SUM(amount)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
