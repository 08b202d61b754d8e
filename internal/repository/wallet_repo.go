package repository

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"sokoni/internal/domain"
	"sokoni/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const accountNumberDigits = 10

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) GetByID(id uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetByOwnerID(ownerID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("owner_id = ?", ownerID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByAccountNumber resolves a wallet from its virtual account number, the
// routing identifier the gateway puts in deposit callbacks.
func (r *WalletRepository) GetByAccountNumber(accountNumber string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("virtual_account_number = ?", accountNumber).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// GetOrCreate returns the owner's wallet, creating it with zero balances and a
// fresh virtual account number on first access. The account number is random;
// the unique index backstops collisions and we retry generation on conflict.
func (r *WalletRepository) GetOrCreate(ownerID uint) (*models.Wallet, error) {
	w, err := r.GetByOwnerID(ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	for attempt := 0; attempt < 5; attempt++ {
		w = &models.Wallet{
			OwnerID:              ownerID,
			VirtualAccountNumber: generateAccountNumber(),
			BankLabel:            "Sokoni Virtual",
		}
		err = r.db.Create(w).Error
		if err == nil {
			return w, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either an account-number collision or a concurrent create for
			// the same owner won the race; re-read before retrying.
			if existing, lookupErr := r.GetByOwnerID(ownerID); lookupErr == nil {
				return existing, nil
			}
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("wallet create for owner %d: %w", ownerID, err)
}

// LockForUpdate loads and row-locks the wallets with the given IDs, always in
// ascending ID order so concurrent multi-wallet operations touching
// overlapping sets cannot deadlock.
func (r *WalletRepository) LockForUpdate(ids []uint) (map[uint]*models.Wallet, error) {
	sorted := make([]uint, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	locked := make(map[uint]*models.Wallet, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		var w models.Wallet
		if err := r.forUpdate().First(&w, id).Error; err != nil {
			return nil, fmt.Errorf("lock wallet %d: %w", id, err)
		}
		locked[id] = &w
	}
	return locked, nil
}

// Save persists mutated balance fields.
func (r *WalletRepository) Save(w *models.Wallet) error {
	return r.db.Model(w).Updates(map[string]interface{}{
		"balance":        w.Balance,
		"escrow_balance": w.EscrowBalance,
	}).Error
}

// forUpdate applies SELECT ... FOR UPDATE on MySQL. The sqlite test driver has
// a single-writer model and rejects the clause.
func (r *WalletRepository) forUpdate() *gorm.DB {
	if r.db.Dialector.Name() == "mysql" {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

func generateAccountNumber() string {
	digits := make([]byte, accountNumberDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand failing means the platform RNG is broken; there is
			// no safe fallback for a routing identifier.
			panic(fmt.Sprintf("account number generation: %v", err))
		}
		digits[i] = byte('0' + n.Int64())
	}
	// Leading zero is fine; the number is an opaque routing string.
	return string(digits)
}
