package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService is the wallet accessor plus the deposit/withdrawal unit. Every
// balance mutation and its ledger entry commit in one database transaction.
type WalletService struct {
	db       *gorm.DB
	wallets  *repository.WalletRepository
	ledger   *repository.LedgerRepository
	cards    *repository.CardRepository
	payouts  *repository.PayoutMethodRepository
	verifier gateway.Verifier
	notifier *NotificationService
}

func NewWalletService(
	db *gorm.DB,
	wallets *repository.WalletRepository,
	ledger *repository.LedgerRepository,
	cards *repository.CardRepository,
	payouts *repository.PayoutMethodRepository,
	verifier gateway.Verifier,
	notifier *NotificationService,
) *WalletService {
	return &WalletService{
		db:       db,
		wallets:  wallets,
		ledger:   ledger,
		cards:    cards,
		payouts:  payouts,
		verifier: verifier,
		notifier: notifier,
	}
}

// GetOrCreateWallet returns the owner's wallet with linked cards and payout
// methods, creating the wallet on first access.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, ownerID uint) (*models.Wallet, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	if w.Cards, err = s.cards.ListByWalletID(w.ID); err != nil {
		return nil, err
	}
	if w.PayoutMethods, err = s.payouts.ListByWalletID(w.ID); err != nil {
		return nil, err
	}
	return w, nil
}

// Deposit credits the available balance. A non-empty reference makes the call
// idempotent: if a DEPOSIT entry with that reference already exists, nothing
// moves and the wallet is returned as-is. The externally-verified callback
// path may retry, so this must hold under concurrent duplicates; the ledger's
// unique index is the final arbiter.
func (s *WalletService) Deposit(ctx context.Context, ownerID uint, amount decimal.Decimal, reference string) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var (
		result  *models.Wallet
		applied bool
		ref     = reference
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wr := s.wallets.WithTx(tx)
		lr := s.ledger.WithTx(tx)

		if ref != "" {
			prior, err := lr.FindByKindAndReference(domain.EntryDeposit, ref)
			if err != nil {
				return err
			}
			if prior != nil {
				w, err := wr.GetByID(prior.WalletID)
				if err != nil {
					return err
				}
				result = w
				return nil
			}
		} else {
			ref = "dep-" + uuid.NewString()
		}

		created, err := wr.GetOrCreate(ownerID)
		if err != nil {
			return err
		}
		locked, err := wr.LockForUpdate([]uint{created.ID})
		if err != nil {
			return err
		}
		w := locked[created.ID]
		w.Balance = w.Balance.Add(amount)
		if err := wr.Save(w); err != nil {
			return err
		}
		if err := lr.Append(&models.LedgerEntry{
			WalletID:  w.ID,
			Amount:    amount,
			Kind:      domain.EntryDeposit,
			Leg:       domain.LegAvailable,
			Reference: ref,
			Status:    domain.EntryStatusCompleted,
		}); err != nil {
			return err
		}
		result = w
		applied = true
		return nil
	})
	if err != nil {
		// A concurrent duplicate can slip past the lookup and lose the race
		// at the unique index; that is the idempotent case, not a failure.
		if errors.Is(err, gorm.ErrDuplicatedKey) && reference != "" {
			prior, lookupErr := s.ledger.FindByKindAndReference(domain.EntryDeposit, reference)
			if lookupErr == nil && prior != nil {
				return s.wallets.GetByID(prior.WalletID)
			}
		}
		return nil, err
	}
	if applied {
		s.notifier.DepositConfirmed(ownerID, amount, ref)
	}
	return result, nil
}

// Withdraw moves funds from the available balance toward the given payout
// destination. The reference encodes destination and timestamp for downstream
// reconciliation with the payout rail.
func (s *WalletService) Withdraw(ctx context.Context, ownerID uint, amount decimal.Decimal, payoutMethodID uint) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var result *models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wr := s.wallets.WithTx(tx)
		lr := s.ledger.WithTx(tx)
		pr := s.payouts.WithTx(tx)

		created, err := wr.GetOrCreate(ownerID)
		if err != nil {
			return err
		}
		method, err := pr.GetForWallet(payoutMethodID, created.ID)
		if err != nil {
			return err
		}
		locked, err := wr.LockForUpdate([]uint{created.ID})
		if err != nil {
			return err
		}
		w := locked[created.ID]
		if w.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		if err := wr.Save(w); err != nil {
			return err
		}
		if err := lr.Append(&models.LedgerEntry{
			WalletID:  w.ID,
			Amount:    amount.Neg(),
			Kind:      domain.EntryWithdrawal,
			Leg:       domain.LegAvailable,
			Reference: fmt.Sprintf("wd-%d-%d", method.ID, time.Now().UnixNano()),
			Status:    domain.EntryStatusCompleted,
		}); err != nil {
			return err
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.WithdrawalInitiated(ownerID, amount)
	return result, nil
}

// AddCard stores deposit-origin card metadata against the owner's wallet.
func (s *WalletService) AddCard(ctx context.Context, ownerID uint, card models.Card) (*models.Card, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	card.WalletID = w.ID
	if err := s.cards.Create(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *WalletService) ListCards(ctx context.Context, ownerID uint) ([]models.Card, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	return s.cards.ListByWalletID(w.ID)
}

// AddPayoutMethod inserts a bank destination. When the new method is the
// default, every other default of the wallet is cleared in the same
// transaction, so at most one default can ever be observed.
func (s *WalletService) AddPayoutMethod(ctx context.Context, ownerID uint, method models.PayoutMethod) (*models.PayoutMethod, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	method.WalletID = w.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pr := s.payouts.WithTx(tx)
		if method.IsDefault {
			if err := pr.ClearDefaults(w.ID); err != nil {
				return err
			}
		}
		return pr.Create(&method)
	})
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *WalletService) ListPayoutMethods(ctx context.Context, ownerID uint) ([]models.PayoutMethod, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	return s.payouts.ListByWalletID(w.ID)
}

// ListTransactions returns the wallet's ledger history, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, ownerID uint, limit, offset int) ([]models.LedgerEntry, error) {
	w, err := s.wallets.GetOrCreate(ownerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.ledger.ListByWalletID(w.ID, limit, offset)
}

// VerifyExternalDeposit confirms a transaction reference with the gateway and
// credits the verified amount. Already-processed references return the wallet
// without double-crediting; a gateway failure or ambiguous answer never
// credits anything.
func (s *WalletService) VerifyExternalDeposit(ctx context.Context, ownerID uint, reference string) (*models.Wallet, error) {
	if reference == "" {
		return nil, fmt.Errorf("empty reference: %w", domain.ErrVerificationFailed)
	}
	res, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !res.Succeeded || !res.Amount.IsPositive() {
		return nil, domain.ErrVerificationFailed
	}
	return s.Deposit(ctx, ownerID, res.Amount, reference)
}
