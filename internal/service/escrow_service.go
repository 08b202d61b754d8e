package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EscrowService coordinates the per-order hold/release/refund lifecycle:
// UNPAID -> PAID_HELD -> RELEASED | REFUNDED, one-way, terminal at the end.
//
// Each operation runs as a single database transaction: the order row is
// locked first to serialize same-order calls, then every affected wallet is
// locked in ascending ID order so overlapping multi-wallet operations cannot
// deadlock. A validation or storage failure rolls the whole unit back.
type EscrowService struct {
	db             *gorm.DB
	wallets        *repository.WalletRepository
	ledger         *repository.LedgerRepository
	orders         *repository.OrderRepository
	notifier       *NotificationService
	commissionRate decimal.Decimal
}

func NewEscrowService(
	db *gorm.DB,
	wallets *repository.WalletRepository,
	ledger *repository.LedgerRepository,
	orders *repository.OrderRepository,
	notifier *NotificationService,
	commissionRate decimal.Decimal,
) *EscrowService {
	return &EscrowService{
		db:             db,
		wallets:        wallets,
		ledger:         ledger,
		orders:         orders,
		notifier:       notifier,
		commissionRate: commissionRate,
	}
}

// sellerShare is one seller's cut of an order at the current commission rate,
// rounded once. The rounded figure is persisted at hold time and reused
// verbatim at release/refund so the two sides can never drift apart.
func (s *EscrowService) sellerShare(itemTotal decimal.Decimal) decimal.Decimal {
	return itemTotal.Mul(decimal.NewFromInt(1).Sub(s.commissionRate)).Round(2)
}

// HoldEscrow moves amount from the buyer's available balance into escrow and
// credits each distinct seller's escrow with their provisional share, creating
// seller wallets on demand. The order moves to PAID_HELD in the same unit.
func (s *EscrowService) HoldEscrow(ctx context.Context, buyerID uint, amount decimal.Decimal, orderID uint) (*models.Order, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		or := s.orders.WithTx(tx)
		wr := s.wallets.WithTx(tx)
		lr := s.ledger.WithTx(tx)

		o, err := or.GetWithItemsForUpdate(orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus != domain.PaymentUnpaid {
			return fmt.Errorf("order %d is %s: %w", orderID, o.PaymentStatus, domain.ErrInvalidState)
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("order %d has no line items: %w", orderID, domain.ErrInvalidState)
		}

		// Per-seller item totals, sellers kept in first-appearance order.
		sellerTotals := make(map[uint]decimal.Decimal)
		var sellers []uint
		for _, item := range o.Items {
			if _, seen := sellerTotals[item.SellerID]; !seen {
				sellers = append(sellers, item.SellerID)
			}
			sellerTotals[item.SellerID] = sellerTotals[item.SellerID].Add(item.Subtotal())
		}

		buyerWallet, err := wr.GetOrCreate(buyerID)
		if err != nil {
			return err
		}
		sellerWalletIDs := make(map[uint]uint, len(sellers))
		lockSet := []uint{buyerWallet.ID}
		for _, sellerID := range sellers {
			sw, err := wr.GetOrCreate(sellerID)
			if err != nil {
				return err
			}
			sellerWalletIDs[sellerID] = sw.ID
			lockSet = append(lockSet, sw.ID)
		}
		locked, err := wr.LockForUpdate(lockSet)
		if err != nil {
			return err
		}

		buyer := locked[buyerWallet.ID]
		if buyer.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		ref := orderReference(orderID)
		buyer.Balance = buyer.Balance.Sub(amount)
		buyer.EscrowBalance = buyer.EscrowBalance.Add(amount)
		if err := wr.Save(buyer); err != nil {
			return err
		}
		if err := appendPair(lr, buyer.ID, domain.EntryEscrowHold, ref, amount.Neg(), amount); err != nil {
			return err
		}

		for _, sellerID := range sellers {
			share := s.sellerShare(sellerTotals[sellerID])
			sw := locked[sellerWalletIDs[sellerID]]
			sw.EscrowBalance = sw.EscrowBalance.Add(share)
			if err := wr.Save(sw); err != nil {
				return err
			}
			if err := lr.Append(&models.LedgerEntry{
				WalletID:  sw.ID,
				Amount:    share,
				Kind:      domain.EntryEscrowHold,
				Leg:       domain.LegEscrow,
				Reference: ref,
				Status:    domain.EntryStatusCompleted,
			}); err != nil {
				return err
			}
			if err := or.CreateAllocation(&models.EscrowAllocation{
				OrderID:  orderID,
				SellerID: sellerID,
				WalletID: sw.ID,
				Amount:   share,
				Status:   domain.AllocationHeld,
			}); err != nil {
				return err
			}
		}

		if err := or.SetPaymentStatus(orderID, domain.PaymentPaidHeld, o.Commission); err != nil {
			return err
		}
		o.PaymentStatus = domain.PaymentPaidHeld
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.EscrowHeld(buyerID, orderID, amount)
	return order, nil
}

// ReleaseEscrow pays each seller their stored provisional share out of escrow
// and closes the buyer's escrow position for the order. Partial release is
// never observable: all per-seller updates and the order update share one
// transaction.
func (s *EscrowService) ReleaseEscrow(ctx context.Context, orderID uint) (*models.Order, error) {
	var (
		order *models.Order
		paid  []models.EscrowAllocation
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		or := s.orders.WithTx(tx)
		wr := s.wallets.WithTx(tx)
		lr := s.ledger.WithTx(tx)

		o, err := or.GetWithItemsForUpdate(orderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return fmt.Errorf("order %d: %w", orderID, domain.ErrInvalidState)
			}
			return err
		}
		if o.PaymentStatus != domain.PaymentPaidHeld {
			return fmt.Errorf("order %d is %s: %w", orderID, o.PaymentStatus, domain.ErrInvalidState)
		}

		allocs, err := or.AllocationsByOrder(orderID, domain.AllocationHeld)
		if err != nil {
			return err
		}
		buyerWallet, err := wr.GetOrCreate(o.BuyerID)
		if err != nil {
			return err
		}
		lockSet := []uint{buyerWallet.ID}
		for _, a := range allocs {
			lockSet = append(lockSet, a.WalletID)
		}
		locked, err := wr.LockForUpdate(lockSet)
		if err != nil {
			return err
		}

		buyer := locked[buyerWallet.ID]
		if buyer.EscrowBalance.LessThan(o.Total) {
			return fmt.Errorf("order %d: buyer escrow %s below total %s", orderID, buyer.EscrowBalance, o.Total)
		}

		ref := orderReference(orderID)
		buyer.EscrowBalance = buyer.EscrowBalance.Sub(o.Total)
		if err := wr.Save(buyer); err != nil {
			return err
		}
		if err := lr.Append(&models.LedgerEntry{
			WalletID:  buyer.ID,
			Amount:    o.Total.Neg(),
			Kind:      domain.EntryEscrowRelease,
			Leg:       domain.LegEscrow,
			Reference: ref,
			Status:    domain.EntryStatusCompleted,
		}); err != nil {
			return err
		}

		for _, a := range allocs {
			sw := locked[a.WalletID]
			sw.Balance = sw.Balance.Add(a.Amount)
			sw.EscrowBalance = sw.EscrowBalance.Sub(a.Amount)
			if err := wr.Save(sw); err != nil {
				return err
			}
			if err := appendPair(lr, sw.ID, domain.EntryEscrowRelease, ref, a.Amount, a.Amount.Neg()); err != nil {
				return err
			}
			if err := or.SetAllocationStatus(a.ID, domain.AllocationReleased); err != nil {
				return err
			}
		}

		commission := o.Total.Mul(s.commissionRate).Round(2)
		if err := or.SetPaymentStatus(orderID, domain.PaymentReleased, commission); err != nil {
			return err
		}
		o.PaymentStatus = domain.PaymentReleased
		o.Commission = commission
		order = o
		paid = allocs
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, a := range paid {
		s.notifier.EscrowReleased(a.SellerID, orderID, a.Amount)
	}
	return order, nil
}

// RefundEscrow returns the full order total to the buyer's available balance
// and claws back each seller's provisional escrow credit. Only PAID_HELD
// orders can be refunded; RELEASED and REFUNDED are terminal.
func (s *EscrowService) RefundEscrow(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		or := s.orders.WithTx(tx)
		wr := s.wallets.WithTx(tx)
		lr := s.ledger.WithTx(tx)

		o, err := or.GetWithItemsForUpdate(orderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return fmt.Errorf("order %d: %w", orderID, domain.ErrInvalidState)
			}
			return err
		}
		if o.PaymentStatus != domain.PaymentPaidHeld {
			return fmt.Errorf("order %d is %s: %w", orderID, o.PaymentStatus, domain.ErrInvalidState)
		}

		allocs, err := or.AllocationsByOrder(orderID, domain.AllocationHeld)
		if err != nil {
			return err
		}
		buyerWallet, err := wr.GetOrCreate(o.BuyerID)
		if err != nil {
			return err
		}
		lockSet := []uint{buyerWallet.ID}
		for _, a := range allocs {
			lockSet = append(lockSet, a.WalletID)
		}
		locked, err := wr.LockForUpdate(lockSet)
		if err != nil {
			return err
		}

		buyer := locked[buyerWallet.ID]
		if buyer.EscrowBalance.LessThan(o.Total) {
			return fmt.Errorf("order %d: buyer escrow %s below total %s", orderID, buyer.EscrowBalance, o.Total)
		}

		ref := orderReference(orderID)
		buyer.EscrowBalance = buyer.EscrowBalance.Sub(o.Total)
		buyer.Balance = buyer.Balance.Add(o.Total)
		if err := wr.Save(buyer); err != nil {
			return err
		}
		if err := appendPair(lr, buyer.ID, domain.EntryRefund, ref, o.Total, o.Total.Neg()); err != nil {
			return err
		}

		for _, a := range allocs {
			sw := locked[a.WalletID]
			sw.EscrowBalance = sw.EscrowBalance.Sub(a.Amount)
			if err := wr.Save(sw); err != nil {
				return err
			}
			if err := lr.Append(&models.LedgerEntry{
				WalletID:  sw.ID,
				Amount:    a.Amount.Neg(),
				Kind:      domain.EntryRefund,
				Leg:       domain.LegEscrow,
				Reference: ref,
				Status:    domain.EntryStatusCompleted,
			}); err != nil {
				return err
			}
			if err := or.SetAllocationStatus(a.ID, domain.AllocationReversed); err != nil {
				return err
			}
		}

		if err := or.SetPaymentStatus(orderID, domain.PaymentRefunded, o.Commission); err != nil {
			return err
		}
		o.PaymentStatus = domain.PaymentRefunded
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.EscrowRefunded(order.BuyerID, orderID, order.Total)
	return order, nil
}

func orderReference(orderID uint) string {
	return strconv.FormatUint(uint64(orderID), 10)
}

// appendPair writes the two legs of one movement on one wallet: the available
// leg and the escrow leg, same kind and reference.
func appendPair(lr *repository.LedgerRepository, walletID uint, kind, ref string, available, escrow decimal.Decimal) error {
	if err := lr.Append(&models.LedgerEntry{
		WalletID:  walletID,
		Amount:    available,
		Kind:      kind,
		Leg:       domain.LegAvailable,
		Reference: ref,
		Status:    domain.EntryStatusCompleted,
	}); err != nil {
		return err
	}
	return lr.Append(&models.LedgerEntry{
		WalletID:  walletID,
		Amount:    escrow,
		Kind:      kind,
		Leg:       domain.LegEscrow,
		Reference: ref,
		Status:    domain.EntryStatusCompleted,
	})
}
