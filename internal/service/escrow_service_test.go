package service

import (
	"context"
	"testing"

	"sokoni/internal/domain"
	"sokoni/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	buyerID  = uint(1)
	sellerID = uint(2)
)

func item(t *testing.T, sellerID uint, qty int, unitPrice string) models.OrderItem {
	t.Helper()
	return models.OrderItem{
		ProductID: 100,
		SellerID:  sellerID,
		Quantity:  qty,
		UnitPrice: dec(t, unitPrice),
	}
}

func TestHoldEscrow(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 2, "30.00"))

	held, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaidHeld, held.PaymentStatus)

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.Balance.Equal(dec(t, "40.00")))
	assert.True(t, buyer.EscrowBalance.Equal(dec(t, "60.00")))

	seller := f.reload(t, sellerID)
	assert.True(t, seller.EscrowBalance.Equal(dec(t, "57.00")), "seller sees 60 x 0.95 provisionally")
	assert.True(t, seller.Balance.IsZero())

	allocs, err := f.orders.AllocationsByOrder(o.ID, domain.AllocationHeld)
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Amount.Equal(dec(t, "57.00")))
	f.assertReconciled(t)
}

func TestHoldEscrowInsufficientFunds(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "59.99")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 2, "30.00"))

	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.Balance.Equal(dec(t, "59.99")))
	assert.True(t, buyer.EscrowBalance.IsZero())
	seller := f.reload(t, sellerID)
	assert.True(t, seller.EscrowBalance.IsZero(), "failed hold must not leave seller escrow behind")
	f.assertReconciled(t)
}

func TestHoldEscrowOrderNotFound(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	f.fund(t, buyerID, "100.00")

	_, err := f.escrow.HoldEscrow(context.Background(), buyerID, dec(t, "60.00"), 9999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestHoldEscrowRejectsDoublePay(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "200.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 1, "60.00"))

	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)
	_, err = f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.EscrowBalance.Equal(dec(t, "60.00")), "second hold must not double-debit")
	f.assertReconciled(t)
}

func TestReleaseEscrow(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 2, "30.00"))
	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)

	released, err := f.escrow.ReleaseEscrow(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentReleased, released.PaymentStatus)
	assert.True(t, released.Commission.Equal(dec(t, "3.00")))

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.Balance.Equal(dec(t, "40.00")))
	assert.True(t, buyer.EscrowBalance.IsZero())

	seller := f.reload(t, sellerID)
	assert.True(t, seller.Balance.Equal(dec(t, "57.00")))
	assert.True(t, seller.EscrowBalance.IsZero())

	allocs, err := f.orders.AllocationsByOrder(o.ID, domain.AllocationReleased)
	require.NoError(t, err)
	assert.Len(t, allocs, 1)
	f.assertReconciled(t)
}

func TestReleaseEscrowTwice(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 1, "60.00"))
	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)

	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	require.NoError(t, err)
	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Funds moved exactly once.
	seller := f.reload(t, sellerID)
	assert.True(t, seller.Balance.Equal(dec(t, "57.00")))
	f.assertReconciled(t)
}

func TestReleaseEscrowRequiresHold(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	o := f.seedOrder(t, buyerID, item(t, sellerID, 1, "60.00"))

	_, err := f.escrow.ReleaseEscrow(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "unpaid order cannot release")

	_, err = f.escrow.ReleaseEscrow(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "unknown order maps to invalid state")
}

func TestRefundEscrow(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 2, "30.00"))
	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)

	refunded, err := f.escrow.RefundEscrow(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, refunded.PaymentStatus)

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.Balance.Equal(dec(t, "100.00")), "full total returns to the buyer")
	assert.True(t, buyer.EscrowBalance.IsZero())

	seller := f.reload(t, sellerID)
	assert.True(t, seller.EscrowBalance.IsZero(), "provisional seller credit is clawed back")
	assert.True(t, seller.Balance.IsZero())

	allocs, err := f.orders.AllocationsByOrder(o.ID, domain.AllocationReversed)
	require.NoError(t, err)
	assert.Len(t, allocs, 1)
	f.assertReconciled(t)
}

func TestRefundEscrowTerminal(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 1, "60.00"))
	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "60.00"), o.ID)
	require.NoError(t, err)
	_, err = f.escrow.RefundEscrow(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.escrow.RefundEscrow(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	f.assertReconciled(t)
}

func TestMultiSellerSplit(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "500.00")
	// Seller 2: 2 x 30.00 = 60.00 -> 57.00. Seller 3: 10.01 + 20.02 across
	// two items = 30.03 -> 28.5285 -> 28.53 once rounded.
	o := f.seedOrder(t, buyerID,
		item(t, 2, 2, "30.00"),
		item(t, 3, 1, "10.01"),
		item(t, 3, 1, "20.02"),
	)

	_, err := f.escrow.HoldEscrow(ctx, buyerID, o.Total, o.ID)
	require.NoError(t, err)
	assert.True(t, f.reload(t, 2).EscrowBalance.Equal(dec(t, "57.00")))
	assert.True(t, f.reload(t, 3).EscrowBalance.Equal(dec(t, "28.53")))

	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	require.NoError(t, err)

	buyer := f.reload(t, buyerID)
	assert.True(t, buyer.EscrowBalance.IsZero())
	assert.True(t, f.reload(t, 2).Balance.Equal(dec(t, "57.00")))
	assert.True(t, f.reload(t, 3).Balance.Equal(dec(t, "28.53")))
	assert.True(t, f.reload(t, 2).EscrowBalance.IsZero())
	assert.True(t, f.reload(t, 3).EscrowBalance.IsZero())
	f.assertReconciled(t)
}

// TestReleaseAllOrNothing injects a storage fault after the first seller is
// paid and checks that no mutation survives, then retries cleanly.
func TestReleaseAllOrNothing(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.05")
	ctx := context.Background()
	f.fund(t, buyerID, "200.00")
	o := f.seedOrder(t, buyerID,
		item(t, 2, 1, "60.00"),
		item(t, 3, 1, "40.00"),
	)
	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "100.00"), o.ID)
	require.NoError(t, err)

	// Fail the second seller's payout entry mid-transaction.
	releases := 0
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_release", func(tx *gorm.DB) {
		if e, ok := tx.Statement.Dest.(*models.LedgerEntry); ok && e.Kind == domain.EntryEscrowRelease && e.Leg == domain.LegAvailable {
			releases++
			if releases == 2 {
				tx.AddError(gorm.ErrInvalidTransaction)
			}
		}
	}))

	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	require.Error(t, err)

	// Nothing observable: order still held, no seller paid, buyer escrow intact.
	var order models.Order
	require.NoError(t, f.db.First(&order, o.ID).Error)
	assert.Equal(t, domain.PaymentPaidHeld, order.PaymentStatus)
	assert.True(t, f.reload(t, buyerID).EscrowBalance.Equal(dec(t, "100.00")))
	assert.True(t, f.reload(t, 2).Balance.IsZero())
	assert.True(t, f.reload(t, 3).Balance.IsZero())
	f.assertReconciled(t)

	// A retry from the original PAID_HELD state succeeds.
	require.NoError(t, f.db.Callback().Create().Remove("test:fail_release"))
	_, err = f.escrow.ReleaseEscrow(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, f.reload(t, 2).Balance.Equal(dec(t, "57.00")))
	assert.True(t, f.reload(t, 3).Balance.Equal(dec(t, "38.00")))
	assert.True(t, f.reload(t, buyerID).EscrowBalance.IsZero())
	f.assertReconciled(t)
}

func TestCommissionRateIsInjected(t *testing.T) {
	f := newFixture(t, &fakeVerifier{}, "0.10")
	ctx := context.Background()
	f.fund(t, buyerID, "100.00")
	o := f.seedOrder(t, buyerID, item(t, sellerID, 1, "50.00"))

	_, err := f.escrow.HoldEscrow(ctx, buyerID, dec(t, "50.00"), o.ID)
	require.NoError(t, err)
	assert.True(t, f.reload(t, sellerID).EscrowBalance.Equal(dec(t, "45.00")))

	released, err := f.escrow.ReleaseEscrow(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, released.Commission.Equal(dec(t, "5.00")))
	f.assertReconciled(t)
}
