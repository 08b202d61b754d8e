package service

import (
	"context"
	"testing"

	"sokoni/internal/database"
	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/pkg/gateway"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type fakeVerifier struct {
	res *gateway.Result
	err error
}

func (f *fakeVerifier) Verify(ctx context.Context, reference string) (*gateway.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fixture struct {
	db     *gorm.DB
	wallet *WalletService
	escrow *EscrowService

	wallets *repository.WalletRepository
	ledger  *repository.LedgerRepository
	orders  *repository.OrderRepository
	payouts *repository.PayoutMethodRepository
}

func newFixture(t *testing.T, verifier gateway.Verifier, commissionRate string) *fixture {
	t.Helper()
	db := newTestDB(t)
	wallets := repository.NewWalletRepository(db)
	ledger := repository.NewLedgerRepository(db)
	cards := repository.NewCardRepository(db)
	payouts := repository.NewPayoutMethodRepository(db)
	orders := repository.NewOrderRepository(db)
	notif := NewNotificationService(repository.NewNotificationRepository(db))
	rate := dec(t, commissionRate)
	return &fixture{
		db:      db,
		wallet:  NewWalletService(db, wallets, ledger, cards, payouts, verifier, notif),
		escrow:  NewEscrowService(db, wallets, ledger, orders, notif, rate),
		wallets: wallets,
		ledger:  ledger,
		orders:  orders,
		payouts: payouts,
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// seedOrder inserts an unpaid order with the given items.
func (f *fixture) seedOrder(t *testing.T, buyerID uint, items ...models.OrderItem) *models.Order {
	t.Helper()
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	o := &models.Order{
		BuyerID:       buyerID,
		Total:         total,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentUnpaid,
		Items:         items,
	}
	require.NoError(t, f.orders.Create(o))
	return o
}

// fund credits a wallet through the deposit path so the ledger stays
// consistent with the balances the test sets up.
func (f *fixture) fund(t *testing.T, ownerID uint, amount string) *models.Wallet {
	t.Helper()
	w, err := f.wallet.Deposit(context.Background(), ownerID, dec(t, amount), "")
	require.NoError(t, err)
	return w
}

func (f *fixture) reload(t *testing.T, ownerID uint) *models.Wallet {
	t.Helper()
	w, err := f.wallets.GetByOwnerID(ownerID)
	require.NoError(t, err)
	return w
}

// assertReconciled checks the ledger invariant for every wallet: each balance
// bucket equals the sum of its entries, and neither bucket is negative.
func (f *fixture) assertReconciled(t *testing.T) {
	t.Helper()
	var wallets []models.Wallet
	require.NoError(t, f.db.Find(&wallets).Error)
	for _, w := range wallets {
		var entries []models.LedgerEntry
		require.NoError(t, f.db.Where("wallet_id = ?", w.ID).Find(&entries).Error)
		available, escrow := decimal.Zero, decimal.Zero
		for _, e := range entries {
			switch e.Leg {
			case domain.LegAvailable:
				available = available.Add(e.Amount)
			case domain.LegEscrow:
				escrow = escrow.Add(e.Amount)
			default:
				t.Fatalf("wallet %d: entry %d has unknown leg %q", w.ID, e.ID, e.Leg)
			}
		}
		require.Truef(t, w.Balance.Equal(available),
			"wallet %d balance %s != entry sum %s", w.ID, w.Balance, available)
		require.Truef(t, w.EscrowBalance.Equal(escrow),
			"wallet %d escrow %s != entry sum %s", w.ID, w.EscrowBalance, escrow)
		require.Falsef(t, w.Balance.IsNegative(), "wallet %d negative balance %s", w.ID, w.Balance)
		require.Falsef(t, w.EscrowBalance.IsNegative(), "wallet %d negative escrow %s", w.ID, w.EscrowBalance)
	}
}
