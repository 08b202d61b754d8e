package domain

// Ledger entry kinds.
const (
	EntryDeposit       = "DEPOSIT"
	EntryWithdrawal    = "WITHDRAWAL"
	EntryEscrowHold    = "ESCROW_HOLD"
	EntryEscrowRelease = "ESCROW_RELEASE"
	EntryRefund        = "REFUND"
)

// Ledger entry legs: which wallet bucket a signed amount applies to.
const (
	LegAvailable = "AVAILABLE"
	LegEscrow    = "ESCROW"
)

const EntryStatusCompleted = "COMPLETED"

// Order lifecycle, owned by the order service.
const (
	OrderPending   = "PENDING"
	OrderApproved  = "APPROVED"
	OrderShipped   = "SHIPPED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Per-order payment lifecycle. Transitions are one-way:
// UNPAID -> PAID_HELD -> RELEASED | REFUNDED.
const (
	PaymentUnpaid   = "UNPAID"
	PaymentPaidHeld = "PAID_HELD"
	PaymentReleased = "RELEASED"
	PaymentRefunded = "REFUNDED"
)

// Escrow allocation states for the per-seller hold record.
const (
	AllocationHeld     = "HELD"
	AllocationReleased = "RELEASED"
	AllocationReversed = "REVERSED"
)

// Notification types emitted by the engine.
const (
	NotifyDepositConfirmed    = "DEPOSIT_CONFIRMED"
	NotifyWithdrawalInitiated = "WITHDRAWAL_INITIATED"
	NotifyEscrowHeld          = "ESCROW_HELD"
	NotifyEscrowReleased      = "ESCROW_RELEASED"
	NotifyEscrowRefunded      = "ESCROW_REFUNDED"
)
