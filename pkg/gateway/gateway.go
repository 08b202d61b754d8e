package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Result is the gateway's answer for one transaction reference.
type Result struct {
	Succeeded bool
	Amount    decimal.Decimal
	Currency  string
}

// Verifier confirms whether a transaction reference actually succeeded on the
// external payment gateway and what amount it carried. The engine never
// credits a deposit on the caller's word alone; this is the only trusted path.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*Result, error)
}
