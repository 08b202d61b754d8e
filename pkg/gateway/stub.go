package gateway

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// StubVerifier approves references prefixed "stub_" for development; the
// amount is fixed so local flows are predictable.
type StubVerifier struct{}

func (s *StubVerifier) Verify(ctx context.Context, reference string) (*Result, error) {
	if !strings.HasPrefix(reference, "stub_") {
		return &Result{Succeeded: false}, nil
	}
	return &Result{
		Succeeded: true,
		Amount:    decimal.NewFromInt(100),
		Currency:  "KES",
	}, nil
}
