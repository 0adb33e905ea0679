package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ChargeResult is what a PaymentProcessor returns on a successful charge.
type ChargeResult struct {
	Settled         bool
	AuthorizationID string
}

// PaymentProcessor is the external collaborator Checkout calls to settle
// a transaction's total. No concrete HTTP implementation lives in this
// module; wiring a real processor (card network, wallet, bank transfer
// gateway) is out of core scope.
type PaymentProcessor interface {
	Charge(ctx context.Context, amount decimal.Decimal, currency, method, reference string) (ChargeResult, error)
}

// FakeProcessor is a deterministic PaymentProcessor for tests: it settles
// every charge unless AlwaysFail is set.
type FakeProcessor struct {
	AlwaysFail bool
}

func (f *FakeProcessor) Charge(ctx context.Context, amount decimal.Decimal, currency, method, reference string) (ChargeResult, error) {
	if f.AlwaysFail {
		return ChargeResult{}, errChargeDeclined
	}
	return ChargeResult{Settled: true, AuthorizationID: "fake-" + reference}, nil
}

var errChargeDeclined = errors.New("charge declined")
