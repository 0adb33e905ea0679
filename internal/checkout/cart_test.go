package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/model"
)

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCartTTLIsMinimumAcrossLines(t *testing.T) {
	c := NewCart()
	session := "sess-1"
	now := time.Now().UTC()
	c.sessions[session] = []model.Hold{
		{ID: uuid.New(), ExpiresAt: now.Add(10 * time.Minute)},
		{ID: uuid.New(), ExpiresAt: now.Add(3 * time.Minute)},
		{ID: uuid.New(), ExpiresAt: now.Add(7 * time.Minute)},
	}
	got, err := c.TTL(session)
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	want := now.Add(3 * time.Minute)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCartTTLEmptyIsError(t *testing.T) {
	c := NewCart()
	if _, err := c.TTL("missing"); err == nil {
		t.Fatalf("expected an error for an empty cart")
	}
}

func TestFakeProcessorSettlesByDefault(t *testing.T) {
	p := &FakeProcessor{}
	res, err := p.Charge(context.Background(), mustDecimal("10.00"), "USD", "card", "ref-1")
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if !res.Settled {
		t.Fatalf("expected a settled charge")
	}
}

func TestFakeProcessorAlwaysFail(t *testing.T) {
	p := &FakeProcessor{AlwaysFail: true}
	if _, err := p.Charge(context.Background(), mustDecimal("10.00"), "USD", "card", "ref-1"); err == nil {
		t.Fatalf("expected an error from a failing processor")
	}
}
