package fiscal

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/model"
)

func decStr(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestTaxEngineCalculate(t *testing.T) {
	e := TaxEngine{}
	base := decStr(t, "100.00")

	t.Run("percentage rounds up", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxPercentage, Rate: decStr(t, "0.16"), Active: true}
		got := e.Calculate(cfg, base)
		want := decStr(t, "16.00")
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("percentage with three-decimal rate lands on whole cents", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxPercentage, Rate: decStr(t, "0.165"), Active: true}
		got := e.Calculate(cfg, decStr(t, "10.00"))
		// 10.00 * 0.165 = 1.65 exactly -> no rounding needed, still check boundary case
		want := decStr(t, "1.65")
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("percentage rounds up non-exact", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxPercentage, Rate: decStr(t, "0.07"), Active: true}
		got := e.Calculate(cfg, decStr(t, "10.01"))
		// 10.01 * 0.07 = 0.7007 -> round up to 0.71
		want := decStr(t, "0.71")
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("fixed ignores base", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxFixed, FixedAmount: decStr(t, "2.50"), Active: true}
		got := e.Calculate(cfg, decStr(t, "999.99"))
		want := decStr(t, "2.50")
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("compound taxes the tax", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxCompound, Rate: decStr(t, "0.1"), Active: true}
		got := e.Calculate(cfg, decStr(t, "100.00"))
		// primary 10.00, compound 1.00, total 11.00
		want := decStr(t, "11.00")
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
	})

	t.Run("inactive config contributes zero", func(t *testing.T) {
		cfg := model.TaxConfig{Type: model.TaxPercentage, Rate: decStr(t, "0.5"), Active: false}
		got := e.Calculate(cfg, base)
		if !got.IsZero() {
			t.Fatalf("expected zero for inactive config, got %s", got)
		}
	})
}
