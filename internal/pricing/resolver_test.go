package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticketing-core/internal/model"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestApplyModifier(t *testing.T) {
	base := mustDecimal(t, "100.00")
	cases := []struct {
		name string
		typ  model.ModifierType
		val  string
		want string
	}{
		{"percentage up", model.ModifierPercentage, "10", "110"},
		{"percentage down", model.ModifierPercentage, "-25", "75"},
		{"fixed add", model.ModifierFixedAdd, "5.50", "105.50"},
		{"fixed subtract", model.ModifierFixedAdd, "-5.50", "94.50"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := applyModifier(base, c.typ, mustDecimal(t, c.val))
			want := mustDecimal(t, c.want)
			if !got.Equal(want) {
				t.Fatalf("got %s, want %s", got, want)
			}
		})
	}
}

func TestApplicableStagesOrdering(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	zoneID := uint64(7)
	otherZone := uint64(8)

	zoneScoped := model.PriceStage{ID: 1, ZoneID: &zoneID, Ordinal: 2, Start: now.Add(-time.Hour), End: now.Add(time.Hour), Active: true}
	eventWide := model.PriceStage{ID: 2, ZoneID: nil, Ordinal: 1, Start: now.Add(-time.Hour), End: now.Add(time.Hour), Active: true}
	expired := model.PriceStage{ID: 3, ZoneID: &zoneID, Ordinal: 0, Start: now.Add(-2 * time.Hour), End: now.Add(-time.Hour), Active: true}
	wrongZone := model.PriceStage{ID: 4, ZoneID: &otherZone, Ordinal: 0, Start: now.Add(-time.Hour), End: now.Add(time.Hour), Active: true}
	inactive := model.PriceStage{ID: 5, ZoneID: &zoneID, Ordinal: 0, Start: now.Add(-time.Hour), End: now.Add(time.Hour), Active: false}

	got := applicableStages([]model.PriceStage{eventWide, zoneScoped, expired, wrongZone, inactive}, zoneID, now)

	if len(got) != 2 {
		t.Fatalf("expected 2 applicable stages, got %d: %+v", len(got), got)
	}
	if got[0].ID != zoneScoped.ID {
		t.Fatalf("expected zone-scoped stage first, got id %d", got[0].ID)
	}
	if got[1].ID != eventWide.ID {
		t.Fatalf("expected event-wide stage second, got id %d", got[1].ID)
	}
}

func TestApplicableStagesBoundary(t *testing.T) {
	zoneID := uint64(1)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	stage := model.PriceStage{ID: 1, ZoneID: &zoneID, Start: start, End: end, Active: true}

	if got := applicableStages([]model.PriceStage{stage}, zoneID, start.Add(-time.Nanosecond)); len(got) != 0 {
		t.Fatalf("stage should not apply before its start: %+v", got)
	}
	if got := applicableStages([]model.PriceStage{stage}, zoneID, start); len(got) != 1 {
		t.Fatalf("stage should apply at its start instant (inclusive)")
	}
	if got := applicableStages([]model.PriceStage{stage}, zoneID, end); len(got) != 0 {
		t.Fatalf("stage should not apply at its end instant (exclusive): %+v", got)
	}
}
