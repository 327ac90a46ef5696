package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthdash/pkg/contracts/domain"
)

func values(vals ...interface{}) [domain.SnapshotCount]domain.Value {
	var out [domain.SnapshotCount]domain.Value
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			out[i] = domain.Defined(f)
		}
	}
	return out
}

func recordWith(ticker string, sector domain.Sector, revenue [domain.SnapshotCount]domain.Value) domain.FinancialRecord {
	return domain.FinancialRecord{
		Ticker:    ticker,
		Sector:    sector,
		Snapshots: map[domain.Metric][domain.SnapshotCount]domain.Value{domain.MetricRevenue: revenue},
	}
}

func TestGrowthSlot(t *testing.T) {
	tests := []struct {
		name       string
		prev, cur  domain.Value
		wantStatus domain.SlotStatus
		wantValue  float64
	}{
		{"growth", domain.Defined(100), domain.Defined(110), domain.SlotDefined, 10},
		{"decline", domain.Defined(200), domain.Defined(150), domain.SlotDefined, -25},
		{"negative base", domain.Defined(-50), domain.Defined(-25), domain.SlotDefined, -50},
		{"missing prev", domain.Undefined(), domain.Defined(1), domain.SlotMissingInput, 0},
		{"missing cur", domain.Defined(1), domain.Undefined(), domain.SlotMissingInput, 0},
		{"zero prev", domain.Defined(0), domain.Defined(5), domain.SlotZeroDenominator, 0},
		{"zero both", domain.Defined(0), domain.Defined(0), domain.SlotZeroDenominator, 0},
		{"overflow", domain.Defined(1e-308), domain.Defined(1e308), domain.SlotMissingInput, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := growthSlot(tt.prev, tt.cur)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantStatus == domain.SlotDefined {
				assert.InDelta(t, tt.wantValue, got.Value, 1e-9)
			}
		})
	}
}

func TestCalculateGrowth_ScenarioA(t *testing.T) {
	growth := CalculateGrowth([]domain.FinancialRecord{
		recordWith("A", domain.KnownSector("Tech"), values(100.0, 110.0, nil, 121.0, 133.1)),
	})
	require.Len(t, growth, 1)

	g := growth[0].Metrics[domain.MetricRevenue]
	assert.InDelta(t, 10, g.Slots[0].Value, 1e-9)
	assert.Equal(t, domain.SlotMissingInput, g.Slots[1].Status)
	assert.Equal(t, domain.SlotMissingInput, g.Slots[2].Status)
	assert.InDelta(t, 10, g.Slots[3].Value, 1e-9)

	require.True(t, g.Average.Valid)
	assert.InDelta(t, 10, g.Average.Float, 1e-9)
}

func TestCalculateGrowth_ScenarioB(t *testing.T) {
	growth := CalculateGrowth([]domain.FinancialRecord{
		recordWith("B", domain.KnownSector("Tech"), values(0.0, 50.0, 55.0, 60.0, 66.0)),
	})

	g := growth[0].Metrics[domain.MetricRevenue]
	assert.Equal(t, domain.SlotZeroDenominator, g.Slots[0].Status)
	assert.InDelta(t, 10, g.Slots[1].Value, 1e-9)
	assert.InDelta(t, 9.0909, g.Slots[2].Value, 1e-4)
	assert.InDelta(t, 10, g.Slots[3].Value, 1e-9)

	require.True(t, g.Average.Valid)
	assert.InDelta(t, 9.697, g.Average.Float, 1e-3)
}

func TestCalculateGrowth_NeverProducesNonFinite(t *testing.T) {
	growth := CalculateGrowth([]domain.FinancialRecord{
		recordWith("Z", domain.Sector{}, values(0.0, 0.0, 0.0, 0.0, 0.0)),
		recordWith("E", domain.Sector{}, values()),
	})

	for _, g := range growth {
		for _, m := range domain.AllMetrics() {
			mg := g.Metrics[m]
			assert.False(t, mg.Average.Valid)
			for _, s := range mg.Slots {
				assert.False(t, math.IsNaN(s.Value) || math.IsInf(s.Value, 0))
			}
		}
	}
}

func TestCalculateGrowth_MetricsIsolated(t *testing.T) {
	rec := recordWith("A", domain.KnownSector("Tech"), values(100.0, 110.0, 121.0, 133.1, 146.41))
	rec.Snapshots[domain.MetricNetIncome] = values(0.0, 0.0, nil, nil, nil)

	g := CalculateGrowth([]domain.FinancialRecord{rec})[0]

	assert.True(t, g.AverageGrowth(domain.MetricRevenue).Valid)
	assert.False(t, g.AverageGrowth(domain.MetricNetIncome).Valid)
	assert.False(t, g.AverageGrowth(domain.MetricEBITDA).Valid, "absent metric has no growth")
}

func TestCalculateGrowth_PreservesOrderAndInput(t *testing.T) {
	records := []domain.FinancialRecord{
		recordWith("C", domain.KnownSector("X"), values(1.0, 2.0)),
		recordWith("A", domain.Sector{}, values(2.0, 1.0)),
		recordWith("B", domain.KnownSector("Y"), values()),
	}
	before := records[0].Snapshots[domain.MetricRevenue]

	growth := CalculateGrowth(records)

	require.Len(t, growth, 3)
	assert.Equal(t, "C", growth[0].Ticker)
	assert.Equal(t, "A", growth[1].Ticker)
	assert.Equal(t, "B", growth[2].Ticker)
	assert.Equal(t, domain.KnownSector("X"), growth[0].Sector)
	assert.Equal(t, before, records[0].Snapshots[domain.MetricRevenue])
}
