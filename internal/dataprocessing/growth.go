package dataprocessing

import (
	"math"

	"growthdash/pkg/contracts/domain"
)

// CalculateGrowth derives, for every record and metric, the four
// period-over-period growth percentages and their average. Output order
// matches input order and the input is not modified.
func CalculateGrowth(records []domain.FinancialRecord) []domain.GrowthRecord {
	out := make([]domain.GrowthRecord, 0, len(records))
	for _, rec := range records {
		g := domain.GrowthRecord{
			Ticker:      rec.Ticker,
			CompanyName: rec.CompanyName,
			Sector:      rec.Sector,
			Metrics:     make(map[domain.Metric]domain.MetricGrowth, len(domain.AllMetrics())),
		}
		for _, m := range domain.AllMetrics() {
			g.Metrics[m] = metricGrowth(rec.Snapshot(m))
		}
		out = append(out, g)
	}
	return out
}

func metricGrowth(snaps [domain.SnapshotCount]domain.Value) domain.MetricGrowth {
	var g domain.MetricGrowth
	defined := make([]float64, 0, domain.SlotCount)

	for i := 1; i < domain.SnapshotCount; i++ {
		slot := growthSlot(snaps[i-1], snaps[i])
		g.Slots[i-1] = slot
		if slot.Defined() {
			defined = append(defined, slot.Value)
		}
	}

	g.Average = mean(defined)
	return g
}

// growthSlot computes (cur - prev) / prev * 100
func growthSlot(prev, cur domain.Value) domain.GrowthSlot {
	if !prev.Valid || !cur.Valid {
		return domain.GrowthSlot{Status: domain.SlotMissingInput}
	}
	if prev.Float == 0 {
		return domain.GrowthSlot{Status: domain.SlotZeroDenominator}
	}

	pct := (cur.Float - prev.Float) / prev.Float * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return domain.GrowthSlot{Status: domain.SlotMissingInput}
	}
	return domain.DefinedSlot(pct)
}
