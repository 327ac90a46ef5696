package dataprocessing

import (
	"sort"

	"growthdash/pkg/contracts/domain"
)

type sectorGroup struct {
	sector    domain.Sector
	companies int
	averages  map[domain.Metric][]float64
}

// AggregateSectors groups growth records by sector and takes, per metric, the
// median of the companies' defined average growth. Companies without a sector
// form their own group. Groups are ordered by sector name with the unassigned
// group last.
func AggregateSectors(growth []domain.GrowthRecord) []domain.SectorGrowthRecord {
	groups := make(map[string]*sectorGroup)
	for _, g := range growth {
		key := g.Sector.Key()
		grp, ok := groups[key]
		if !ok {
			grp = &sectorGroup{sector: g.Sector, averages: make(map[domain.Metric][]float64)}
			groups[key] = grp
		}
		grp.companies++
		for _, m := range domain.AllMetrics() {
			if avg := g.AverageGrowth(m); avg.Valid {
				grp.averages[m] = append(grp.averages[m], avg.Float)
			}
		}
	}

	out := make([]domain.SectorGrowthRecord, 0, len(groups))
	for _, grp := range groups {
		rec := domain.SectorGrowthRecord{
			Sector:    grp.sector,
			Companies: grp.companies,
			Median:    make(map[domain.Metric]domain.Value, len(domain.AllMetrics())),
		}
		for _, m := range domain.AllMetrics() {
			rec.Median[m] = median(grp.averages[m])
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		return sectorLess(out[i].Sector, out[j].Sector)
	})
	return out
}

// sectorLess orders known sectors by name, then the unassigned sector
func sectorLess(a, b domain.Sector) bool {
	if a.Known != b.Known {
		return a.Known
	}
	return a.Name < b.Name
}
