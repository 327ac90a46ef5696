package dataprocessing

import "growthdash/pkg/contracts/domain"

// DefaultSelection selects Total Revenue and every sector present
func DefaultSelection(sectors []domain.SectorGrowthRecord) domain.Selection {
	keys := make([]string, 0, len(sectors))
	for _, s := range sectors {
		keys = append(keys, s.Sector.Key())
	}
	return domain.Selection{
		Metrics: []domain.Metric{domain.MetricRevenue},
		Sectors: keys,
	}
}

// ApplyFilter projects the growth and sector tables onto a selection. An empty
// metric list selects Total Revenue. Without a sector filter every sector is
// selected; with one, only the listed sectors are, so a filter naming no
// present sector yields empty tables. Sector keys that are not present are
// dropped from the selection. The returned selection is always an explicit
// sector filter. Neither input slice is modified.
func ApplyFilter(growth []domain.GrowthRecord, sectors []domain.SectorGrowthRecord, sel domain.Selection) domain.DashboardView {
	defaults := DefaultSelection(sectors)

	metrics := dedupeMetrics(sel.Metrics)
	if len(metrics) == 0 {
		metrics = defaults.Metrics
	}

	requested := sel.Sectors
	if len(requested) == 0 && !sel.SectorFilter {
		requested = defaults.Sectors
	}
	wanted := make(map[string]bool, len(requested))
	for _, key := range requested {
		wanted[key] = true
	}

	view := domain.DashboardView{
		Companies: make([]domain.GrowthRecord, 0, len(growth)),
		Sectors:   make([]domain.SectorGrowthRecord, 0, len(sectors)),
		Options:   make([]domain.SectorOption, 0, len(sectors)),
	}

	selectedKeys := make([]string, 0, len(sectors))
	for _, s := range sectors {
		key := s.Sector.Key()
		selected := wanted[key]
		view.Options = append(view.Options, domain.SectorOption{
			Key:      key,
			Label:    s.Sector.Label(),
			Selected: selected,
		})
		if selected {
			view.Sectors = append(view.Sectors, s)
			selectedKeys = append(selectedKeys, key)
		}
	}

	for _, g := range growth {
		if wanted[g.Sector.Key()] {
			view.Companies = append(view.Companies, g)
		}
	}

	view.Selection = domain.Selection{Metrics: metrics, Sectors: selectedKeys, SectorFilter: true}
	return view
}

func dedupeMetrics(metrics []domain.Metric) []domain.Metric {
	seen := make(map[domain.Metric]bool, len(metrics))
	out := make([]domain.Metric, 0, len(metrics))
	for _, m := range metrics {
		if !m.Valid() || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
