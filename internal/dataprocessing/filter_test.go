package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthdash/pkg/contracts/domain"
)

func filterFixture(t *testing.T) ([]domain.GrowthRecord, []domain.SectorGrowthRecord) {
	t.Helper()
	ds, err := quietLoader().Load(sampleWorkbook(t))
	require.NoError(t, err)
	growth := CalculateGrowth(ds.Records)
	return growth, AggregateSectors(growth)
}

func TestApplyFilter_Defaults(t *testing.T) {
	growth, sectors := filterFixture(t)

	view := ApplyFilter(growth, sectors, domain.Selection{})

	assert.Equal(t, []domain.Metric{domain.MetricRevenue}, view.Selection.Metrics)
	assert.Equal(t, []string{"Finance", "Tech", domain.UnassignedSectorKey}, view.Selection.Sectors)
	assert.Len(t, view.Companies, len(growth))
	assert.Len(t, view.Sectors, len(sectors))
	for _, opt := range view.Options {
		assert.True(t, opt.Selected)
	}
}

func TestApplyFilter_BySector(t *testing.T) {
	growth, sectors := filterFixture(t)

	view := ApplyFilter(growth, sectors, domain.Selection{
		Metrics: []domain.Metric{domain.MetricEBITDA, domain.MetricNetIncome, domain.MetricEBITDA},
		Sectors: []string{"Tech", "Unknown"},
	})

	assert.Equal(t, []domain.Metric{domain.MetricEBITDA, domain.MetricNetIncome}, view.Selection.Metrics)
	assert.Equal(t, []string{"Tech"}, view.Selection.Sectors)

	require.Len(t, view.Companies, 2)
	assert.Equal(t, "NSE:AAA", view.Companies[0].Ticker)
	assert.Equal(t, "NSE:CCC", view.Companies[1].Ticker)

	require.Len(t, view.Sectors, 1)
	assert.Equal(t, "Tech", view.Sectors[0].Sector.Name)

	require.Len(t, view.Options, 3)
	assert.Equal(t, domain.UnassignedSectorLabel, view.Options[2].Label)
	assert.False(t, view.Options[2].Selected)
}

func TestApplyFilter_SectorFilterMatchingNothing(t *testing.T) {
	growth, sectors := filterFixture(t)

	tests := []struct {
		name string
		sel  domain.Selection
	}{
		{"unknown sector", domain.Selection{Sectors: []string{"Retail"}, SectorFilter: true}},
		{"unknown sector without marker", domain.Selection{Sectors: []string{"Retail"}}},
		{"nothing ticked", domain.Selection{SectorFilter: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := ApplyFilter(growth, sectors, tt.sel)

			assert.Empty(t, view.Companies)
			assert.Empty(t, view.Sectors)
			assert.Empty(t, view.Selection.Sectors)
			assert.True(t, view.Selection.SectorFilter)
			require.Len(t, view.Options, 3)
			for _, opt := range view.Options {
				assert.False(t, opt.Selected)
			}

			// the resolved selection must reproduce the same view
			again := ApplyFilter(growth, sectors, view.Selection)
			assert.Equal(t, view, again)
		})
	}
}

func TestApplyFilter_ResolvedSelectionIsStable(t *testing.T) {
	growth, sectors := filterFixture(t)

	view := ApplyFilter(growth, sectors, domain.Selection{})
	assert.True(t, view.Selection.SectorFilter)

	again := ApplyFilter(growth, sectors, view.Selection)
	assert.Equal(t, view, again)
}

func TestApplyFilter_UnassignedGroup(t *testing.T) {
	growth, sectors := filterFixture(t)

	view := ApplyFilter(growth, sectors, domain.Selection{Sectors: []string{domain.UnassignedSectorKey}})

	tickers := make([]string, 0, len(view.Companies))
	for _, c := range view.Companies {
		tickers = append(tickers, c.Ticker)
	}
	assert.Equal(t, []string{"NSE:XYZ", "NSE:DDD"}, tickers)
}

func TestApplyFilter_DoesNotAlterValues(t *testing.T) {
	growth, sectors := filterFixture(t)
	growthBefore := CalculateGrowth(mustRecords(t))
	sectorsBefore := AggregateSectors(growthBefore)

	view := ApplyFilter(growth, sectors, domain.Selection{Sectors: []string{"Finance"}})

	assert.Equal(t, growthBefore, growth)
	assert.Equal(t, sectorsBefore, sectors)

	require.Len(t, view.Companies, 1)
	for _, g := range growth {
		if g.Ticker == view.Companies[0].Ticker {
			assert.Equal(t, g, view.Companies[0])
		}
	}
	assert.Equal(t, sectors[0], view.Sectors[0])
}

func mustRecords(t *testing.T) []domain.FinancialRecord {
	t.Helper()
	ds, err := quietLoader().Load(sampleWorkbook(t))
	require.NoError(t, err)
	return ds.Records
}
