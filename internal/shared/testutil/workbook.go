package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"growthdash/pkg/contracts/domain"
)

// SectorSheet is the name given to the lookup sheet of generated workbooks
const SectorSheet = "Sectors"

// FinancialHeader returns the identifying columns followed by all fifteen
// snapshot columns
func FinancialHeader() []interface{} {
	header := []interface{}{domain.ColumnTicker, domain.ColumnCompanyName}
	for _, m := range domain.AllMetrics() {
		for _, col := range m.Columns() {
			header = append(header, col)
		}
	}
	return header
}

// CompanyRow lays out a financial row matching FinancialHeader. Missing
// snapshots are left blank.
func CompanyRow(ticker, name string, revenue, netIncome, ebitda []interface{}) []interface{} {
	row := []interface{}{ticker, name}
	for _, vals := range [][]interface{}{revenue, netIncome, ebitda} {
		for k := 0; k < domain.SnapshotCount; k++ {
			if k < len(vals) {
				row = append(row, vals[k])
			} else {
				row = append(row, nil)
			}
		}
	}
	return row
}

// BuildWorkbook writes an in-memory workbook with a financial sheet and, when
// lookup is not nil, a headerless sector sheet
func BuildWorkbook(t *testing.T, financial [][]interface{}, lookup [][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	writeRows(t, f, f.GetSheetName(0), financial)

	if lookup != nil {
		_, err := f.NewSheet(SectorSheet)
		require.NoError(t, err)
		writeRows(t, f, SectorSheet, lookup)
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
}

// SampleWorkbook covers a defined sector, a duplicate lookup entry, an empty
// sector cell and an unmatched ticker:
//
//	NSE:AAA  Tech     revenue 100, 110, -, 121, 133.1   (avg 10)
//	NSE:BBB  Finance  revenue 0, 50, 55, 60, 66          (avg ~9.70)
//	NSE:CCC  Tech     revenue "1,000" .. "1,728", n/a    (avg 20)
//	NSE:XYZ  -        no lookup row, revenue 50, 55      (avg 10)
//	NSE:DDD  -        empty sector cell, flat revenue     (avg 0)
func SampleWorkbook(t *testing.T) *bytes.Buffer {
	return BuildWorkbook(t,
		[][]interface{}{
			FinancialHeader(),
			CompanyRow("NSE:AAA", "Alpha", []interface{}{100, 110, nil, 121, 133.1}, []interface{}{10, 11, 12.1, 13.31, 14.641}, nil),
			CompanyRow("NSE:BBB", "Beta", []interface{}{0, 50, 55, 60, 66}, nil, []interface{}{5, 5, 5, 5, 5}),
			CompanyRow("NSE:CCC", "Gamma", []interface{}{"1,000", "1,200", "n/a", "1,440", "1,728"}, nil, nil),
			CompanyRow("NSE:XYZ", "Xyz Ltd", []interface{}{50, 55}, nil, nil),
			CompanyRow("NSE:DDD", "Delta", []interface{}{10, 10, 10, 10, 10}, nil, nil),
		},
		[][]interface{}{
			{"NSE:AAA", "Tech"},
			{"NSE:BBB", "Finance"},
			{"NSE:CCC", "Tech"},
			{"NSE:AAA", "Energy"},
			{"NSE:DDD", ""},
		},
	)
}
