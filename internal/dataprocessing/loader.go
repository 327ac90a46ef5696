package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "growthdash/internal/errors"
	"growthdash/pkg/contracts/domain"
)

const (
	financialSheetIndex = 0
	sectorSheetIndex    = 1
)

// Loader reads company financials and the sector lookup from an .xlsx workbook
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader that reports non-fatal problems to logger
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// LoadWorkbook parses a workbook with the default logger
func LoadWorkbook(r io.Reader) (*domain.Dataset, error) {
	return NewLoader(nil).Load(r)
}

// Load parses the financial sheet (first sheet, header row first) and left
// joins it with the sector sheet (second sheet, no header, ticker in column A
// and sector in column B). Every financial row is kept exactly once.
func (l *Loader) Load(r io.Reader) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("file is not a readable .xlsx workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) < 2 {
		return nil, apierrors.NewAppValidationError("workbook must contain a financial sheet and a sector sheet").
			WithContext("sheets", len(sheets))
	}

	finSheet := sheets[financialSheetIndex]
	finRows, err := f.GetRows(finSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("could not read sheet %q", finSheet), err)
	}
	if len(finRows) == 0 {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("financial sheet %q is empty", finSheet)).
			WithContext("sheet", finSheet)
	}

	layout, warnings, err := resolveColumns(finSheet, finRows[0])
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		l.logger.Warn("snapshot column missing", slog.String("sheet", w.Sheet), slog.String("column", w.Column))
	}

	sectorSheet := sheets[sectorSheetIndex]
	lookupRows, err := f.GetRows(sectorSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("could not read sheet %q", sectorSheet), err)
	}
	sectors, dupWarnings := l.buildSectorLookup(sectorSheet, lookupRows)
	warnings = append(warnings, dupWarnings...)

	records := make([]domain.FinancialRecord, 0, len(finRows)-1)
	unmatched := 0
	for i, row := range finRows[1:] {
		if isBlankRow(row) {
			continue
		}

		ticker := rawCellAt(row, layout.ticker)
		rec := domain.FinancialRecord{
			Row:         i + 2,
			Ticker:      ticker,
			CompanyName: cellAt(row, layout.companyName),
			Sector:      sectors[ticker],
			Snapshots:   make(map[domain.Metric][domain.SnapshotCount]domain.Value, len(layout.metrics)),
		}
		if !rec.Sector.Known {
			unmatched++
		}

		for m, cols := range layout.metrics {
			var snaps [domain.SnapshotCount]domain.Value
			for k, col := range cols {
				if col >= 0 {
					snaps[k] = parseNumber(cellAt(row, col))
				}
			}
			rec.Snapshots[m] = snaps
		}

		records = append(records, rec)
	}

	l.logger.Debug("workbook loaded",
		slog.String("financial_sheet", finSheet),
		slog.String("sector_sheet", sectorSheet),
		slog.Int("records", len(records)),
		slog.Int("sectors", len(sectors)),
		slog.Int("unmatched_tickers", unmatched),
		slog.Int("warnings", len(warnings)))

	return &domain.Dataset{Records: records, Warnings: warnings}, nil
}

// columnLayout holds the resolved column indices of the financial sheet.
// A snapshot index of -1 means the column is absent.
type columnLayout struct {
	ticker      int
	companyName int
	metrics     map[domain.Metric][domain.SnapshotCount]int
}

func resolveColumns(sheet string, header []string) (columnLayout, []domain.LoadWarning, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup && h != "" {
			index[h] = i
		}
	}

	layout := columnLayout{metrics: make(map[domain.Metric][domain.SnapshotCount]int)}
	var ok bool
	for _, required := range []struct {
		name string
		dst  *int
	}{
		{domain.ColumnTicker, &layout.ticker},
		{domain.ColumnCompanyName, &layout.companyName},
	} {
		if *required.dst, ok = index[required.name]; !ok {
			return columnLayout{}, nil, apierrors.NewAppValidationError(
				fmt.Sprintf("financial sheet %q has no %q column", sheet, required.name)).
				WithContext("sheet", sheet).
				WithContext("column", required.name)
		}
	}

	var warnings []domain.LoadWarning
	for _, m := range domain.AllMetrics() {
		var cols [domain.SnapshotCount]int
		for k, name := range m.Columns() {
			col, found := index[name]
			if !found {
				col = -1
				warnings = append(warnings, domain.LoadWarning{
					Sheet:   sheet,
					Column:  name,
					Message: fmt.Sprintf("column %q is missing, its values are treated as undefined", name),
				})
			}
			cols[k] = col
		}
		layout.metrics[m] = cols
	}

	return layout, warnings, nil
}

// buildSectorLookup maps ticker to sector. The first row for a ticker wins.
func (l *Loader) buildSectorLookup(sheet string, rows [][]string) (map[string]domain.Sector, []domain.LoadWarning) {
	lookup := make(map[string]domain.Sector, len(rows))
	var warnings []domain.LoadWarning

	for i, row := range rows {
		ticker := rawCellAt(row, 0)
		if strings.TrimSpace(ticker) == "" {
			continue
		}
		if _, seen := lookup[ticker]; seen {
			l.logger.Warn("duplicate ticker in sector sheet, keeping first",
				slog.String("ticker", ticker),
				slog.Int("row", i+1))
			warnings = append(warnings, domain.LoadWarning{
				Sheet:   sheet,
				Row:     i + 1,
				Message: fmt.Sprintf("ticker %q appears more than once, the first sector is used", ticker),
			})
			continue
		}

		var sector domain.Sector
		if name := cellAt(row, 1); name != "" {
			sector = domain.KnownSector(name)
		}
		lookup[ticker] = sector
	}

	return lookup, warnings
}

// cellAt returns the trimmed cell at col, or "" past the end of a short row
func cellAt(row []string, col int) string {
	return strings.TrimSpace(rawCellAt(row, col))
}

// rawCellAt returns the cell at col unchanged. Tickers are join keys and
// match only on exact equality.
func rawCellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNumber converts a raw cell to a Value. Empty, non-numeric and
// non-finite cells are undefined; thousands separators are ignored.
func parseNumber(raw string) domain.Value {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return domain.Undefined()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Undefined()
	}
	return domain.Defined(f)
}
