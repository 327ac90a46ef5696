package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Metric identifies one of the tracked financial metrics
type Metric int

const (
	MetricRevenue Metric = iota
	MetricNetIncome
	MetricEBITDA
)

// SnapshotCount is the number of quarterly snapshots per metric (LTM-16 .. LTM)
const SnapshotCount = 5

// SlotCount is the number of period-over-period changes per metric
const SlotCount = SnapshotCount - 1

// Required identifying columns of the financial sheet
const (
	ColumnTicker      = "Exchange:Ticker"
	ColumnCompanyName = "Company Name"
)

// snapshotOffsets are the LTM offsets of each snapshot, oldest first
var snapshotOffsets = [SnapshotCount]string{"LTM - 16", "LTM - 12", "LTM - 8", "LTM - 4", "LTM"}

// metricDefinition is the static description of a metric
type metricDefinition struct {
	id      string
	name    string
	columns [SnapshotCount]string
}

var metricDefinitions = map[Metric]metricDefinition{
	MetricRevenue:   newMetricDefinition("Total_Revenue", "Total Revenue"),
	MetricNetIncome: newMetricDefinition("Net_Income", "Net Income"),
	MetricEBITDA:    newMetricDefinition("EBITDA", "EBITDA"),
}

func newMetricDefinition(id, name string) metricDefinition {
	def := metricDefinition{id: id, name: name}
	for i, offset := range snapshotOffsets {
		def.columns[i] = fmt.Sprintf("%s [%s]", name, offset)
	}
	return def
}

// AllMetrics returns the tracked metrics in display order
func AllMetrics() []Metric {
	return []Metric{MetricRevenue, MetricNetIncome, MetricEBITDA}
}

// ID returns the stable identifier used in URLs and JSON (e.g. Total_Revenue)
func (m Metric) ID() string {
	return metricDefinitions[m].id
}

// Name returns the display name (e.g. Total Revenue)
func (m Metric) Name() string {
	return metricDefinitions[m].name
}

// Columns returns the five snapshot column headers, oldest first
func (m Metric) Columns() [SnapshotCount]string {
	return metricDefinitions[m].columns
}

// Valid reports whether m is one of the tracked metrics
func (m Metric) Valid() bool {
	_, ok := metricDefinitions[m]
	return ok
}

func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return m.ID()
}

// MarshalText encodes the metric as its ID
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown metric %d", int(m))
	}
	return []byte(m.ID()), nil
}

// UnmarshalText decodes a metric from its ID
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMetric resolves a metric from its ID or display name
func ParseMetric(s string) (Metric, error) {
	s = strings.TrimSpace(s)
	for _, m := range AllMetrics() {
		if strings.EqualFold(s, m.ID()) || strings.EqualFold(s, m.Name()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// MetricIDs returns the IDs of all tracked metrics
func MetricIDs() []string {
	ids := make([]string, 0, len(metricDefinitions))
	for _, m := range AllMetrics() {
		ids = append(ids, m.ID())
	}
	return ids
}

// Value is a number that may be undefined. NaN and infinities are never valid.
type Value struct {
	Float float64
	Valid bool
}

// Defined returns a valid Value, or an undefined one if f is not finite
func Defined(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// Undefined returns the undefined Value
func Undefined() Value {
	return Value{}
}

// MarshalJSON encodes undefined values as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON decodes null as undefined
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// UnassignedSectorKey is the filter key of the group of companies without a sector
const UnassignedSectorKey = "__unassigned__"

// UnassignedSectorLabel is the display label of the group of companies without a sector
const UnassignedSectorLabel = "Unassigned"

// Sector is a sector label that may be missing
type Sector struct {
	Name  string
	Known bool
}

// KnownSector returns a defined sector label
func KnownSector(name string) Sector {
	return Sector{Name: name, Known: true}
}

// reservedKeyPrefix starts every key that is not a plain sector name
const reservedKeyPrefix = "__"

// Key returns the grouping/filter key; the missing sector has its own key.
// Names beginning with the reserved prefix get it doubled, so a sector called
// "__unassigned__" keys as "____unassigned__".
func (s Sector) Key() string {
	if !s.Known {
		return UnassignedSectorKey
	}
	if strings.HasPrefix(s.Name, reservedKeyPrefix) {
		return reservedKeyPrefix + s.Name
	}
	return s.Name
}

// Label returns the display label
func (s Sector) Label() string {
	if !s.Known {
		return UnassignedSectorLabel
	}
	return s.Name
}

// MarshalJSON encodes a missing sector as null
func (s Sector) MarshalJSON() ([]byte, error) {
	if !s.Known {
		return []byte("null"), nil
	}
	return json.Marshal(s.Name)
}

// UnmarshalJSON decodes null as a missing sector
func (s *Sector) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Sector{}
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = KnownSector(name)
	return nil
}

// FinancialRecord is one company row of the financial sheet joined with its sector
type FinancialRecord struct {
	Row         int                            `json:"row"`
	Ticker      string                         `json:"ticker"`
	CompanyName string                         `json:"company_name"`
	Sector      Sector                         `json:"sector"`
	Snapshots   map[Metric][SnapshotCount]Value `json:"snapshots"`
}

// Snapshot returns the snapshots of a metric, all undefined if absent
func (r FinancialRecord) Snapshot(m Metric) [SnapshotCount]Value {
	return r.Snapshots[m]
}

// LoadWarning describes a non-fatal problem found while loading a workbook
type LoadWarning struct {
	Sheet   string `json:"sheet"`
	Column  string `json:"column,omitempty"`
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

// Dataset is a loaded and joined workbook
type Dataset struct {
	ID        string            `json:"id"`
	FileName  string            `json:"file_name"`
	Records   []FinancialRecord `json:"records"`
	Warnings  []LoadWarning     `json:"warnings,omitempty"`
	LoadedAt  time.Time         `json:"loaded_at"`
	SizeBytes int64             `json:"size_bytes"`
}

// Sectors returns the distinct sectors in first-seen order
func (d *Dataset) Sectors() []Sector {
	seen := make(map[string]bool)
	var sectors []Sector
	for _, rec := range d.Records {
		key := rec.Sector.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		sectors = append(sectors, rec.Sector)
	}
	return sectors
}
