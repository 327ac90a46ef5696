package domain

import "encoding/json"

// SlotStatus is the outcome of one period-over-period growth computation
type SlotStatus int

const (
	// SlotDefined means the growth rate was computed
	SlotDefined SlotStatus = iota
	// SlotMissingInput means an endpoint value was missing or not a number
	SlotMissingInput
	// SlotZeroDenominator means the prior-period value was exactly zero
	SlotZeroDenominator
)

func (s SlotStatus) String() string {
	switch s {
	case SlotDefined:
		return "defined"
	case SlotMissingInput:
		return "missing_input"
	case SlotZeroDenominator:
		return "zero_denominator"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its string form
func (s SlotStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GrowthSlot is one period-over-period percentage change
type GrowthSlot struct {
	Status SlotStatus
	Value  float64
}

// DefinedSlot returns a computed slot
func DefinedSlot(pct float64) GrowthSlot {
	return GrowthSlot{Status: SlotDefined, Value: pct}
}

// Defined reports whether the slot holds a growth rate
func (s GrowthSlot) Defined() bool {
	return s.Status == SlotDefined
}

// AsValue converts the slot to an optional value
func (s GrowthSlot) AsValue() Value {
	if !s.Defined() {
		return Undefined()
	}
	return Defined(s.Value)
}

// MarshalJSON encodes the slot as {"status": ..., "value": number|null}
func (s GrowthSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status SlotStatus `json:"status"`
		Value  Value      `json:"value"`
	}{Status: s.Status, Value: s.AsValue()})
}

// MetricGrowth holds the four growth slots of a metric and their average
type MetricGrowth struct {
	Slots   [SlotCount]GrowthSlot `json:"slots"`
	Average Value                 `json:"average"`
}

// GrowthRecord is the derived growth of one company
type GrowthRecord struct {
	Ticker      string                  `json:"ticker"`
	CompanyName string                  `json:"company_name"`
	Sector      Sector                  `json:"sector"`
	Metrics     map[Metric]MetricGrowth `json:"metrics"`
}

// AverageGrowth returns the average growth of a metric
func (g GrowthRecord) AverageGrowth(m Metric) Value {
	return g.Metrics[m].Average
}

// SectorGrowthRecord is the median average growth of the companies in a sector
type SectorGrowthRecord struct {
	Sector    Sector           `json:"sector"`
	Companies int              `json:"companies"`
	Median    map[Metric]Value `json:"median"`
}

// MedianGrowth returns the sector median of a metric
func (s SectorGrowthRecord) MedianGrowth(m Metric) Value {
	return s.Median[m]
}

// Selection is the user's choice of metrics and sectors
type Selection struct {
	Metrics []Metric `json:"metrics"`
	Sectors []string `json:"sectors"`
	// SectorFilter marks Sectors as an explicit choice: an empty list then
	// selects no sector instead of every sector
	SectorFilter bool `json:"sector_filter"`
}

// SectorOption is a sector that can be selected in the dashboard
type SectorOption struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// DashboardView is the filtered projection rendered for one request
type DashboardView struct {
	Selection Selection            `json:"selection"`
	Companies []GrowthRecord       `json:"companies"`
	Sectors   []SectorGrowthRecord `json:"sectors"`
	Options   []SectorOption       `json:"sector_options"`
}
