package validation

import (
	"net/url"
	"strings"

	"growthdash/pkg/contracts/domain"
)

// Query parameter names of the dashboard filter
const (
	ParamMetric = "metric"
	ParamSector = "sector"
	// ParamSectorFilter is sent by the filter form so that unticking every
	// sector is told apart from not filtering by sector at all
	ParamSectorFilter = "sector_filter"
)

// SelectionQuery is the raw metric and sector filter of a request
type SelectionQuery struct {
	Metrics []string `json:"metric" validate:"max=3,dive,metric"`
	Sectors []string `json:"sector" validate:"max=500,dive,max=200"`
}

// SelectionQueryFromValues reads repeated metric= and sector= parameters.
// Empty values are ignored so a blank form field means "no choice".
func SelectionQueryFromValues(q url.Values) SelectionQuery {
	return SelectionQuery{
		Metrics: nonEmpty(q[ParamMetric]),
		Sectors: nonEmpty(q[ParamSector]),
	}
}

// ParseSelection validates the filter parameters of a request and converts
// them to a selection. Unknown metric identifiers are a validation error;
// sector keys are resolved later against the dataset. Any sector parameter or
// the sector_filter marker makes the sector list an explicit filter.
func (v *Validator) ParseSelection(q url.Values) (domain.Selection, error) {
	query := SelectionQueryFromValues(q)
	if err := v.ValidateStruct(query); err != nil {
		return domain.Selection{}, err
	}

	sel := domain.Selection{
		Sectors:      query.Sectors,
		SectorFilter: len(query.Sectors) > 0 || q.Get(ParamSectorFilter) != "",
	}
	for _, id := range query.Metrics {
		m, err := domain.ParseMetric(id)
		if err != nil {
			return domain.Selection{}, err
		}
		sel.Metrics = append(sel.Metrics, m)
	}
	return sel, nil
}

// SelectionValues encodes a selection as filter query parameters
func SelectionValues(sel domain.Selection) url.Values {
	q := url.Values{}
	for _, m := range sel.Metrics {
		q.Add(ParamMetric, m.ID())
	}
	for _, s := range sel.Sectors {
		q.Add(ParamSector, s)
	}
	if sel.SectorFilter {
		q.Set(ParamSectorFilter, "1")
	}
	return q
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
