package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"growthdash/internal/config"
	"growthdash/pkg/contracts/domain"
)

// View selects which table a chart is drawn from
type View string

const (
	// ViewCompany plots each company's average growth, colored by sector
	ViewCompany View = "company"
	// ViewSector plots each sector's median growth
	ViewSector View = "sector"
)

// ParseView resolves a chart view from its URL form
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewCompany:
		return ViewCompany, nil
	case ViewSector:
		return ViewSector, nil
	default:
		return "", fmt.Errorf("unknown chart view %q", s)
	}
}

const (
	minBarWidth = vg.Length(2)
	maxBarWidth = vg.Length(28)
)

var sectorBarColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// Renderer draws dashboard bar charts as SVG
type Renderer struct {
	width  vg.Length
	height vg.Length
	logger *slog.Logger
}

// NewRenderer creates a renderer sized from the chart configuration
func NewRenderer(cfg config.ChartsConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 10
	}
	if height <= 0 {
		height = 5
	}
	return &Renderer{
		width:  vg.Length(width) * vg.Inch,
		height: vg.Length(height) * vg.Inch,
		logger: logger.With(slog.String("component", "charts")),
	}
}

// Render draws the chart of one metric for the given view and encodes it as SVG
func (r *Renderer) Render(view View, dv domain.DashboardView, m domain.Metric) ([]byte, error) {
	var (
		p   *plot.Plot
		err error
	)
	switch view {
	case ViewCompany:
		p, err = r.CompanyChart(dv, m)
	case ViewSector:
		p, err = r.SectorChart(dv, m)
	default:
		return nil, fmt.Errorf("unknown chart view %q", view)
	}
	if err != nil {
		return nil, err
	}
	return r.SVG(p)
}

// CompanyChart plots the average growth of every company in the view. Each
// sector is its own bar series so the legend maps colors to sectors. Companies
// without a defined average have no bar.
func (r *Renderer) CompanyChart(dv domain.DashboardView, m domain.Metric) (*plot.Plot, error) {
	p := r.newPlot(fmt.Sprintf("Average %s Growth by Company", m.Name()), "Company")

	n := len(dv.Companies)
	if n == 0 {
		return p, nil
	}

	tickers, order, series := companySeries(dv.Companies, m)

	palette := colorIndex(dv.Options)
	width := r.barWidth(n)
	for _, sector := range order {
		bars, err := plotter.NewBarChart(series[sector.Key()], width)
		if err != nil {
			return nil, fmt.Errorf("company chart for %s: %w", sector.Label(), err)
		}
		bars.Color = plotutil.Color(palette[sector.Key()])
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		p.Legend.Add(sector.Label(), bars)
	}

	p.NominalX(tickers...)
	if n > 12 {
		p.X.Tick.Label.Rotation = math.Pi / 3
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Legend.Top = true

	r.logger.Debug("company chart built",
		slog.String("metric", m.ID()),
		slog.Int("companies", n),
		slog.Int("sectors", len(order)))
	return p, nil
}

// companySeries splits the company averages into one value series per sector,
// indexed by company position. Sectors are returned in first-seen order.
func companySeries(companies []domain.GrowthRecord, m domain.Metric) ([]string, []domain.Sector, map[string]plotter.Values) {
	n := len(companies)
	tickers := make([]string, n)
	series := make(map[string]plotter.Values)
	var order []domain.Sector
	for i, c := range companies {
		tickers[i] = c.Ticker
		key := c.Sector.Key()
		vals, ok := series[key]
		if !ok {
			vals = make(plotter.Values, n)
			series[key] = vals
			order = append(order, c.Sector)
		}
		if avg := c.AverageGrowth(m); avg.Valid {
			vals[i] = avg.Float
		}
	}
	return tickers, order, series
}

// SectorChart plots the median growth of every sector in the view
func (r *Renderer) SectorChart(dv domain.DashboardView, m domain.Metric) (*plot.Plot, error) {
	p := r.newPlot(fmt.Sprintf("Median %s Growth by Sector", m.Name()), "Sector")

	n := len(dv.Sectors)
	if n == 0 {
		return p, nil
	}

	values := make(plotter.Values, n)
	names := make([]string, n)
	var (
		xys    []plotter.XY
		labels []string
	)
	for i, s := range dv.Sectors {
		names[i] = s.Sector.Label()
		med := s.MedianGrowth(m)
		if !med.Valid {
			continue
		}
		values[i] = med.Float
		xys = append(xys, plotter.XY{X: float64(i), Y: med.Float})
		labels = append(labels, fmt.Sprintf("%.1f%%", med.Float))
	}

	bars, err := plotter.NewBarChart(values, r.barWidth(n))
	if err != nil {
		return nil, fmt.Errorf("sector chart: %w", err)
	}
	bars.Color = sectorBarColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	if len(xys) > 0 {
		valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("sector chart labels: %w", err)
		}
		for i := range valueLabels.TextStyle {
			valueLabels.TextStyle[i].XAlign = text.XCenter
			valueLabels.TextStyle[i].YAlign = text.YBottom
		}
		p.Add(valueLabels)
	}

	p.NominalX(names...)
	return p, nil
}

// SVG encodes a plot at the renderer's size
func (r *Renderer) SVG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(r.width, r.height, "svg")
	if err != nil {
		return nil, fmt.Errorf("svg writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newPlot(title, xLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Growth (%)"
	p.Add(plotter.NewGrid())
	return p
}

// barWidth shares roughly two thirds of the plot width among n bars
func (r *Renderer) barWidth(n int) vg.Length {
	if n <= 0 {
		return maxBarWidth
	}
	w := r.width * 2 / 3 / vg.Length(n)
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

// colorIndex assigns each sector option a stable palette slot so a sector
// keeps its color when other sectors are filtered out
func colorIndex(options []domain.SectorOption) map[string]int {
	idx := make(map[string]int, len(options))
	for i, o := range options {
		idx[o.Key] = i
	}
	return idx
}
