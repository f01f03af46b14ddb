// Package visualization turns curves and surfaces into backend-neutral plot
// descriptions. Rendering is left to whatever reads the exported JSON.
package visualization

import (
	"fmt"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/shopspring/decimal"
)

type TraceMode int

const (
	Lines TraceMode = iota
	Markers
	LinesMarkers
)

func (m TraceMode) String() string {
	switch m {
	case Lines:
		return "lines"
	case Markers:
		return "markers"
	case LinesMarkers:
		return "lines+markers"
	}
	return fmt.Sprintf("TraceMode(%d)", int(m))
}

// Series2D is one x/y trace. LineColor and LineWidth are optional.
type Series2D struct {
	X         []decimal.Decimal
	Y         []decimal.Decimal
	Name      string
	Mode      TraceMode
	LineColor *string
	LineWidth *float64
}

type MultiSeries2D struct {
	Series []Series2D
}

// Surface3D is a meshgrid: Z[i][j] is the value at (X[i][j], Y[i][j]), rows
// running over y and columns over x.
type Surface3D struct {
	X      [][]decimal.Decimal
	Y      [][]decimal.Decimal
	Z      [][]decimal.Decimal
	Labels []string
}

type Dimensions struct {
	Width  int
	Height int
}

type GraphConfig struct {
	Title       string
	XLabel      string
	YLabel      string
	ZLabel      *string
	Dimensions  Dimensions
	ShowLegend  bool
	LegendNames []string
}

// DefaultGraphConfig is a 1280x720 plot with a legend.
func DefaultGraphConfig(title, xLabel, yLabel string) GraphConfig {
	return GraphConfig{
		Title:      title,
		XLabel:     xLabel,
		YLabel:     yLabel,
		Dimensions: Dimensions{Width: 1280, Height: 720},
		ShowLegend: true,
	}
}

// Plottable is one of *Series2D, *MultiSeries2D or *Surface3D.
type Plottable interface {
	Kind() string
	Validate() error
}

var (
	_ Plottable = (*Series2D)(nil)
	_ Plottable = (*MultiSeries2D)(nil)
	_ Plottable = (*Surface3D)(nil)
)

func (*Series2D) Kind() string      { return "series2d" }
func (*MultiSeries2D) Kind() string { return "multi_series2d" }
func (*Surface3D) Kind() string     { return "surface3d" }

func (s *Series2D) Validate() error {
	if len(s.X) != len(s.Y) {
		return errs.Domain("visualization.Series2D", "%d x values but %d y values", len(s.X), len(s.Y))
	}
	if s.LineWidth != nil && *s.LineWidth <= 0 {
		return errs.Domain("visualization.Series2D", "line width %v", *s.LineWidth)
	}
	return nil
}

func (m *MultiSeries2D) Validate() error {
	for i := range m.Series {
		if err := m.Series[i].Validate(); err != nil {
			return fmt.Errorf("series %d: %w", i, err)
		}
	}
	return nil
}

func (s *Surface3D) Validate() error {
	const op = "visualization.Surface3D"
	if len(s.X) != len(s.Z) || len(s.Y) != len(s.Z) {
		return errs.Domain(op, "matrices have %d, %d and %d rows", len(s.X), len(s.Y), len(s.Z))
	}
	for i := range s.Z {
		if len(s.X[i]) != len(s.Z[i]) || len(s.Y[i]) != len(s.Z[i]) {
			return errs.Domain(op, "row %d is ragged", i)
		}
	}
	return nil
}

func (c GraphConfig) Validate() error {
	if c.Dimensions.Width <= 0 || c.Dimensions.Height <= 0 {
		return errs.Domain("visualization.GraphConfig", "dimensions %dx%d", c.Dimensions.Width, c.Dimensions.Height)
	}
	return nil
}
