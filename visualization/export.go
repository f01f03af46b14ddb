package visualization

import (
	"context"
	"io"

	"github.com/bcdannyboy/optionlab/errs"
	"github.com/bcdannyboy/optionlab/fsutil"
	"github.com/bcdannyboy/optionlab/logger"
	"github.com/shopspring/decimal"
	"github.com/xhhuango/json"
)

type plotJSON struct {
	Kind   string      `json:"kind"`
	Config configJSON  `json:"config"`
	Data   interface{} `json:"data"`
}

type configJSON struct {
	Title       string   `json:"title"`
	XLabel      string   `json:"x_label"`
	YLabel      string   `json:"y_label"`
	ZLabel      *string  `json:"z_label,omitempty"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ShowLegend  bool     `json:"show_legend"`
	LegendNames []string `json:"legend_names,omitempty"`
}

type seriesJSON struct {
	X         []json.Number `json:"x"`
	Y         []json.Number `json:"y"`
	Name      string        `json:"name"`
	Mode      string        `json:"mode"`
	LineColor *string       `json:"line_color,omitempty"`
	LineWidth *float64      `json:"line_width,omitempty"`
}

type surfaceJSON struct {
	X      [][]json.Number `json:"x"`
	Y      [][]json.Number `json:"y"`
	Z      [][]json.Number `json:"z"`
	Labels []string        `json:"labels,omitempty"`
}

func numbers(ds []decimal.Decimal) []json.Number {
	out := make([]json.Number, len(ds))
	for i, d := range ds {
		out[i] = json.Number(d.String())
	}
	return out
}

func matrix(m [][]decimal.Decimal) [][]json.Number {
	out := make([][]json.Number, len(m))
	for i, row := range m {
		out[i] = numbers(row)
	}
	return out
}

func (s *Series2D) toJSON() seriesJSON {
	return seriesJSON{
		X:         numbers(s.X),
		Y:         numbers(s.Y),
		Name:      s.Name,
		Mode:      s.Mode.String(),
		LineColor: s.LineColor,
		LineWidth: s.LineWidth,
	}
}

func data(p Plottable) (interface{}, error) {
	switch v := p.(type) {
	case *Series2D:
		return v.toJSON(), nil
	case *MultiSeries2D:
		out := make([]seriesJSON, len(v.Series))
		for i := range v.Series {
			out[i] = v.Series[i].toJSON()
		}
		return out, nil
	case *Surface3D:
		return surfaceJSON{X: matrix(v.X), Y: matrix(v.Y), Z: matrix(v.Z), Labels: v.Labels}, nil
	}
	return nil, errs.Domain("visualization.Export", "unsupported plottable %T", p)
}

// Encode writes the plot and its config as one indented JSON document.
func Encode(w io.Writer, p Plottable, cfg GraphConfig) error {
	if p == nil {
		return errs.Domain("visualization.Export", "nil plottable")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	d, err := data(p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plotJSON{
		Kind: p.Kind(),
		Config: configJSON{
			Title:       cfg.Title,
			XLabel:      cfg.XLabel,
			YLabel:      cfg.YLabel,
			ZLabel:      cfg.ZLabel,
			Width:       cfg.Dimensions.Width,
			Height:      cfg.Dimensions.Height,
			ShowLegend:  cfg.ShowLegend,
			LegendNames: cfg.LegendNames,
		},
		Data: d,
	})
}

func Export(path string, p Plottable, cfg GraphConfig) error {
	return ExportContext(context.Background(), path, p, cfg)
}

// ExportContext writes the Encode document to path, creating directories on
// demand and replacing any existing file atomically. Invalid plots are
// rejected before anything touches the disk.
func ExportContext(ctx context.Context, path string, p Plottable, cfg GraphConfig) error {
	if p == nil {
		return errs.Domain("visualization.Export", "nil plottable")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	err := fsutil.WriteAtomic(ctx, "visualization.Export", path, func(w io.Writer) error {
		return Encode(w, p, cfg)
	})
	if err != nil {
		return err
	}
	logger.Debug(ctx, "exported plot", "path", path, "kind", p.Kind())
	return nil
}
