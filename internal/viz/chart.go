package viz

import (
	"errors"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("viz: no plottable residuals")

// logResiduals returns log10 of the positive finite residuals. Zero and
// non-finite entries cannot be placed on a log axis and are dropped.
func logResiduals(residuals []float64) []float64 {
	out := make([]float64, 0, len(residuals))
	for _, r := range residuals {
		if r > 0 && !math.IsInf(r, 0) {
			out = append(out, math.Log10(r))
		}
	}
	return out
}

// ResidualPlot draws the convergence history as an ASCII chart of log10
// residual norms. It returns an empty string when nothing is plottable.
func ResidualPlot(residuals []float64, width, height int) string {
	data := logResiduals(residuals)
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption("log10 |r|"),
	)
}

// SaveResidualPNG writes the residual history to path as a line chart on
// a logarithmic axis. The image format follows the file extension.
func SaveResidualPNG(path, title string, residuals []float64) error {
	pts := make(plotter.XYs, 0, len(residuals))
	for k, r := range residuals {
		if r > 0 && !math.IsInf(r, 0) {
			pts = append(pts, plotter.XY{X: float64(k), Y: r})
		}
	}
	if len(pts) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "residual norm"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
