package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderTrendPNG saves a line chart of the score series with the trend
// projection drawn past the last observed point.
func RenderTrendPNG(res *Result, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s score trend (%s)", res.Entity, res.Variant)
	p.X.Label.Text = "Day"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 100

	pts := make(plotter.XYs, len(res.Score))
	for i, point := range res.Score {
		pts[i] = plotter.XY{X: float64(i), Y: point.Value}
	}

	scoreLine, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build score line: %w", err)
	}
	scoreLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	scoreLine.Width = vg.Points(1.5)
	p.Add(scoreLine)
	p.Legend.Add("score", scoreLine)

	if n := len(res.Score); n >= 2 {
		projPts := plotter.XYs{
			{X: float64(n - 1), Y: res.Score[n-1].Value},
			{X: float64(n - 1 + 3), Y: res.Trend.Projection},
		}
		projLine, err := plotter.NewLine(projPts)
		if err != nil {
			return fmt.Errorf("failed to build projection line: %w", err)
		}
		projLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		projLine.Width = vg.Points(1)
		projLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(projLine)
		p.Legend.Add("projection", projLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save trend plot: %w", err)
	}
	return nil
}
