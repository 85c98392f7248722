package dataset

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot saves a plot of the values of D against their (1-based) frames
// to filename. The format is taken from the extension (png, svg, pdf...).
func (D *Int) Plot(title, filename string) error {
	if D.Len() == 0 {
		return fmt.Errorf("dataset: nothing to plot in %s", D.Name)
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = D.Name
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, D.Len())
	for i := range pts {
		pts[i].X = float64(D.frames[i] + 1)
		pts[i].Y = float64(D.values[i])
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	l.Color = color.RGBA{B: 200, A: 255}
	s.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(l, s)
	return p.Save(5*vg.Inch, 4*vg.Inch, filename)
}
