package util

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Curves accumulates per-epoch metric series and renders them as a single
// training curve plot.
type Curves struct {
	names  []string
	series []plotter.XYs
}

func NewCurves(names ...string) *Curves {
	return &Curves{names: names, series: make([]plotter.XYs, len(names))}
}

// Add appends one epoch worth of values, in the order the series were named
// at construction. Values beyond the named series are dropped.
func (c *Curves) Add(epoch int, values ...float64) {
	for i, v := range values {
		if i >= len(c.series) {
			break
		}
		c.series[i] = append(c.series[i], plotter.XY{X: float64(epoch), Y: v})
	}
}

// Len returns the number of recorded epochs.
func (c *Curves) Len() int {
	if len(c.series) == 0 {
		return 0
	}
	return len(c.series[0])
}

// Save renders the curves to path. The format follows the file extension,
// svg for training curves.
func (c *Curves) Save(path string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.X.Label.Text = "epoch"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	for i, pts := range c.series {
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Width = 2
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(c.names[i], l)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
