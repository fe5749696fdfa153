package report

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ecosim/internal/perturb"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Blue,
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.White,
	asciigraph.Orange,
}

// Columns transposes rows into one series per component.
func Columns(states [][]float64) [][]float64 {
	if len(states) == 0 {
		return nil
	}
	series := make([][]float64, len(states[0]))
	for k := range series {
		series[k] = make([]float64, len(states))
		for i, row := range states {
			if k < len(row) {
				series[k][i] = row[k]
			}
		}
	}
	return series
}

// Chart plots every indicator of a trajectory against the sample index on a
// fixed [0,1] axis.
func Chart(states [][]float64, height, width int, caption string) string {
	series := Columns(states)
	if len(series) == 0 {
		return ""
	}

	legends := make([]string, len(series))
	for i := range legends {
		legends[i] = fmt.Sprintf("Cf%d", i+1)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(seriesColors[:len(series)]...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(caption),
	)
}

// Single plots one series, for a single indicator.
func Single(values []float64, height, width int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

// ChannelChart plots the concentration-driven channels x7..x14 over conc.
// Values are the normalised channel levels, before the model's scale.
func ChannelChart(set perturb.Set, t float64, conc []float64, height, width int) string {
	var series [][]float64
	var legends []string
	for i := perturb.TimeDriven; i < perturb.Count; i++ {
		p := set.Pair(i)
		if !p.Usable() {
			continue
		}
		s := make([]float64, len(conc))
		for k, c := range conc {
			s[k] = perturb.Evaluate(perturb.DriverValue(i, t, c), p)
		}
		series = append(series, s)
		legends = append(legends, perturb.Channels[i].Name)
	}
	if len(series) == 0 {
		return ""
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(seriesColors[:len(series)]...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption("perturbations driven by C"),
	)
}
