package report

import (
	"fmt"
	"strings"
)

// Phase draws indicator yi against indicator xi on the unit square. Points
// are marked by trajectory third: '.' early, 'o' middle, '●' late.
func Phase(states [][]float64, xi, yi, width, height int) string {
	if len(states) == 0 || width < 2 || height < 2 {
		return ""
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	n := len(states)
	for i, row := range states {
		if xi >= len(row) || yi >= len(row) {
			return ""
		}
		x := max(0, min(1, row[xi]))
		y := max(0, min(1, row[yi]))
		px := int(x * float64(width-1))
		py := height - 1 - int(y*float64(height-1))

		switch {
		case i < n/3:
			canvas[py][px] = '.'
		case i < 2*n/3:
			canvas[py][px] = 'o'
		default:
			canvas[py][px] = '●'
		}
	}

	var b strings.Builder
	edge := strings.Repeat("─", width)
	fmt.Fprintf(&b, "  1.00 ┌%s┐\n", edge)
	for i, row := range canvas {
		label := "      "
		if i == height/2 {
			label = "  0.50"
		}
		fmt.Fprintf(&b, "%s │%s│\n", label, string(row))
	}
	fmt.Fprintf(&b, "  0.00 └%s┘\n", edge)
	fmt.Fprintf(&b, "       0.00%s1.00\n", strings.Repeat(" ", max(width-8, 1)))
	fmt.Fprintf(&b, "\n%s\n", Subtle.Render(fmt.Sprintf("x: Cf%d  y: Cf%d  . = early, o = middle, ● = late", xi+1, yi+1)))
	return b.String()
}
