package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	Warn = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	OK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ff88"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	LossLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	LossMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	LossHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func lossStyle(v float64) lipgloss.Style {
	switch {
	case v > 0.7:
		return LossHigh
	case v > 0.3:
		return LossMid
	default:
		return LossLow
	}
}

// LossBar renders a loss in [0,1] as a bar of the given width.
func LossBar(v float64, width int) string {
	filled := int(v * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lossStyle(v).Render(bar)
}

// Sparkline draws values in [0,1] with one glyph per sample, resampled to
// width. The scale is absolute so that sparklines of different indicators
// compare directly.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for i := 0; i < width; i++ {
		k := i * len(values) / width
		if k >= len(values) {
			break
		}
		v := max(0, min(1, values[k]))
		idx := int(v * float64(len(chars)-1))
		b.WriteString(lossStyle(v).Render(string(chars[idx])))
	}
	return b.String()
}
