package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/ecosim/internal/experiment"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/response"
	"github.com/san-kum/ecosim/internal/storage"
)

func f4(v float64) string { return fmt.Sprintf("%.4f", v) }

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers(headers...)
}

// Summary is the panel printed after a run.
func Summary(runID string, out *experiment.Outcome) string {
	tr := out.Trajectory
	var b strings.Builder

	name := out.Config.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(&b, "%s\n", Title.Render(name))
	if runID != "" {
		fmt.Fprintf(&b, "%s %s\n", MetricLabel.Render("run id:    "), runID)
	}
	fmt.Fprintf(&b, "%s %s  t=%.3f  samples=%d\n", MetricLabel.Render("integrator:"), out.Config.Integrator, out.Config.Time, len(tr.States))
	fmt.Fprintf(&b, "%s steps=%d rejected=%d evaluations=%d\n", MetricLabel.Render("solver:    "), tr.Stats.Steps, tr.Stats.Rejected, tr.Stats.Evaluations)
	fmt.Fprintf(&b, "%s %s %s\n\n", MetricLabel.Render("total loss:"), MetricValue.Render(f4(out.TotalLoss)), LossBar(out.TotalLoss, 20))

	final := tr.Final()
	for i := range final {
		fmt.Fprintf(&b, "  Cf%d %s %s -> %s\n", i+1, Sparkline(tr.Column(i), 40), f4(tr.States[0][i]), MetricValue.Render(f4(final[i])))
	}

	if len(tr.Metrics) > 0 {
		b.WriteString("\n")
		names := make([]string, 0, len(tr.Metrics))
		for n := range tr.Metrics {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "  %s %s\n", MetricLabel.Render(n+":"), f4(tr.Metrics[n]))
		}
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// ProfileTable lists the checkpoint rows with restriction breaches marked.
func ProfileTable(profiles []experiment.Profile) string {
	if len(profiles) == 0 {
		return ""
	}
	dim := len(profiles[0].Values)

	headers := []string{"C"}
	for i := 0; i < dim; i++ {
		headers = append(headers, fmt.Sprintf("Cf%d", i+1))
	}
	headers = append(headers, "status")

	rows := make([][]string, 0, len(profiles)+2)
	initRow := []string{"initial"}
	limitRow := []string{"limit"}
	for i := 0; i < dim; i++ {
		initRow = append(initRow, cell(profiles[0].Initial, i))
		limitRow = append(limitRow, cell(profiles[0].Restrictions, i))
	}
	rows = append(rows, append(initRow, ""), append(limitRow, ""))

	for _, p := range profiles {
		row := []string{fmt.Sprintf("%.2f", p.C)}
		for _, v := range p.Values {
			row = append(row, f4(v))
		}
		status := "ok"
		if p.Over() {
			status = "over limit"
		}
		rows = append(rows, append(row, status))
	}

	return newTable(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if row < 2 {
				return Subtle.Padding(0, 1)
			}
			p := profiles[row-2]
			if col >= 1 && col <= dim && p.Exceeds[col-1] {
				return Warn.Padding(0, 1)
			}
			if col == dim+1 && p.Over() {
				return Warn.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

func cell(v []float64, i int) string {
	if i < len(v) {
		return f4(v[i])
	}
	return "-"
}

// ChannelTable shows every perturbation channel at its driver value: the
// normalised level, the signal fed to the model after scale, and whether the
// raw line leaves [0,1] on the unit interval.
func ChannelTable(readings []perturb.Reading, scale float64) string {
	if scale <= 0 {
		scale = perturb.DefaultScale
	}
	rows := make([][]string, len(readings))
	for i, r := range readings {
		if !r.Usable {
			rows[i] = []string{r.Channel.Name, r.Channel.Driver.String(), r.Channel.Label, f4(r.At), "-", "0.0000", "absent"}
			continue
		}
		rng := "ok"
		if r.OutOfRange() {
			rng = fmt.Sprintf("raw %.3g..%.3g", r.RawLow, r.RawHigh)
		}
		rows[i] = []string{r.Channel.Name, r.Channel.Driver.String(), r.Channel.Label, f4(r.At), f4(r.Value), f4(r.Value / scale), rng}
	}

	return newTable("channel", "driver", "label", "at", "level", "signal", "range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if col == 6 && readings[row].OutOfRange() {
				return Warn.Padding(0, 1)
			}
			if !readings[row].Usable {
				return Subtle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

// FunctionTable lists the resolved internal-function coefficients.
func FunctionTable(resolved response.Resolved) string {
	rows := make([][]string, len(resolved))
	for i, p := range resolved {
		fn := response.Catalog[i]
		coeffs := make([]string, len(p.Values))
		for k, v := range p.Values {
			coeffs[k] = fmt.Sprintf("%g", v)
		}
		src := "input"
		if p.Defaulted {
			src = "default"
		}
		rows[i] = []string{fn.Name, fn.Input.String(), fn.Form.String(), strings.Join(coeffs, ", "), src, fn.Label}
	}

	return newTable("fn", "input", "form", "coefficients", "source", "label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if col == 4 && resolved[row].Defaulted {
				return Subtle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

// CompareRow is one integrator in a side-by-side comparison.
type CompareRow struct {
	Integrator  string
	Steps       int
	Evaluations int
	Elapsed     time.Duration
	Final       []float64
	// MaxDiff is the largest absolute difference from the reference
	// trajectory over all samples.
	MaxDiff float64
}

func CompareTable(rows []CompareRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		final := make([]string, len(r.Final))
		for k, v := range r.Final {
			final[k] = fmt.Sprintf("%.4f", v)
		}
		data[i] = []string{
			r.Integrator,
			fmt.Sprintf("%d", r.Steps),
			fmt.Sprintf("%d", r.Evaluations),
			r.Elapsed.Round(time.Microsecond).String(),
			strings.Join(final, " "),
			fmt.Sprintf("%.2e", r.MaxDiff),
		}
	}

	return newTable("integrator", "steps", "evals", "elapsed", "final Cf1..Cf5", "max diff").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if col == 5 && rows[row].MaxDiff > 1e-3 {
				return Warn.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

// MaxDiff is the largest absolute entry-wise difference of two row sets.
func MaxDiff(a, b [][]float64) float64 {
	d := 0.0
	for i := 0; i < len(a) && i < len(b); i++ {
		for k := 0; k < len(a[i]) && k < len(b[i]); k++ {
			d = math.Max(d, math.Abs(a[i][k]-b[i][k]))
		}
	}
	return d
}

// RunTable lists stored runs.
func RunTable(runs []storage.RunMetadata) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Name,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Integrator,
			fmt.Sprintf("%.3f", r.Time),
			f4(r.TotalLoss),
		}
	}

	return newTable("id", "name", "created", "integ", "t", "loss").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if col == 5 {
				return lossStyle(runs[row].TotalLoss).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

// EntryTable lists catalog entries, e.g. the worst runs by loss.
func EntryTable(entries []storage.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		final := e.Final()
		parts := make([]string, len(final))
		for k, v := range final {
			parts[k] = fmt.Sprintf("%.3f", v)
		}
		rows[i] = []string{e.ID, e.Name, e.Created().Local().Format("2006-01-02 15:04"), f4(e.TotalLoss), strings.Join(parts, " ")}
	}

	return newTable("id", "name", "created", "loss", "final Cf1..Cf5").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			if col == 3 {
				return lossStyle(entries[row].TotalLoss).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}
