package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ecosim/internal/automation"
	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/experiment"
	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/report"
	"github.com/san-kum/ecosim/internal/response"
	"github.com/san-kum/ecosim/internal/storage"
)

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	names := args
	if len(names) == 0 {
		names = []string{config.DefaultIntegrator}
		for _, n := range registry.ListIntegrators() {
			if n != config.DefaultIntegrator {
				names = append(names, n)
			}
		}
	}

	fmt.Printf("comparing integrators for %s (t=%.3f, tolerance=%g)\n\n", cfg.Name, cfg.Time, cfg.Tolerance)

	var reference [][]float64
	rows := make([]report.CompareRow, 0, len(names))
	for _, name := range names {
		c := cfg.Clone()
		c.Integrator = name

		start := time.Now()
		out, err := experiment.New(c, registry, slog.Default()).Run(cmd.Context())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-8s  error: %v\n", name, err)
			continue
		}

		matrix := out.Trajectory.Matrix()
		if reference == nil {
			reference = matrix
		}
		rows = append(rows, report.CompareRow{
			Integrator:  name,
			Steps:       out.Trajectory.Stats.Steps,
			Evaluations: out.Trajectory.Stats.Evaluations,
			Elapsed:     elapsed,
			Final:       out.Trajectory.Final(),
			MaxDiff:     report.MaxDiff(reference, matrix),
		})
	}

	if len(rows) == 0 {
		return fmt.Errorf("no integrator completed")
	}
	fmt.Println(report.CompareTable(rows))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Printf("  %-14s t=%.2f  channel_scale=%g  initial=%v\n", name, p.Time, p.ChannelScale, p.Initial)
	}
	return nil
}

func showChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if at < 0 || at > 1 {
		return fmt.Errorf("--at must be in [0,1], got %g", at)
	}

	set := cfg.Params().Perturbations
	readings := perturb.Inspect(set, cfg.Time, at)
	fmt.Println(report.ChannelTable(readings, cfg.ChannelScale))

	var outside []string
	for _, r := range readings {
		if r.OutOfRange() {
			outside = append(outside, r.Channel.Name)
		}
	}
	if len(outside) > 0 {
		fmt.Println(report.Warn.Render("leave [0,1] before normalisation: " + strings.Join(outside, ", ")))
	}

	if chart := report.ChannelChart(set, cfg.Time, dynamo.Linspace(0, 1, model.Samples), 10, 70); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}
	return nil
}

func showFunctions(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	resolved := response.ResolveAll(cfg.Params().Functions)
	fmt.Println(report.FunctionTable(resolved))
	if names := resolved.Defaulted(); len(names) > 0 {
		fmt.Println(report.Warn.Render("using defaults for: " + strings.Join(names, ", ")))
	}
	return nil
}

func runScenarioFile(cmd *cobra.Command, args []string) error {
	s, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	outcomes, err := automation.RunScenario(cmd.Context(), s, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}

	runs := make([]storage.RunMetadata, 0, len(outcomes))
	if noSave {
		now := time.Now()
		for _, out := range outcomes {
			meta := storage.NewMetadata(out.Config, out.Trajectory, out.TotalLoss)
			meta.Timestamp = now
			runs = append(runs, meta)
		}
	} else {
		st, cat, err := openStore()
		if err != nil {
			return err
		}
		defer cat.Close()

		for _, out := range outcomes {
			meta, err := saveOutcome(st, cat, out)
			if err != nil {
				return err
			}
			runs = append(runs, *meta)
		}
	}

	fmt.Println(report.Title.Render(s.Name))
	if s.Description != "" {
		fmt.Println(report.Subtle.Render(s.Description))
	}
	fmt.Println(report.RunTable(runs))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
		Parallel:  parallel,
	}, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}

	fmt.Printf("%-12s  %-10s  %-10s  %s\n", paramName, "loss", "mean", "final Cf1..Cf5")
	fmt.Println(strings.Repeat("-", 72))
	losses := make([]float64, len(results))
	for i, r := range results {
		losses[i] = r.TotalLoss
		fmt.Printf("%-12.4g  %-10.4f  %-10.4f  %s\n", r.ParamValue, r.TotalLoss, r.MeanLoss, formatRow(r.FinalState))
	}

	fmt.Println()
	fmt.Println(report.Single(losses, 8, 60, "total loss across "+paramName))
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if trials < 1 {
		return fmt.Errorf("trials must be positive, got %d", trials)
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: spread,
		NumTrials:    trials,
		Seed:         seed,
		Parallel:     parallel,
	}, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}

	exceeded, meanLoss, maxLoss := automation.MonteCarloStats(results)
	losses := make([]float64, len(results))
	for i, r := range results {
		losses[i] = r.TotalLoss
	}

	fmt.Println(report.Title.Render(fmt.Sprintf("monte carlo: %d trials, spread %.3g", len(results), spread)))
	fmt.Printf("%s %s\n", report.MetricLabel.Render("mean loss:  "), report.MetricValue.Render(fmt.Sprintf("%.4f", meanLoss)))
	fmt.Printf("%s %s\n", report.MetricLabel.Render("worst loss: "), report.MetricValue.Render(fmt.Sprintf("%.4f", maxLoss)))
	fmt.Printf("%s %d of %d\n", report.MetricLabel.Render("over limit: "), exceeded, len(results))
	fmt.Printf("%s %s\n", report.MetricLabel.Render("losses:     "), report.Sparkline(losses, min(len(losses), 60)))
	return nil
}

func formatRow(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return strings.Join(parts, " ")
}
