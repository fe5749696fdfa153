package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile   string
	preset       string
	simTime      float64
	integrator   string
	tolerance    float64
	initial      []float64
	channelScale float64
	power        float64
	noSave       bool

	worst     int
	recent    int
	indicator int
	at        float64
	xAxis     int
	yAxis     int

	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
	parallel  int
	trials    int
	spread    float64
	seed      int64
)

// main registers the ecosim commands and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "ecosim",
		Short:        "pollution loss dynamics simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ecosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate a scenario over C in [0,1] and save the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().IntVar(&worst, "worst", 0, "show the n runs with the highest total loss")
	listCmd.Flags().IntVar(&recent, "recent", 0, "show the n newest runs from the catalog")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run indicators",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&indicator, "indicator", 0, "plot only Cf<n> (1..5)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot one indicator against another",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 1, "indicator on the x-axis (1..5)")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 5, "indicator on the y-axis (1..5)")

	profileCmd := &cobra.Command{
		Use:   "profile [run_id]",
		Short: "indicator checkpoints against initial values and restrictions",
		Args:  cobra.ExactArgs(1),
		RunE:  profileRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same scenario",
		RunE:  compareIntegrators,
	}
	scenarioFlags(compareCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	channelsCmd := &cobra.Command{
		Use:   "channels",
		Short: "show perturbation channels of a scenario",
		Args:  cobra.NoArgs,
		RunE:  showChannels,
	}
	scenarioFlags(channelsCmd)
	channelsCmd.Flags().Float64Var(&at, "at", 0, "concentration for x7..x14")

	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "show resolved internal function coefficients",
		Args:  cobra.NoArgs,
		RunE:  showFunctions,
	}
	scenarioFlags(functionsCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarioFile,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one scenario parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&paramName, "param", "time", "parameter to sweep (time, power, channel_scale, initial)")
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 11, "number of values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = unlimited)")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "jitter initial indicators and collect loss statistics",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	scenarioFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Float64Var(&spread, "spread", 0.05, "uniform jitter half-width")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	mcCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 = unlimited)")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, phaseCmd, profileCmd, exportJSONCmd, exportCSVCmd,
		compareCmd, presetsCmd, channelsCmd, functionsCmd, scenarioCmd, sweepCmd, mcCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// scenarioFlags registers the flags that select and override a scenario.
func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().Float64Var(&simTime, "time", 0, "time value for channels x1..x6")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-6, "adaptive error tolerance")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "initial Cf1..Cf5, comma separated")
	cmd.Flags().Float64Var(&channelScale, "channel-scale", 10, "divisor applied to every perturbation signal")
	cmd.Flags().Float64Var(&power, "power", 0.55, "power-law exponent")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return nil
}
