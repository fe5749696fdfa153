package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/experiment"
	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/report"
	"github.com/san-kum/ecosim/internal/storage"
)

const catalogFile = "catalog.db"

// loadScenario resolves the scenario for a command: a config file or a
// preset (not both), falling back to the defaults, with explicitly set flags
// applied last.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	if configFile != "" && preset != "" {
		return nil, fmt.Errorf("use either --config or --preset")
	}

	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Time = simTime
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("initial") {
		cfg.Initial = append([]float64(nil), initial...)
	}
	if flags.Changed("channel-scale") {
		cfg.ChannelScale = channelScale
	}
	if flags.Changed("power") {
		cfg.Power = power
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*storage.Store, *storage.Catalog, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, nil, err
	}
	cat, err := storage.OpenCatalog(filepath.Join(dataDir, catalogFile))
	if err != nil {
		return nil, nil, err
	}
	return st, cat, nil
}

// saveOutcome stores a finished run and indexes it in the catalog.
func saveOutcome(st *storage.Store, cat *storage.Catalog, out *experiment.Outcome) (*storage.RunMetadata, error) {
	runID, err := st.Save(storage.NewMetadata(out.Config, out.Trajectory, out.TotalLoss), out.Config, out.Trajectory)
	if err != nil {
		return nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	if err := cat.Record(meta); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	slog.Info("run saved", "id", runID, "dir", filepath.Join(st.Dir(), runID))
	return meta, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.NewRegistry(), slog.Default())

	start := time.Now()
	out, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID := ""
	if !noSave {
		st, cat, err := openStore()
		if err != nil {
			return err
		}
		defer cat.Close()

		meta, err := saveOutcome(st, cat, out)
		if err != nil {
			return err
		}
		runID = meta.ID
	}

	fmt.Println(report.Summary(runID, out))
	fmt.Println()
	fmt.Println(report.Chart(out.Trajectory.Matrix(), 12, 70, "indicators over C"))
	fmt.Println(report.Subtle.Render(fmt.Sprintf("completed in %v", elapsed.Round(time.Microsecond))))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	if worst > 0 || recent > 0 {
		_, cat, err := openStore()
		if err != nil {
			return err
		}
		defer cat.Close()

		var entries []storage.Entry
		if worst > 0 {
			entries, err = cat.Worst(worst)
		} else {
			entries, err = cat.Recent(recent)
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no runs found")
			return nil
		}
		total, err := cat.Count()
		if err != nil {
			return err
		}
		fmt.Println(report.EntryTable(entries))
		fmt.Println(report.Subtle.Render(fmt.Sprintf("%d of %d indexed runs", len(entries), total)))
		return nil
	}

	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	fmt.Println(report.RunTable(runs))
	return nil
}

// loadOutcome rebuilds a stored run as an outcome for display.
func loadOutcome(st *storage.Store, runID string) (*storage.RunMetadata, *experiment.Outcome, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := st.LoadScenario(runID)
	if err != nil {
		return nil, nil, err
	}
	states, conc, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}

	tr := &model.Trajectory{
		Concentration: conc,
		States:        make([]dynamo.State, len(states)),
		Stats: dynamo.Stats{
			Steps:       meta.Steps,
			Rejected:    meta.Rejected,
			Evaluations: meta.Evaluations,
		},
		Metrics: meta.Metrics,
	}
	for i, s := range states {
		tr.States[i] = s
	}

	out := &experiment.Outcome{
		Config:     cfg,
		Trajectory: tr,
		TotalLoss:  meta.TotalLoss,
		Profiles:   experiment.Profiles(tr, cfg.Initial, cfg.Restrictions),
	}
	return meta, out, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, out, err := loadOutcome(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Println(report.Summary(meta.ID, out))
	fmt.Println(report.Subtle.Render(fmt.Sprintf("recorded %s  power=%.3f  channel_scale=%.3g",
		meta.Timestamp.Local().Format("2006-01-02 15:04:05"), meta.Power, meta.ChannelScale)))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, out, err := loadOutcome(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(out.Trajectory.States))

	if indicator == 0 {
		fmt.Println(report.Chart(out.Trajectory.Matrix(), 15, 80, "Cf1..Cf5 over C"))
		return nil
	}
	if indicator < 1 || indicator > model.Dim {
		return fmt.Errorf("indicator must be in 1..%d, got %d", model.Dim, indicator)
	}
	caption := fmt.Sprintf("Cf%d over C", indicator)
	fmt.Println(report.Single(out.Trajectory.Column(indicator-1), 15, 80, caption))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	for _, axis := range []int{xAxis, yAxis} {
		if axis < 1 || axis > model.Dim {
			return fmt.Errorf("axes must be in 1..%d, got %d", model.Dim, axis)
		}
	}

	meta, out, err := loadOutcome(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("phase plot: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Name)
	fmt.Print(report.Phase(out.Trajectory.Matrix(), xAxis-1, yAxis-1, 70, 20))
	return nil
}

func profileRun(cmd *cobra.Command, args []string) error {
	meta, out, err := loadOutcome(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Println(report.Title.Render(fmt.Sprintf("%s  %s", meta.Name, meta.ID)))
	fmt.Println(report.ProfileTable(out.Profiles))

	last := out.Profiles[len(out.Profiles)-1]
	if last.Over() {
		fmt.Println(report.Warn.Render("restriction exceeded at full concentration"))
	} else {
		fmt.Println(report.OK.Render("all indicators within restrictions at full concentration"))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, conc, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, conc, states)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	states, conc, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, conc, states)
}
