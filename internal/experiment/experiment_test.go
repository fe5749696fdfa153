package experiment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/response"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryIntegrators(t *testing.T) {
	r := NewRegistry()

	names := r.ListIntegrators()
	want := []string{"euler", "rk4", "rk45"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}

	if _, err := r.GetIntegrator("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestSolverConfig(t *testing.T) {
	r := NewRegistry()

	rk45, _ := r.GetIntegrator("rk45")
	cfg := r.SolverConfig(rk45, 1e-8)
	if !cfg.Adaptive || cfg.Tolerance != 1e-8 {
		t.Errorf("expected adaptive rk45 with tol 1e-8, got %+v", cfg)
	}
	if cfg.Samples != model.Samples || !cfg.Clip {
		t.Errorf("expected clipped %d-sample grid", model.Samples)
	}

	rk4, _ := r.GetIntegrator("rk4")
	cfg = r.SolverConfig(rk4, 0)
	if cfg.Adaptive || cfg.SubSteps != fixedSubSteps {
		t.Errorf("expected fixed stepping for rk4, got %+v", cfg)
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Name = "baseline"

	out, err := New(cfg, NewRegistry(), quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	tr := out.Trajectory
	if len(tr.States) != model.Samples {
		t.Fatalf("expected %d rows, got %d", model.Samples, len(tr.States))
	}
	for _, row := range tr.States {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("value %f outside [0,1]", v)
			}
		}
	}

	if out.TotalLoss < 0 || out.TotalLoss > 1 {
		t.Errorf("total loss %f outside [0,1]", out.TotalLoss)
	}
	if got := tr.Metrics["final_loss"]; got != out.TotalLoss {
		t.Errorf("final_loss metric %f differs from total loss %f", got, out.TotalLoss)
	}
	for _, name := range []string{"mean_loss", "exceedance", "saturated_samples"} {
		if _, ok := tr.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if len(out.Profiles) != 5 {
		t.Errorf("expected 5 profiles, got %d", len(out.Profiles))
	}
}

func TestExperimentCopiesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	e := New(cfg, NewRegistry(), quietLogger())

	cfg.Initial[0] = 0.9
	if e.Config().Initial[0] != config.DefaultInitial {
		t.Error("experiment must not see later edits to the scenario")
	}
}

func TestExperimentRejectsInvalidScenario(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Initial = []float64{0.1, 0.1}

	_, err := New(cfg, NewRegistry(), quietLogger()).Run(context.Background())
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.Integrator = "leapfrog"
	if _, err := New(cfg, NewRegistry(), quietLogger()).Run(context.Background()); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestExperimentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.DefaultConfig(), NewRegistry(), quietLogger()).Run(ctx)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

func TestRunAllMatchesSequential(t *testing.T) {
	names := config.ListPresets()
	exps := make([]*Experiment, len(names))
	for i, name := range names {
		exps[i] = New(config.GetPreset(name), NewRegistry(), quietLogger())
	}

	outcomes, err := RunAll(context.Background(), exps, 2)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(outcomes) != len(names) {
		t.Fatalf("expected %d outcomes, got %d", len(names), len(outcomes))
	}

	for i, name := range names {
		single, err := New(config.GetPreset(name), NewRegistry(), quietLogger()).Run(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if outcomes[i].Config.Name != name {
			t.Errorf("outcome %d is %s, want %s", i, outcomes[i].Config.Name, name)
		}
		a, b := outcomes[i].Trajectory.Final(), single.Trajectory.Final()
		for k := range a {
			if a[k] != b[k] {
				t.Errorf("%s: batch and sequential differ at Cf%d: %v vs %v", name, k+1, a[k], b[k])
			}
		}
	}
}

func TestRunAllStopsOnInvalid(t *testing.T) {
	bad := config.DefaultConfig()
	bad.Name = "bad"
	bad.Restrictions = nil

	exps := []*Experiment{
		New(config.DefaultConfig(), NewRegistry(), quietLogger()),
		New(bad, NewRegistry(), quietLogger()),
	}
	if _, err := RunAll(context.Background(), exps, 0); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSaturatedPresetStaysAtCeiling(t *testing.T) {
	out, err := New(config.GetPreset("saturated"), NewRegistry(), quietLogger()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range out.Trajectory.States {
		for _, v := range row {
			if v != 1 {
				t.Fatalf("expected every indicator to stay at 1, got %v", row)
			}
		}
	}
	if out.TotalLoss != 1 {
		t.Errorf("expected total loss 1, got %f", out.TotalLoss)
	}
}

func TestLogInputsWarnsOnDefaultedFunctions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	e := New(config.DefaultConfig(), NewRegistry(), logger)

	p := e.Config().Params()
	p.Functions = response.Set{{0.9, 0.1}, {0.5}}
	e.logInputs(model.New(p))

	out := buf.String()
	if !strings.Contains(out, "malformed coefficients replaced by defaults") {
		t.Fatalf("expected defaulting warning, got %q", out)
	}
	if !strings.Contains(out, "f2") || strings.Contains(out, "functions=\"[f1 ") {
		t.Errorf("unexpected defaulted list: %q", out)
	}

	buf.Reset()
	e.logInputs(model.New(e.Config().Params()))
	if strings.Contains(buf.String(), "malformed coefficients") {
		t.Errorf("validated scenario should not warn: %q", buf.String())
	}
}
