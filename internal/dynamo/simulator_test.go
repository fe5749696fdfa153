package dynamo

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

type decay struct{}

func (d *decay) Derive(x State, c float64) State { return State{-x[0]} }
func (d *decay) StateDim() int                   { return 1 }

type rising struct{}

func (r *rising) Derive(x State, c float64) State { return State{1} }
func (r *rising) StateDim() int                   { return 1 }

type blowup struct{}

func (b *blowup) Derive(x State, c float64) State { return State{math.NaN()} }
func (b *blowup) StateDim() int                   { return 1 }

type testIntegrator struct{}

func (t *testIntegrator) Step(sys System, x State, c, h float64) State {
	dx := sys.Derive(x, c)
	return State{x[0] + h*dx[0]}
}

func fixedConfig(samples int) Config {
	cfg := DefaultConfig()
	cfg.Samples = samples
	cfg.Adaptive = false
	cfg.Clip = false
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})

	result, err := sim.Run(context.Background(), State{1.0}, fixedConfig(11))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Samples) != 11 {
		t.Errorf("expected 11 samples, got %d", len(result.Samples))
	}

	expected := math.Exp(-1.0)
	if got := result.Final()[0]; math.Abs(got-expected) > 0.05 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, got)
	}
	if result.Stats.Steps != 100 {
		t.Errorf("expected 100 fixed steps, got %d", result.Stats.Steps)
	}
	if result.Stats.Evaluations != 100 {
		t.Errorf("expected 100 evaluations, got %d", result.Stats.Evaluations)
	}
}

func TestSimulatorStepDoublingFallback(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})
	cfg := DefaultConfig()
	cfg.Samples = 11
	cfg.Tolerance = 1e-7

	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expected := math.Exp(-1.0)
	if got := result.Final()[0]; math.Abs(got-expected) > 1e-2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, got)
	}
	if result.Stats.Steps < 10 {
		t.Errorf("expected at least one step per interval, got %d", result.Stats.Steps)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})

	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"one sample", func(c *Config) { c.Samples = 1 }},
		{"empty interval", func(c *Config) { c.End = c.Start }},
		{"reversed interval", func(c *Config) { c.Start, c.End = 1, 0 }},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"zero initial step", func(c *Config) { c.InitialStep = 0 }},
		{"max below min", func(c *Config) { c.MaxStep = c.MinStep / 2 }},
		{"zero budget", func(c *Config) { c.MaxSteps = 0 }},
		{"zero sub-steps", func(c *Config) { c.Adaptive = false; c.SubSteps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if _, err := sim.Run(context.Background(), State{1.0}, cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})
	_, err := sim.Run(context.Background(), State{1, 2}, DefaultConfig())
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorClipsRecordedRows(t *testing.T) {
	sim := New(&rising{}, &testIntegrator{})

	cfg := fixedConfig(5)
	cfg.Clip = true
	result, err := sim.Run(context.Background(), State{0.5}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := result.Final()[0]; got != 1 {
		t.Errorf("expected clipped final 1, got %f", got)
	}

	cfg.Clip = false
	result, err = sim.Run(context.Background(), State{0.5}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := result.Final()[0]; math.Abs(got-1.5) > 1e-9 {
		t.Errorf("expected unclipped final 1.5, got %f", got)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	for _, adaptive := range []bool{true, false} {
		sim := New(&blowup{}, &testIntegrator{})
		cfg := DefaultConfig()
		cfg.Samples = 5
		cfg.Adaptive = adaptive

		result, err := sim.Run(context.Background(), State{0.5}, cfg)
		if result != nil {
			t.Error("expected no partial result")
		}
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("adaptive=%v: expected ErrInvalidState, got %v", adaptive, err)
		}

		var simErr *SimulationError
		if !errors.As(err, &simErr) {
			t.Fatalf("expected *SimulationError, got %T", err)
		}
		if simErr.Sample != 1 {
			t.Errorf("expected failure at sample 1, got %d", simErr.Sample)
		}
		if !strings.Contains(err.Error(), "sample 1") {
			t.Errorf("unexpected message %q", err.Error())
		}
	}
}

func TestSimulatorStepBudget(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})
	cfg := DefaultConfig()
	cfg.MaxSteps = 3

	_, err := sim.Run(context.Background(), State{1.0}, cfg)
	if !errors.Is(err, ErrStepBudget) {
		t.Errorf("expected ErrStepBudget, got %v", err)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(&decay{}, &testIntegrator{})
	_, err := sim.Run(ctx, State{1.0}, fixedConfig(5))
	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, c float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type testObserver struct {
	indices []int
}

func (o *testObserver) OnSample(i int, x State, c float64) {
	o.indices = append(o.indices, i)
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decay{}, &testIntegrator{})

	metric := &testMetric{}
	obs := &testObserver{}
	sim.AddMetric(metric)
	sim.AddObserver(obs)

	result, err := sim.Run(context.Background(), State{1.0}, fixedConfig(11))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
	if len(obs.indices) != 11 || obs.indices[10] != 10 {
		t.Errorf("unexpected observer indices %v", obs.indices)
	}

	if _, err := sim.Run(context.Background(), State{1.0}, fixedConfig(11)); err != nil {
		t.Fatal(err)
	}
	if metric.count != 11 {
		t.Errorf("expected metrics reset between runs, got %d observations", metric.count)
	}
}
