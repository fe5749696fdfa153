package model

import (
	"context"
	"fmt"

	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/integrators"
)

// Samples is the number of concentration points of a trajectory.
const Samples = 100

// Trajectory is the integrated indicator matrix over C in [0,1]. It belongs
// to the caller of Simulate; nothing else keeps a reference to it.
type Trajectory struct {
	Concentration []float64
	States        []dynamo.State
	Stats         dynamo.Stats
	Metrics       map[string]float64
}

// Final is the indicator vector at full concentration.
func (t *Trajectory) Final() dynamo.State {
	if len(t.States) == 0 {
		return nil
	}
	return t.States[len(t.States)-1]
}

// Column returns indicator i across all samples.
func (t *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(t.States))
	for k, s := range t.States {
		col[k] = s[i]
	}
	return col
}

// Matrix copies the trajectory into plain rows.
func (t *Trajectory) Matrix() [][]float64 {
	rows := make([][]float64, len(t.States))
	for i, s := range t.States {
		rows[i] = append([]float64(nil), s...)
	}
	return rows
}

// SimConfig is the grid and solver configuration of a model run: 100 samples
// over [0,1], adaptive stepping, and rows clipped to [0,1].
func SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Samples = Samples
	cfg.Start = 0
	cfg.End = 1
	cfg.Adaptive = true
	cfg.Clip = true
	cfg.ClipMin = 0
	cfg.ClipMax = 1
	return cfg
}

// Simulate integrates the model from initial over C = linspace(0, 1, 100)
// with the Dormand-Prince stepper.
func Simulate(ctx context.Context, initial []float64, p Params) (*Trajectory, error) {
	return Run(ctx, initial, p, integrators.NewRK45(), SimConfig())
}

// Run is Simulate with an explicit stepper, configuration and optional
// metrics. Inputs are copied before use.
func Run(ctx context.Context, initial []float64, p Params, integ dynamo.Integrator, cfg dynamo.Config, metrics ...dynamo.Metric) (*Trajectory, error) {
	if len(initial) != Dim {
		return nil, fmt.Errorf("%w: %d initial values, want %d", dynamo.ErrDimensionMismatch, len(initial), Dim)
	}

	sim := dynamo.New(New(p.Clone()), integ)
	for _, m := range metrics {
		sim.AddMetric(m)
	}

	res, err := sim.Run(ctx, dynamo.State(initial).Clone(), cfg)
	if err != nil {
		return nil, fmt.Errorf("integrate: %w", err)
	}

	return FromResult(res), nil
}

// FromResult wraps a simulator result produced for a LossModel.
func FromResult(res *dynamo.Result) *Trajectory {
	return &Trajectory{
		Concentration: res.Samples,
		States:        res.States,
		Stats:         res.Stats,
		Metrics:       res.Metrics,
	}
}
