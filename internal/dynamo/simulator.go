package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// countingSystem tallies right-hand side evaluations for Stats.
type countingSystem struct {
	System
	calls int
}

func (c *countingSystem) Derive(x State, at float64) State {
	c.calls++
	return c.System.Derive(x, at)
}

// Run integrates x0 across cfg.Samples evenly spaced points of [Start, End].
// The integration state itself is never clipped; when cfg.Clip is set only the
// recorded rows are limited to [ClipMin, ClipMax]. Any failure discards the
// partial trajectory.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	grid := Linspace(cfg.Start, cfg.End, cfg.Samples)
	result := &Result{
		Samples: grid,
		States:  make([]State, 0, len(grid)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	sys := &countingSystem{System: s.sys}
	x := x0.Clone()
	h := cfg.InitialStep

	s.record(result, 0, x, grid[0], cfg)

	for i := 1; i < len(grid); i++ {
		select {
		case <-ctx.Done():
			return nil, &SimulationError{Sample: i, At: grid[i-1], State: x, Wrapped: ErrContextCanceled}
		default:
		}

		var err error
		if cfg.Adaptive {
			x, h, err = s.advanceAdaptive(sys, x, grid[i-1], grid[i], h, cfg, &result.Stats)
		} else {
			x, err = s.advanceFixed(sys, x, grid[i-1], grid[i], cfg, &result.Stats)
		}
		if err != nil {
			return nil, &SimulationError{Sample: i, At: grid[i-1], State: x, Wrapped: err}
		}

		if cfg.ValidateState && !x.IsValid() {
			return nil, &SimulationError{Sample: i, At: grid[i], State: x, Wrapped: ErrInvalidState}
		}

		s.record(result, i, x, grid[i], cfg)
	}

	result.Stats.Evaluations = sys.calls

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(result *Result, i int, x State, c float64, cfg Config) {
	row := x.Clone()
	if cfg.Clip {
		row = x.Clip(cfg.ClipMin, cfg.ClipMax)
	}
	result.States = append(result.States, row)

	for _, m := range s.metrics {
		m.Observe(row, c)
	}
	for _, obs := range s.observers {
		obs.OnSample(i, row, c)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", cfg.Samples)
	}
	if cfg.End <= cfg.Start {
		return fmt.Errorf("end must be greater than start, got [%f, %f]", cfg.Start, cfg.End)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if cfg.InitialStep <= 0 || cfg.MinStep <= 0 || cfg.MaxStep < cfg.MinStep {
			return fmt.Errorf("invalid step limits: initial=%g min=%g max=%g", cfg.InitialStep, cfg.MinStep, cfg.MaxStep)
		}
		if cfg.MaxSteps <= 0 {
			return fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
		}
	} else if cfg.SubSteps <= 0 {
		return fmt.Errorf("sub-steps must be positive for fixed stepping, got %d", cfg.SubSteps)
	}
	return nil
}

// advanceAdaptive covers [from, to] with accepted steps. Steps never cross to.
func (s *Simulator) advanceAdaptive(sys System, x State, from, to, h float64, cfg Config, stats *Stats) (State, float64, error) {
	adaptive, ok := s.integrator.(AdaptiveIntegrator)
	if !ok {
		return s.advanceHalving(sys, x, from, to, h, cfg, stats)
	}

	c := from
	span := to - from
	for to-c > 1e-12*span {
		if stats.Steps+stats.Rejected >= cfg.MaxSteps {
			return x, h, ErrStepBudget
		}

		step := math.Min(h, to-c)
		truncated := step < h

		next, hNext, ratio := adaptive.StepAdaptive(sys, x, c, step, cfg.Tolerance)
		if !next.IsValid() || math.IsNaN(ratio) {
			return x, h, ErrInvalidState
		}

		if ratio > 1 {
			stats.Rejected++
			if step <= cfg.MinStep {
				return x, h, ErrStepTooSmall
			}
			h = math.Max(hNext, cfg.MinStep)
			continue
		}

		stats.Steps++
		stats.LastStep = step
		x = next
		if truncated {
			c = to
			hNext = math.Max(hNext, h)
		} else {
			c += step
		}
		h = math.Min(math.Max(hNext, cfg.MinStep), cfg.MaxStep)
	}

	return x, h, nil
}

// advanceHalving gives step-doubling error control to integrators without an
// embedded error estimate.
func (s *Simulator) advanceHalving(sys System, x State, from, to, h float64, cfg Config, stats *Stats) (State, float64, error) {
	c := from
	span := to - from
	for to-c > 1e-12*span {
		if stats.Steps+stats.Rejected >= cfg.MaxSteps {
			return x, h, ErrStepBudget
		}

		step := math.Min(h, to-c)
		x1 := s.integrator.Step(sys, x, c, step)
		xHalf := s.integrator.Step(sys, x, c, step/2)
		x2 := s.integrator.Step(sys, xHalf, c+step/2, step/2)
		if !x2.IsValid() {
			return x, h, ErrInvalidState
		}

		err := x1.Sub(x2).Norm()
		if err > cfg.Tolerance && step > cfg.MinStep {
			stats.Rejected++
			h = step / 2
			continue
		}
		if err > cfg.Tolerance {
			return x, h, ErrStepTooSmall
		}

		stats.Steps++
		stats.LastStep = step
		x = x2
		if step == to-c {
			c = to
		} else {
			c += step
		}
		if err < cfg.Tolerance/10 && h < cfg.MaxStep {
			h = math.Min(h*2, cfg.MaxStep)
		}
	}
	return x, h, nil
}

func (s *Simulator) advanceFixed(sys System, x State, from, to float64, cfg Config, stats *Stats) (State, error) {
	h := (to - from) / float64(cfg.SubSteps)
	c := from
	for k := 0; k < cfg.SubSteps; k++ {
		x = s.integrator.Step(sys, x, c, h)
		if !x.IsValid() {
			return x, ErrInvalidState
		}
		c += h
		stats.Steps++
	}
	stats.LastStep = h
	return x, nil
}
