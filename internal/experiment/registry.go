package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/integrators"
	"github.com/san-kum/ecosim/internal/metrics"
	"github.com/san-kum/ecosim/internal/model"
)

// fixedSubSteps is how many equal steps the fixed-step integrators take
// between two concentration samples.
const fixedSubSteps = 20

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SolverConfig is the grid configuration for integ. Steppers
// with an embedded error estimate run adaptively; the others take fixed
// sub-steps.
func (r *Registry) SolverConfig(integ dynamo.Integrator, tolerance float64) dynamo.Config {
	cfg := model.SimConfig()
	if tolerance > 0 {
		cfg.Tolerance = tolerance
	}
	if _, ok := integ.(dynamo.AdaptiveIntegrator); !ok {
		cfg.Adaptive = false
		cfg.SubSteps = fixedSubSteps
	}
	return cfg
}

// DefaultMetrics are the metrics recorded with every run of cfg.
func (r *Registry) DefaultMetrics(cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewFinalLoss(cfg.Weights),
		metrics.NewMeanLoss(cfg.Weights),
		metrics.NewExceedance(cfg.Restrictions),
		metrics.NewSaturation(cfg.Bounds, model.Epsilon),
	}
}
