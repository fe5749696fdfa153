package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/metrics"
	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/response"
)

// Outcome is a finished run together with the scenario it came from.
type Outcome struct {
	Config     *config.Config
	Trajectory *model.Trajectory
	TotalLoss  float64
	Profiles   []Profile
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	log      *slog.Logger
}

// New prepares a run of cfg. The scenario is copied, so later edits by the
// caller do not leak into the run.
func New(cfg *config.Config, registry *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "scenario"
	}
	return &Experiment{
		cfg:      cfg.Clone(),
		registry: registry,
		log:      logger.With("scenario", name),
	}
}

// Config returns the scenario copy the experiment runs.
func (e *Experiment) Config() *config.Config { return e.cfg }

// Job validates the scenario and assembles an independent simulator job.
func (e *Experiment) Job() (dynamo.Job, error) {
	if err := e.cfg.Validate(); err != nil {
		return dynamo.Job{}, err
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return dynamo.Job{}, err
	}

	m := model.New(e.cfg.Params())
	e.logInputs(m)

	return dynamo.Job{
		Name:       e.cfg.Name,
		System:     m,
		Integrator: integ,
		Initial:    dynamo.State(e.cfg.Initial).Clone(),
		Config:     e.registry.SolverConfig(integ, e.cfg.Tolerance),
		Metrics:    e.registry.DefaultMetrics(e.cfg),
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	job, err := e.Job()
	if err != nil {
		return nil, err
	}

	sim := dynamo.New(job.System, job.Integrator)
	for _, m := range job.Metrics {
		sim.AddMetric(m)
	}

	res, err := sim.Run(ctx, job.Initial, job.Config)
	if err != nil {
		e.log.Error("integration failed", "err", err)
		return nil, fmt.Errorf("integrate: %w", err)
	}

	return e.Finish(res), nil
}

// Finish wraps a simulator result for this experiment and logs the summary.
func (e *Experiment) Finish(res *dynamo.Result) *Outcome {
	tr := model.FromResult(res)
	out := &Outcome{
		Config:     e.cfg,
		Trajectory: tr,
		TotalLoss:  metrics.TotalLoss(tr.Final(), e.cfg.Weights),
		Profiles:   Profiles(tr, e.cfg.Initial, e.cfg.Restrictions),
	}

	e.log.Info("run complete",
		"samples", len(tr.States),
		"time", e.cfg.Time,
		"integrator", e.cfg.Integrator,
		"steps", tr.Stats.Steps,
		"rejected", tr.Stats.Rejected,
	)
	e.log.Info("indicators", "initial", e.cfg.Initial, "final", []float64(tr.Final()), "total_loss", out.TotalLoss)

	return out
}

// logInputs reports the resolved model inputs. Scenarios reaching Job have
// passed Validate, so defaulted functions only show up when logInputs is
// given a model built from a lenient library call.
func (e *Experiment) logInputs(m *model.LossModel) {
	resolved := m.Functions()
	for i, p := range resolved {
		e.log.Debug("internal function", "name", response.Catalog[i].Name, "coeffs", p.Values, "defaulted", p.Defaulted)
	}
	if names := resolved.Defaulted(); len(names) > 0 {
		e.log.Warn("malformed coefficients replaced by defaults", "functions", names)
	}

	for _, r := range perturb.Inspect(m.Perturbations(), e.cfg.Time, 0) {
		if r.Channel.Driver == perturb.Time && r.Usable {
			e.log.Debug("time-driven perturbation", "channel", r.Channel.Name, "t", r.At, "value", r.Value)
		}
		if r.OutOfRange() {
			e.log.Warn("perturbation leaves [0,1] before normalisation",
				"channel", r.Channel.Name,
				"at_0", r.RawLow,
				"at_1", r.RawHigh,
			)
		}
	}
}

// RunAll runs independent experiments concurrently, at most limit at a time
// (no limit when limit <= 0). The first failure cancels the rest.
func RunAll(ctx context.Context, exps []*Experiment, limit int) ([]*Outcome, error) {
	jobs := make([]dynamo.Job, len(exps))
	for i, e := range exps {
		job, err := e.Job()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.cfg.Name, err)
		}
		jobs[i] = job
	}

	results, err := dynamo.NewBatch(limit).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*Outcome, len(results))
	for i, res := range results {
		outcomes[i] = exps[i].Finish(res)
	}
	return outcomes, nil
}
