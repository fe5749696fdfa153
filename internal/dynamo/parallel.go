package dynamo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run. Integrators and metrics hold per-run state, so
// a Job must not share them with another Job.
type Job struct {
	Name       string
	System     System
	Integrator Integrator
	Initial    State
	Config     Config
	Metrics    []Metric
}

// Batch runs independent jobs concurrently. Each job gets a fresh Simulator and
// a private copy of its initial state, so jobs share nothing. The first failure
// cancels the remaining jobs and no results are returned.
type Batch struct {
	limit int
}

func NewBatch(limit int) *Batch {
	return &Batch{limit: limit}
}

func (b *Batch) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			sim := New(job.System, job.Integrator)
			for _, m := range job.Metrics {
				sim.AddMetric(m)
			}
			res, err := sim.Run(gctx, job.Initial.Clone(), job.Config)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
