package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ecosim/internal/config"
	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/experiment"
)

// Scenario is a scripted batch of runs. Every step starts from the preset
// named by the scenario (or the defaults) and overrides the fields it sets.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Preset      string      `yaml:"preset"`
	Parallel    int         `yaml:"parallel"`
	Steps       []yaml.Node `yaml:"steps"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

func (s *Scenario) base() (*config.Config, error) {
	if s.Preset == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", s.Preset)
	}
	return cfg, nil
}

// Configs resolves every step into a full scenario config.
func (s *Scenario) Configs() ([]*config.Config, error) {
	configs := make([]*config.Config, 0, len(s.Steps))
	for i := range s.Steps {
		cfg, err := s.base()
		if err != nil {
			return nil, err
		}
		if err := s.Steps[i].Decode(cfg); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if cfg.Name == "" || cfg.Name == s.Preset {
			cfg.Name = fmt.Sprintf("%s-%d", s.Name, i+1)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// RunScenario executes all steps of a scenario, s.Parallel at a time.
func RunScenario(ctx context.Context, s *Scenario, registry *experiment.Registry, logger *slog.Logger) ([]*experiment.Outcome, error) {
	configs, err := s.Configs()
	if err != nil {
		return nil, err
	}

	exps := make([]*experiment.Experiment, len(configs))
	for i, cfg := range configs {
		exps[i] = experiment.New(cfg, registry, logger)
	}

	logger.Info("running scenario", "name", s.Name, "steps", len(exps), "parallel", s.Parallel)
	return experiment.RunAll(ctx, exps, s.Parallel)
}

// Sweepable names the scalar scenario fields a sweep can vary.
var Sweepable = map[string]func(*config.Config, float64){
	"time":          func(c *config.Config, v float64) { c.Time = v },
	"power":         func(c *config.Config, v float64) { c.Power = v },
	"channel_scale": func(c *config.Config, v float64) { c.ChannelScale = v },
	"initial": func(c *config.Config, v float64) {
		for i := range c.Initial {
			c.Initial[i] = v
		}
	},
}

// ParameterSweep runs one scenario across evenly spaced values of a field.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Parallel  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	TotalLoss  float64
	MeanLoss   float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	set, ok := Sweepable[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("parameter %s cannot be swept", sweep.ParamName)
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}

	values := dynamo.Linspace(sweep.ParamMin, sweep.ParamMax, sweep.NumSteps)
	exps := make([]*experiment.Experiment, len(values))
	for i, v := range values {
		cfg := sweep.Base.Clone()
		set(cfg, v)
		cfg.Name = fmt.Sprintf("%s=%.4g", sweep.ParamName, v)
		exps[i] = experiment.New(cfg, registry, logger)
	}

	outcomes, err := experiment.RunAll(ctx, exps, sweep.Parallel)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(outcomes))
	for i, out := range outcomes {
		results[i] = SweepResult{
			ParamValue: values[i],
			FinalState: out.Trajectory.Final(),
			TotalLoss:  out.TotalLoss,
			MeanLoss:   out.Trajectory.Metrics["mean_loss"],
		}
	}

	logger.Info("sweep complete", "param", sweep.ParamName, "steps", len(results))
	return results, nil
}

// MonteCarloConfig jitters the initial indicators of a base scenario.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Parallel     int
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	TotalLoss  float64
	// Exceeded is true when the final row is above a restriction target.
	Exceeded bool
}

// RunMonteCarlo executes trials with uniformly perturbed initial values,
// clipped to [0,1].
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, logger *slog.Logger) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	exps := make([]*experiment.Experiment, cfg.NumTrials)
	for trial := range exps {
		c := cfg.Base.Clone()
		for i, v := range c.Initial {
			c.Initial[i] = math.Max(0, math.Min(1, v+(rng.Float64()-0.5)*2*cfg.Perturbation))
		}
		c.Name = fmt.Sprintf("trial-%d", trial)
		exps[trial] = experiment.New(c, registry, logger)
	}

	outcomes, err := experiment.RunAll(ctx, exps, cfg.Parallel)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(outcomes))
	for i, out := range outcomes {
		last := out.Profiles[len(out.Profiles)-1]
		results[i] = MonteCarloResult{
			TrialID:    i,
			InitState:  dynamo.State(out.Config.Initial).Clone(),
			FinalState: out.Trajectory.Final(),
			TotalLoss:  out.TotalLoss,
			Exceeded:   last.Over(),
		}
	}

	logger.Info("monte carlo complete", "trials", len(results))
	return results, nil
}

// MonteCarloStats summarises trials: how many ended above a restriction, and
// the mean and worst total loss.
func MonteCarloStats(results []MonteCarloResult) (exceeded int, meanLoss, maxLoss float64) {
	if len(results) == 0 {
		return 0, 0, 0
	}
	for _, r := range results {
		if r.Exceeded {
			exceeded++
		}
		meanLoss += r.TotalLoss
		maxLoss = math.Max(maxLoss, r.TotalLoss)
	}
	meanLoss /= float64(len(results))
	return
}
