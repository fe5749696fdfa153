package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/response"
)

const (
	DefaultInitial     = 0.1
	DefaultRestriction = 0.5
	DefaultTolerance   = 1e-6
	DefaultIntegrator  = "rk45"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid scenario")

// Config is one scenario: the inputs of a single loss simulation.
type Config struct {
	Name          string      `yaml:"name,omitempty"`
	Initial       []float64   `yaml:"initial"`
	Restrictions  []float64   `yaml:"restrictions"`
	Perturbations [][]float64 `yaml:"perturbations"`
	Functions     [][]float64 `yaml:"functions"`
	Bounds        []float64   `yaml:"bounds"`
	Time          float64     `yaml:"time"`
	Power         float64     `yaml:"power"`
	ChannelScale  float64     `yaml:"channel_scale"`
	Weights       []float64   `yaml:"weights,omitempty"`
	Integrator    string      `yaml:"integrator"`
	Tolerance     float64     `yaml:"tolerance"`
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// DefaultConfig has neutral perturbations (every pair [0, 0]) and the
// documented function defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Initial:       filled(model.Dim, DefaultInitial),
		Restrictions:  filled(model.Dim, DefaultRestriction),
		Perturbations: make([][]float64, perturb.Count),
		Functions:     make([][]float64, response.Count),
		Bounds:        filled(model.Dim, model.DefaultBound),
		Power:         model.DefaultPower,
		ChannelScale:  perturb.DefaultScale,
		Integrator:    DefaultIntegrator,
		Tolerance:     DefaultTolerance,
	}
	for i := range cfg.Perturbations {
		cfg.Perturbations[i] = []float64{0, 0}
	}
	for i, fn := range response.Catalog {
		cfg.Functions[i] = append([]float64(nil), fn.Defaults...)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML scenario on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone deep-copies the config.
func (c *Config) Clone() *Config {
	out := *c
	out.Initial = cloneFloats(c.Initial)
	out.Restrictions = cloneFloats(c.Restrictions)
	out.Bounds = cloneFloats(c.Bounds)
	out.Weights = cloneFloats(c.Weights)
	out.Perturbations = cloneRows(c.Perturbations)
	out.Functions = cloneRows(c.Functions)
	return &out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneRows(rows [][]float64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = cloneFloats(r)
	}
	return out
}

// Validate applies the input checks of the web form: five initial values and
// five restrictions in [0,1], fourteen pairs of two coefficients, and twelve
// function slots matching the arity table. The model itself is more lenient;
// this is the gate in front of it.
func (c *Config) Validate() error {
	if err := unitVector("initial value", c.Initial); err != nil {
		return err
	}
	if err := unitVector("restriction", c.Restrictions); err != nil {
		return err
	}

	if len(c.Perturbations) != perturb.Count {
		return fmt.Errorf("%w: need %d perturbations, got %d", ErrInvalid, perturb.Count, len(c.Perturbations))
	}
	for i, p := range c.Perturbations {
		if len(p) != 2 {
			return fmt.Errorf("%w: perturbation x%d needs 2 coefficients (a, b), got %d", ErrInvalid, i+1, len(p))
		}
		if !allFinite(p) {
			return fmt.Errorf("%w: perturbation x%d has a non-finite coefficient", ErrInvalid, i+1)
		}
	}

	if len(c.Functions) != response.Count {
		return fmt.Errorf("%w: need %d internal functions, got %d", ErrInvalid, response.Count, len(c.Functions))
	}
	arities := response.Arities()
	for i, f := range c.Functions {
		if len(f) != arities[i] {
			return fmt.Errorf("%w: function f%d needs %d coefficients, got %d", ErrInvalid, i+1, arities[i], len(f))
		}
		if !allFinite(f) {
			return fmt.Errorf("%w: function f%d has a non-finite coefficient", ErrInvalid, i+1)
		}
	}

	if len(c.Bounds) != 0 && len(c.Bounds) != model.Dim {
		return fmt.Errorf("%w: need %d bounds, got %d", ErrInvalid, model.Dim, len(c.Bounds))
	}
	for i, b := range c.Bounds {
		if !(b > 0) || math.IsInf(b, 0) {
			return fmt.Errorf("%w: bound xm%d must be positive, got %v", ErrInvalid, i+1, b)
		}
	}

	if c.Weights != nil {
		if len(c.Weights) != model.Dim {
			return fmt.Errorf("%w: need %d weights, got %d", ErrInvalid, model.Dim, len(c.Weights))
		}
		for i, w := range c.Weights {
			if !(w >= 0) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: weight %d must be non-negative, got %v", ErrInvalid, i+1, w)
			}
		}
	}

	if math.IsNaN(c.Time) || math.IsInf(c.Time, 0) {
		return fmt.Errorf("%w: time must be finite", ErrInvalid)
	}
	if c.Power < 0 || math.IsNaN(c.Power) {
		return fmt.Errorf("%w: power must be non-negative, got %v", ErrInvalid, c.Power)
	}
	if c.ChannelScale < 0 || math.IsNaN(c.ChannelScale) {
		return fmt.Errorf("%w: channel scale must be non-negative, got %v", ErrInvalid, c.ChannelScale)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("%w: tolerance must be non-negative, got %v", ErrInvalid, c.Tolerance)
	}
	return nil
}

func unitVector(what string, v []float64) error {
	if len(v) != model.Dim {
		return fmt.Errorf("%w: need %d %ss, got %d", ErrInvalid, model.Dim, what, len(v))
	}
	for i, x := range v {
		if !(x >= 0 && x <= 1) {
			return fmt.Errorf("%w: %s Cf%d must be in [0, 1], got %v", ErrInvalid, what, i+1, x)
		}
	}
	return nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Params converts the scenario into model inputs.
func (c *Config) Params() model.Params {
	p := model.Params{
		Perturbations: make(perturb.Set, len(c.Perturbations)),
		Functions:     make(response.Set, len(c.Functions)),
		Bounds:        cloneFloats(c.Bounds),
		Time:          c.Time,
		Power:         c.Power,
		ChannelScale:  c.ChannelScale,
	}
	for i, pair := range c.Perturbations {
		p.Perturbations[i] = perturb.Pair(cloneFloats(pair))
	}
	for i, slot := range c.Functions {
		p.Functions[i] = response.Slot(cloneFloats(slot))
	}
	return p
}
