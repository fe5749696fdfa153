package model

import (
	"math"

	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/response"
)

const (
	// Epsilon is the saturation margin around the bounds.
	Epsilon = 1e-4

	DefaultPower = 0.55
	DefaultBound = 1.0
)

// Params are the per-request model inputs.
type Params struct {
	Perturbations perturb.Set
	Functions     response.Set
	// Bounds are the per-indicator ceilings xm. Missing or non-positive
	// entries use DefaultBound.
	Bounds []float64
	Time   float64
	// Power is the power-law exponent; non-positive means DefaultPower.
	Power float64
	// ChannelScale divides every perturbation signal; non-positive means
	// perturb.DefaultScale.
	ChannelScale float64
}

func DefaultParams() Params {
	return Params{
		Bounds:       []float64{DefaultBound, DefaultBound, DefaultBound, DefaultBound, DefaultBound},
		Power:        DefaultPower,
		ChannelScale: perturb.DefaultScale,
	}
}

// Clone deep-copies the coefficient collections.
func (p Params) Clone() Params {
	c := p
	c.Perturbations = p.Perturbations.Clone()
	c.Functions = p.Functions.Clone()
	if p.Bounds != nil {
		c.Bounds = append([]float64(nil), p.Bounds...)
	}
	return c
}

// LossModel is the right-hand side of the five coupled loss equations.
// It is immutable after New and safe for concurrent Derive calls.
type LossModel struct {
	perturbations perturb.Set
	functions     response.Resolved
	bounds        [Dim]float64
	time          float64
	power         float64
	scale         float64
}

func New(p Params) *LossModel {
	m := &LossModel{
		perturbations: p.Perturbations.Clone(),
		functions:     response.ResolveAll(p.Functions),
		time:          p.Time,
		power:         p.Power,
		scale:         p.ChannelScale,
	}
	if m.power <= 0 {
		m.power = DefaultPower
	}
	if m.scale <= 0 {
		m.scale = perturb.DefaultScale
	}
	for i := range m.bounds {
		m.bounds[i] = DefaultBound
		if i < len(p.Bounds) && p.Bounds[i] > 0 {
			m.bounds[i] = p.Bounds[i]
		}
	}
	return m
}

func (m *LossModel) StateDim() int { return Dim }

// Bounds returns the effective ceilings xm.
func (m *LossModel) Bounds() [Dim]float64 { return m.bounds }

// Perturbations returns the model's copy of the channel coefficients.
func (m *LossModel) Perturbations() perturb.Set { return m.perturbations.Clone() }

// Functions returns the resolved response-function coefficients.
func (m *LossModel) Functions() response.Resolved { return m.functions }

// Signals evaluates the fourteen perturbation channels at concentration c.
func (m *LossModel) Signals(c float64) [perturb.Count]float64 {
	return perturb.Signals(m.perturbations, m.time, c, m.scale)
}

// Breakdown returns the per-equation terms at (x, c). x must have Dim entries.
func (m *LossModel) Breakdown(x dynamo.State, c float64) [Dim]Terms {
	sig := m.Signals(c)
	f := response.Evaluate(x, &m.functions)
	fv := [response.Count]float64(f)

	var out [Dim]Terms
	for i := range Equations {
		out[i] = Equations[i].terms(&sig, &fv, m.power)
	}
	return out
}

// Rates returns the derivative before and after saturation.
func (m *LossModel) Rates(x dynamo.State, c float64) (raw, clamped dynamo.State) {
	terms := m.Breakdown(x, c)
	raw = make(dynamo.State, Dim)
	clamped = make(dynamo.State, Dim)
	for i, t := range terms {
		raw[i] = (1 / m.bounds[i]) * t.Net()
		clamped[i] = saturate(x[i], raw[i], m.bounds[i])
	}
	return raw, clamped
}

func (m *LossModel) Derive(x dynamo.State, c float64) dynamo.State {
	_, dx := m.Rates(x, c)
	return dx
}

// saturate zeroes a rate that would push x past its ceiling min(bound, 1) or
// below zero, each within Epsilon. It is evaluated on the unclipped state.
func saturate(x, rate, bound float64) float64 {
	ceiling := math.Min(bound, 1)
	if rate > 0 && x >= ceiling-Epsilon {
		return 0
	}
	if rate < 0 && x <= Epsilon {
		return 0
	}
	return rate
}
