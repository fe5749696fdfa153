package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Clip returns a copy of s with every entry limited to [lo, hi].
func (s State) Clip(lo, hi float64) State {
	result := make(State, len(s))
	for i, v := range s {
		result[i] = math.Max(lo, math.Min(hi, v))
	}
	return result
}

// System is the right-hand side dX/dC = f(X, C).
type System interface {
	Derive(x State, c float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, x State, c, h float64) State
}

// AdaptiveIntegrator performs one trial step and reports the proposed next
// step size and the error ratio (accepted when <= 1).
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, c, h, tol float64) (next State, hNext, errRatio float64)
}

type Metric interface {
	Name() string
	Observe(x State, c float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(i int, x State, c float64)
}

type Config struct {
	Samples       int
	Start         float64
	End           float64
	Tolerance     float64
	InitialStep   float64
	MinStep       float64
	MaxStep       float64
	MaxSteps      int
	SubSteps      int
	Adaptive      bool
	ValidateState bool
	Clip          bool
	ClipMin       float64
	ClipMax       float64
}

func DefaultConfig() Config {
	return Config{
		Samples:       100,
		Start:         0.0,
		End:           1.0,
		Tolerance:     1e-6,
		InitialStep:   1e-3,
		MinStep:       1e-12,
		MaxStep:       0.05,
		MaxSteps:      200000,
		SubSteps:      10,
		Adaptive:      true,
		ValidateState: true,
		Clip:          true,
		ClipMin:       0.0,
		ClipMax:       1.0,
	}
}

// Stats counts solver work for one run.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
	LastStep    float64
}

type Result struct {
	Samples []float64
	States  []State
	Metrics map[string]float64
	Stats   Stats
}

// Final returns the last row of the result, or nil when empty.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Column extracts component i across all samples.
func (r *Result) Column(i int) []float64 {
	col := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			col[k] = s[i]
		}
	}
	return col
}

// Linspace returns n evenly spaced points in [start, end], inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	pts := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range pts {
		pts[i] = start + float64(i)*step
	}
	pts[n-1] = end
	return pts
}
