package metrics

import (
	"math"

	"github.com/san-kum/ecosim/internal/dynamo"
)

// Saturation counts the samples in which some indicator has reached its
// ceiling within tol.
type Saturation struct {
	name      string
	ceilings  []float64
	tol       float64
	saturated int
}

func NewSaturation(ceilings []float64, tol float64) *Saturation {
	return &Saturation{
		name:     "saturated_samples",
		ceilings: append([]float64(nil), ceilings...),
		tol:      tol,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(x dynamo.State, c float64) {
	for i, v := range x {
		ceiling := 1.0
		if i < len(s.ceilings) && s.ceilings[i] > 0 {
			ceiling = math.Min(s.ceilings[i], 1)
		}
		if v >= ceiling-s.tol {
			s.saturated++
			return
		}
	}
}

func (s *Saturation) Value() float64 {
	return float64(s.saturated)
}

func (s *Saturation) Reset() {
	s.saturated = 0
}
