package metrics

import "github.com/san-kum/ecosim/internal/dynamo"

// Exceedance is the share of samples in which at least one indicator is above
// its restriction target. Restrictions never feed back into the model.
type Exceedance struct {
	name       string
	limits     []float64
	violations int
	samples    int
	first      float64
}

func NewExceedance(limits []float64) *Exceedance {
	return &Exceedance{
		name:   "exceedance",
		limits: append([]float64(nil), limits...),
		first:  -1,
	}
}

func (e *Exceedance) Name() string {
	return e.name
}

func (e *Exceedance) Observe(x dynamo.State, c float64) {
	e.samples++
	n := min(len(x), len(e.limits))
	for i := 0; i < n; i++ {
		if x[i] > e.limits[i] {
			e.violations++
			if e.first < 0 {
				e.first = c
			}
			break
		}
	}
}

func (e *Exceedance) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return float64(e.violations) / float64(e.samples)
}

// First is the lowest concentration with an exceedance, or -1.
func (e *Exceedance) First() float64 {
	return e.first
}

func (e *Exceedance) Reset() {
	e.violations = 0
	e.samples = 0
	e.first = -1
}
