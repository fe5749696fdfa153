package metrics

import (
	"math"

	"github.com/san-kum/ecosim/internal/dynamo"
)

// DefaultWeights is the uniform weighting of the five indicators.
var DefaultWeights = []float64{0.2, 0.2, 0.2, 0.2, 0.2}

// TotalLoss is the weighted sum of indicator values, clamped to [0,1].
// Nil weights mean DefaultWeights. Only the common prefix of values and
// weights contributes.
func TotalLoss(values, weights []float64) float64 {
	if weights == nil {
		weights = DefaultWeights
	}
	n := min(len(values), len(weights))
	total := 0.0
	for i := 0; i < n; i++ {
		total += values[i] * weights[i]
	}
	if math.IsNaN(total) {
		return 0
	}
	return math.Max(0, math.Min(1, total))
}

// FinalLoss records the total loss of the last observed row, i.e. at full
// concentration once a run completes.
type FinalLoss struct {
	name    string
	weights []float64
	last    float64
}

func NewFinalLoss(weights []float64) *FinalLoss {
	return &FinalLoss{
		name:    "final_loss",
		weights: weights,
	}
}

func (f *FinalLoss) Name() string { return f.name }

func (f *FinalLoss) Observe(x dynamo.State, c float64) {
	f.last = TotalLoss(x, f.weights)
}

func (f *FinalLoss) Value() float64 { return f.last }

func (f *FinalLoss) Reset() { f.last = 0 }

// MeanLoss averages the total loss over every sample of the concentration
// grid.
type MeanLoss struct {
	name    string
	weights []float64
	sum     float64
	samples int
}

func NewMeanLoss(weights []float64) *MeanLoss {
	return &MeanLoss{
		name:    "mean_loss",
		weights: weights,
	}
}

func (m *MeanLoss) Name() string { return m.name }

func (m *MeanLoss) Observe(x dynamo.State, c float64) {
	m.sum += TotalLoss(x, m.weights)
	m.samples++
}

func (m *MeanLoss) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanLoss) Reset() {
	m.sum = 0
	m.samples = 0
}
