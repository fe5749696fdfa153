package model_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ecosim/internal/dynamo"
	"github.com/san-kum/ecosim/internal/model"
	"github.com/san-kum/ecosim/internal/perturb"
	"github.com/san-kum/ecosim/internal/response"
)

func zeroPairs() perturb.Set {
	set := make(perturb.Set, perturb.Count)
	for i := range set {
		set[i] = perturb.Pair{0, 0}
	}
	return set
}

func fill(v float64) []float64 {
	return []float64{v, v, v, v, v}
}

func expectBounded(tr *model.Trajectory) {
	Expect(tr.States).To(HaveLen(model.Samples))
	for _, row := range tr.States {
		Expect(row).To(HaveLen(model.Dim))
		for _, v := range row {
			Expect(math.IsNaN(v)).To(BeFalse())
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<=", 1))
		}
	}
}

var _ = Describe("Equations", func() {
	It("references only existing channels and functions", func() {
		for _, eq := range model.Equations {
			for _, ch := range append(append([]int{}, eq.Pos...), eq.Neg...) {
				Expect(ch).To(BeNumerically(">=", 1), eq.Name)
				Expect(ch).To(BeNumerically("<=", perturb.Count), eq.Name)
			}
			for _, f := range append(append([]int{}, eq.PosFactors...), eq.NegFactors...) {
				Expect(f).To(BeNumerically(">=", 1), eq.Name)
				Expect(f).To(BeNumerically("<=", response.Count), eq.Name)
			}
		}
	})

	It("uses sigmoid squashing for the first three indicators and power laws for the rest", func() {
		for i, eq := range model.Equations {
			want := model.Sigmoid
			if i >= 3 {
				want = model.PowerLaw
			}
			Expect(eq.PosNorm.Kind).To(Equal(want), eq.Name)
			Expect(eq.NegNorm.Kind).To(Equal(want), eq.Name)
		}
	})

	It("keeps enterprise losses driven by ten negative channels", func() {
		Expect(model.Equations[4].Neg).To(Equal([]int{2, 3, 4, 6, 7, 8, 9, 10, 13, 14}))
		Expect(model.Equations[4].NegNorm.Divisor).To(Equal(10.0))
	})
})

var _ = Describe("LossModel", func() {
	It("fills defaults for missing bounds, power and scale", func() {
		m := model.New(model.Params{Bounds: []float64{0.5, -1}})
		Expect(m.StateDim()).To(Equal(model.Dim))
		Expect(m.Bounds()).To(Equal([model.Dim]float64{0.5, 1, 1, 1, 1}))
	})

	It("silences every perturbation channel when no pairs are given", func() {
		m := model.New(model.DefaultParams())
		for _, s := range m.Signals(0.7) {
			Expect(s).To(BeZero())
		}
	})

	It("divides each signal by the channel scale", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()
		Expect(model.New(p).Signals(0.3)[0]).To(BeNumerically("~", 0.05, 1e-12))

		p.ChannelScale = 1
		Expect(model.New(p).Signals(0.3)[0]).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("scales rates by the inverse bound", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()
		x := dynamo.State(fill(0.1))

		rawUnit, _ := model.New(p).Rates(x, 0.5)
		p.Bounds = fill(0.5)
		rawHalf, _ := model.New(p).Rates(x, 0.5)

		for i := range rawUnit {
			Expect(rawHalf[i]).To(BeNumerically("~", 2*rawUnit[i], 1e-12))
		}
	})

	It("zeroes rising rates at the ceiling", func() {
		p := model.DefaultParams()
		p.ChannelScale = 1
		p.Perturbations = perturb.Set{{0, 1}, nil, nil, nil, {0, 1}}
		m := model.New(p)

		raw, dx := m.Rates(dynamo.State(fill(1)), 0)
		for i := range raw {
			Expect(raw[i]).To(BeNumerically(">", 0))
			Expect(dx[i]).To(BeZero())
		}
	})

	It("zeroes falling rates at the floor", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()
		dx := model.New(p).Derive(dynamo.State(fill(0)), 0.5)
		for _, v := range dx {
			Expect(v).To(BeNumerically(">=", 0))
		}
	})

	It("leaves callers' inputs untouched", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()
		m := model.New(p)
		p.Perturbations[0][0] = 1
		Expect(m.Signals(0)[0]).To(BeNumerically("~", 0.05, 1e-12))
	})
})

var _ = Describe("Simulate", func() {
	ctx := context.Background()

	It("returns 100 clipped rows on the concentration grid", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()

		tr, err := model.Simulate(ctx, fill(0.1), p)
		Expect(err).NotTo(HaveOccurred())
		expectBounded(tr)
		Expect(tr.Concentration).To(HaveLen(model.Samples))
		Expect(tr.Concentration[0]).To(Equal(0.0))
		Expect(tr.Concentration[model.Samples-1]).To(Equal(1.0))
		Expect(tr.Stats.Steps).To(BeNumerically(">=", model.Samples-1))
	})

	It("starts from the initial values", func() {
		initial := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
		tr, err := model.Simulate(ctx, initial, model.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		Expect([]float64(tr.States[0])).To(Equal(initial))
	})

	It("clips out-of-range initial values in the first row", func() {
		tr, err := model.Simulate(ctx, []float64{1.2, -0.1, 0.5, 0.5, 0.5}, model.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.States[0][0]).To(Equal(1.0))
		Expect(tr.States[0][1]).To(Equal(0.0))
		expectBounded(tr)
	})

	It("is deterministic", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()

		a, err := model.Simulate(ctx, fill(0.1), p)
		Expect(err).NotTo(HaveOccurred())
		b, err := model.Simulate(ctx, fill(0.1), p)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Matrix()).To(Equal(b.Matrix()))
	})

	It("reproduces a run started from its own first row", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()

		first, err := model.Simulate(ctx, []float64{0.1, 0.3, 0.5, 0.2, 0.4}, p)
		Expect(err).NotTo(HaveOccurred())
		again, err := model.Simulate(ctx, first.States[0], p)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Matrix()).To(Equal(first.Matrix()))
	})

	It("keeps health losses rising under neutral perturbations", func() {
		p := model.DefaultParams()
		p.Perturbations = zeroPairs()

		tr, err := model.Simulate(ctx, fill(0.1), p)
		Expect(err).NotTo(HaveOccurred())
		col := tr.Column(0)
		for i := 1; i < len(col); i++ {
			Expect(col[i]).To(BeNumerically(">=", col[i-1]-1e-12))
		}
		Expect(tr.Final()[0]).To(BeNumerically(">", 0.1))
	})

	It("holds a saturated state at the ceiling", func() {
		p := model.DefaultParams()
		p.ChannelScale = 1
		p.Perturbations = perturb.Set{{0, 1}, nil, nil, nil, {0, 1}}

		tr, err := model.Simulate(ctx, fill(1), p)
		Expect(err).NotTo(HaveOccurred())
		for _, row := range tr.States {
			Expect([]float64(row)).To(Equal(fill(1)))
		}
	})

	It("lets the environment indicator fall from the ceiling without perturbations", func() {
		tr, err := model.Simulate(ctx, fill(1), model.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		expectBounded(tr)

		final := tr.Final()
		Expect(final[2]).To(BeNumerically("~", 0.933, 2e-3))
		for _, i := range []int{0, 1, 3, 4} {
			Expect(final[i]).To(Equal(1.0))
		}
	})

	It("never lets an indicator climb noticeably past its bound", func() {
		p := model.DefaultParams()
		p.ChannelScale = 1
		p.Perturbations = perturb.Set{{0, 1}, nil, nil, nil, {0, 1}}
		p.Bounds = fill(0.5)

		tr, err := model.Simulate(ctx, fill(0.45), p)
		Expect(err).NotTo(HaveOccurred())
		for _, row := range tr.States {
			for _, v := range row {
				Expect(v).To(BeNumerically("<=", 0.5+1e-3))
			}
		}
	})

	It("rejects a state of the wrong length", func() {
		_, err := model.Simulate(ctx, []float64{0.1, 0.2}, model.DefaultParams())
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("fails on a non-finite initial state without a partial result", func() {
		tr, err := model.Simulate(ctx, []float64{math.NaN(), 0.1, 0.1, 0.1, 0.1}, model.DefaultParams())
		Expect(tr).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrInvalidState))

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Sample).To(Equal(1))
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := model.Simulate(cctx, fill(0.1), model.DefaultParams())
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
	})

	It("falls back to defaults for malformed function slots", func() {
		p := model.DefaultParams()
		p.Functions = response.Set{{0.5}, nil, {1, 2}}
		tr, err := model.Simulate(ctx, fill(0.2), p)
		Expect(err).NotTo(HaveOccurred())
		expectBounded(tr)

		q := model.DefaultParams()
		ref, err := model.Simulate(ctx, fill(0.2), q)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Matrix()).To(Equal(ref.Matrix()))
	})
})
