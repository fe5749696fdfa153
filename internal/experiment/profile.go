package experiment

import "github.com/san-kum/ecosim/internal/model"

// Profile is the indicator vector at one concentration checkpoint, shown
// against the initial values and the restriction targets.
type Profile struct {
	Index        int
	C            float64
	Values       []float64
	Initial      []float64
	Restrictions []float64
	Exceeds      []bool
}

// Over reports whether any indicator is above its restriction.
func (p Profile) Over() bool {
	for _, e := range p.Exceeds {
		if e {
			return true
		}
	}
	return false
}

// ProfileIndices are the checkpoint rows for n samples: 0, n/4, n/2, 3n/4
// and the last one.
func ProfileIndices(n int) []int {
	if n <= 0 {
		return nil
	}
	return []int{0, n / 4, n / 2, 3 * n / 4, n - 1}
}

// Profiles builds the checkpoints of tr. Initial values and restrictions are
// clipped to [0,1] for display.
func Profiles(tr *model.Trajectory, initial, restrictions []float64) []Profile {
	init := clipped(initial)
	limits := clipped(restrictions)

	idx := ProfileIndices(len(tr.States))
	out := make([]Profile, 0, len(idx))
	for _, i := range idx {
		row := append([]float64(nil), tr.States[i]...)
		p := Profile{
			Index:        i,
			C:            tr.Concentration[i],
			Values:       row,
			Initial:      init,
			Restrictions: limits,
			Exceeds:      make([]bool, len(row)),
		}
		for k, v := range row {
			p.Exceeds[k] = k < len(limits) && v > limits[k]
		}
		out = append(out, p)
	}
	return out
}

func clipped(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = min(max(x, 0), 1)
	}
	return out
}
