package perturb

// Reading is a channel evaluated at one or two points of its driver.
type Reading struct {
	Channel Channel
	Usable  bool
	At      float64
	Value   float64
	// RawLow and RawHigh are a*v+b at v=0 and v=1 before normalisation.
	RawLow  float64
	RawHigh float64
}

// OutOfRange reports whether the unnormalised driver leaves [0,1] at either
// end of the unit interval.
func (r Reading) OutOfRange() bool {
	if !r.Usable {
		return false
	}
	return r.RawLow < 0 || r.RawLow > 1 || r.RawHigh < 0 || r.RawHigh > 1
}

// Inspect evaluates every channel for display: time channels at t,
// concentration channels at c. Values are not divided by any scale.
func Inspect(set Set, t, c float64) []Reading {
	out := make([]Reading, 0, Count)
	for i := 0; i < Count; i++ {
		p := set.Pair(i)
		v := DriverValue(i, t, c)
		r := Reading{Channel: Channels[i], Usable: p.Usable(), At: v}
		if r.Usable {
			r.Value = Evaluate(v, p)
			r.RawLow = Raw(0, p)
			r.RawHigh = Raw(1, p)
		}
		out = append(out, r)
	}
	return out
}
