package perturb

// Count is the number of perturbation channels.
const Count = 14

// TimeDriven is the number of leading channels evaluated at the time value.
const TimeDriven = 6

// DefaultScale divides every channel signal after normalisation. The equation
// constants are calibrated for signals in [0, 0.1]; a scale of 1 feeds the raw
// [0,1] values instead.
const DefaultScale = 10.0

// Driver names the variable a channel is evaluated at.
type Driver int

const (
	Time Driver = iota
	Concentration
)

func (d Driver) String() string {
	if d == Time {
		return "t"
	}
	return "C"
}

// Channel describes one perturbation channel.
type Channel struct {
	Index  int
	Name   string
	Driver Driver
	Label  string
}

var Channels = [Count]Channel{
	{1, "x1", Time, "equipment wear"},
	{2, "x2", Time, "credit resources"},
	{3, "x3", Time, "foreign investors"},
	{4, "x4", Time, "product demand"},
	{5, "x5", Time, "hiring difficulty"},
	{6, "x6", Time, "business reputation"},
	{7, "x7", Concentration, "smog level"},
	{8, "x8", Concentration, "wildfire smoke"},
	{9, "x9", Concentration, "summer anticyclone"},
	{10, "x10", Concentration, "winter anticyclone"},
	{11, "x11", Concentration, "road congestion"},
	{12, "x12", Concentration, "large enterprises"},
	{13, "x13", Concentration, "epidemiological situation"},
	{14, "x14", Concentration, "sanctions"},
}

// Pair holds the coefficients of one channel, normally (a, b).
type Pair []float64

// Usable reports whether the pair carries both coefficients.
func (p Pair) Usable() bool {
	return len(p) >= 2
}

// Set is the ordered collection of channel coefficients. It may be shorter
// than Count; missing channels are neutral.
type Set []Pair

// Clone deep-copies the set so callers can keep mutating their input.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for i, p := range s {
		if p != nil {
			out[i] = append(Pair(nil), p...)
		}
	}
	return out
}

// Pair returns the coefficients of channel i (0-based), nil when absent.
func (s Set) Pair(i int) Pair {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// DriverValue picks t or c for channel i (0-based).
func DriverValue(i int, t, c float64) float64 {
	if i < TimeDriven {
		return t
	}
	return c
}

// Signals evaluates all channels. Unusable slots give 0; usable ones give
// Evaluate(v, pair)/scale. A non-positive scale is treated as 1.
func Signals(set Set, t, c, scale float64) [Count]float64 {
	if scale <= 0 {
		scale = 1
	}
	var out [Count]float64
	for i := 0; i < Count; i++ {
		p := set.Pair(i)
		if !p.Usable() {
			continue
		}
		out[i] = Evaluate(DriverValue(i, t, c), p) / scale
	}
	return out
}
