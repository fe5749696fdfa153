package response

// Slot is the caller-supplied coefficients for one function. A nil or short
// slot falls back to the function defaults.
type Slot []float64

// Set is the ordered collection of slots for f1..f12. It may be shorter than
// Count.
type Set []Slot

// Clone deep-copies the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for i, sl := range s {
		if sl != nil {
			out[i] = append(Slot(nil), sl...)
		}
	}
	return out
}

// Params are the coefficients a function is evaluated with.
type Params struct {
	Values    []float64
	Defaulted bool
}

// Resolve picks the coefficients for function i (0-based): the caller slot
// truncated to the function arity when long enough, the defaults otherwise.
func Resolve(i int, set Set) Params {
	fn := Catalog[i]
	if i < len(set) && len(set[i]) >= fn.Arity() {
		return Params{Values: append([]float64(nil), set[i][:fn.Arity()]...)}
	}
	return Params{Values: append([]float64(nil), fn.Defaults...), Defaulted: true}
}

// Resolved is the parameter table for all functions.
type Resolved [Count]Params

// ResolveAll resolves every slot once so the derivative model does not repeat
// the work on each evaluation.
func ResolveAll(set Set) Resolved {
	var r Resolved
	for i := range Catalog {
		r[i] = Resolve(i, set)
	}
	return r
}

// Defaulted lists the names of functions running on default coefficients.
func (r Resolved) Defaulted() []string {
	var names []string
	for i, p := range r {
		if p.Defaulted {
			names = append(names, Catalog[i].Name)
		}
	}
	return names
}
