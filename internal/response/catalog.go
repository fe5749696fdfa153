package response

// Count is the number of internal response functions.
const Count = 12

// Component indexes the loss state vector.
type Component int

const (
	Cf1 Component = iota
	Cf2
	Cf3
	Cf4
	Cf5
)

func (c Component) String() string {
	return [...]string{"Cf1", "Cf2", "Cf3", "Cf4", "Cf5"}[c]
}

// Function describes one response function.
type Function struct {
	Name     string
	Input    Component
	Form     Form
	Defaults []float64
	Label    string
}

// Arity is the number of coefficients the function consumes.
func (f Function) Arity() int {
	return f.Form.Arity()
}

// Catalog holds f1..f12 in order with their calibrated defaults.
var Catalog = [Count]Function{
	{"f1", Cf3, ExpRatio, []float64{0.5, 0.5}, "environment on morbidity"},
	{"f2", Cf4, Affine, []float64{0.3, 15.0}, "quality of life on morbidity"},
	{"f3", Cf5, Step, []float64{0.3, 0.4, 0.5}, "enterprise losses on morbidity"},
	{"f4", Cf3, Affine, []float64{0.7, 11.0}, "environment on agriculture"},
	{"f5", Cf4, Affine, []float64{0.8, 9.0}, "quality of life on agriculture"},
	{"f6", Cf5, Rational, []float64{0.8, 12.0}, "enterprise on agriculture"},
	{"f7", Cf5, Rational, []float64{0.8, 11.0}, "enterprise on environment"},
	{"f8", Cf1, Affine, []float64{0.7, 13.0}, "morbidity on quality of life"},
	{"f9", Cf2, Logistic, []float64{10.0, 5.0}, "agriculture on quality of life"},
	{"f10", Cf3, Affine, []float64{0.55, 13.0}, "environment on quality of life"},
	{"f11", Cf5, RationalOffset, []float64{0.55, 12.0, 2.0}, "enterprise on quality of life"},
	{"f12", Cf1, Affine, []float64{0.5, 3.0}, "morbidity on enterprise"},
}

// Arities lists the expected coefficient count of every slot.
func Arities() [Count]int {
	var out [Count]int
	for i, fn := range Catalog {
		out[i] = fn.Arity()
	}
	return out
}
