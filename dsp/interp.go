package dsp

// Interpolation selects how a wavetable is read between samples.
type Interpolation int

const (
	InterpolationNone Interpolation = iota
	InterpolationLinear
	InterpolationFourthOrder
)

func (m Interpolation) String() string {
	switch m {
	case InterpolationNone:
		return "none"
	case InterpolationLinear:
		return "linear"
	case InterpolationFourthOrder:
		return "fourth-order"
	}
	return "unknown"
}

// ParseInterpolation maps a name to an interpolation mode.
func ParseInterpolation(name string) (Interpolation, bool) {
	switch name {
	case "none", "nearest":
		return InterpolationNone, true
	case "linear":
		return InterpolationLinear, true
	case "fourth-order", "cubic":
		return InterpolationFourthOrder, true
	}
	return InterpolationFourthOrder, false
}

// LagrangeInterpolator provides higher-order fractional interpolation
type LagrangeInterpolator struct {
	order int
}

// NewLagrangeInterpolator creates a new Lagrange interpolator
// order: 1 = linear, 3 = cubic
func NewLagrangeInterpolator(order int) *LagrangeInterpolator {
	return &LagrangeInterpolator{
		order: order,
	}
}

// Interpolate performs Lagrange interpolation.
// For order 3, samples holds 4 points and the result lies between
// samples[1] and samples[2]; for order 1 it lies between samples[0] and samples[1].
func (l *LagrangeInterpolator) Interpolate(samples []float32, frac float32) float32 {
	if l.order == 3 && len(samples) >= 4 {
		return Cubic(samples[0], samples[1], samples[2], samples[3], frac)
	}
	return samples[0] + frac*(samples[1]-samples[0])
}

// Cubic is the 4-point, 3rd-order Lagrange kernel between y0 and y1.
func Cubic(ym1, y0, y1, y2, frac float32) float32 {
	d := frac
	c0 := y0
	c1 := y1 - ym1/3.0 - y0/2.0 - y2/6.0
	c2 := ym1/2.0 - y0 + y1/2.0
	c3 := y0/2.0 - y1/2.0 + (y2-ym1)/6.0

	return c0 + d*(c1+d*(c2+d*c3))
}
