package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process).
// Coefficients can be replaced while keeping the filter history, so a
// modulated cutoff does not click.
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// SetCoefficients replaces the coefficients and keeps the history.
func (b *Biquad) SetCoefficients(c Coefficients) {
	b.b0, b.b1, b.b2 = c.B0, c.B1, c.B2
	b.a1, b.a2 = c.A1, c.A2
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = FlushDenormals(output)

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// Coefficients are normalized biquad coefficients (a0 = 1).
type Coefficients struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// LowpassCoefficients designs a resonant RBJ low-pass. resonanceDB is the
// resonance peak height in decibels; 0 dB gives a Butterworth response.
func LowpassCoefficients(cutoff, sampleRate, resonanceDB float64) Coefficients {
	nyquist := 0.5 * sampleRate
	if cutoff > nyquist*0.98 {
		cutoff = nyquist * 0.98
	}
	if cutoff < 10 {
		cutoff = 10
	}
	q := math.Pow(10, resonanceDB/20) / math.Sqrt2
	if q < 0.5 {
		q = 0.5
	}

	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	// DC gain drops by half the resonance height.
	gain := 1.0
	if resonanceDB > 0 {
		gain = math.Pow(10, -resonanceDB/40)
	}

	b0 := (1.0 - cosw0) / 2.0 * gain
	b1 := (1.0 - cosw0) * gain
	b2 := (1.0 - cosw0) / 2.0 * gain
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	return Coefficients{
		B0: float32(b0 / a0),
		B1: float32(b1 / a0),
		B2: float32(b2 / a0),
		A1: float32(a1 / a0),
		A2: float32(a2 / a0),
	}
}

// NewLowpass creates a lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	resonanceDB := 20 * math.Log10(float64(q)*math.Sqrt2)
	b := &Biquad{}
	b.SetCoefficients(LowpassCoefficients(float64(cutoff), float64(sampleRate), resonanceDB))
	return b
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	return float32(dspcore.FlushDenormals(float64(x)))
}
