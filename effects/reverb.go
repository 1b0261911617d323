// Package effects processes the engine's reverb and chorus send buses and
// mixes them with the dry channel outputs.
package effects

import (
	"errors"
	"math"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
)

// DefaultPartSize is the convolution partition length. It is also the
// reverb latency in samples.
const DefaultPartSize = 128

const butterworthQ = 0.7071067811865476

var ErrEmptyIR = errors.New("impulse response is empty")

// Reverb is a stereo partitioned convolution reverb. Input of any length is
// streamed through a partition-sized FIFO, so the wet signal is delayed by
// exactly Latency() samples regardless of the caller's block size.
type Reverb struct {
	sampleRate int
	partSize   int
	irLen      int

	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]

	inL, inR   []float32
	outL, outR []float32
	pos        int

	dampHz float64
	dampL  *biquad.Section
	dampR  *biquad.Section
}

// NewReverb creates a reverb with a unit impulse (pass-through after the
// partition latency).
func NewReverb(sampleRate int) *Reverb {
	r := &Reverb{
		sampleRate: sampleRate,
		partSize:   DefaultPartSize,
		inL:        make([]float32, DefaultPartSize),
		inR:        make([]float32, DefaultPartSize),
		outL:       make([]float32, DefaultPartSize),
		outR:       make([]float32, DefaultPartSize),
	}
	_ = r.SetIR([]float32{1.0}, []float32{1.0})
	r.SetDamping(0)
	return r
}

// Latency returns the wet path delay in samples.
func (r *Reverb) Latency() int { return r.partSize }

// IRLength returns the longer of the two impulse responses.
func (r *Reverb) IRLength() int { return r.irLen }

// SetIR configures left/right impulse responses. An empty side reuses the
// other one.
func (r *Reverb) SetIR(leftIR []float32, rightIR []float32) error {
	if len(leftIR) == 0 && len(rightIR) == 0 {
		return ErrEmptyIR
	}
	if len(leftIR) == 0 {
		leftIR = rightIR
	}
	if len(rightIR) == 0 {
		rightIR = leftIR
	}

	leftOLA, err := dspconv.NewStreamingOverlapAdd32(leftIR, r.partSize)
	if err != nil {
		return err
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(rightIR, r.partSize)
	if err != nil {
		return err
	}
	r.leftOLA = leftOLA
	r.rightOLA = rightOLA
	r.irLen = max(len(leftIR), len(rightIR))
	r.Reset()
	return nil
}

// SetIRFromWAV loads a mono/stereo IR from WAV and resamples it to the
// reverb rate.
func (r *Reverb) SetIRFromWAV(path string) error {
	left, right, srcRate, err := wavio.ReadStereo(path)
	if err != nil {
		return err
	}
	left, err = wavio.Resample32(left, srcRate, r.sampleRate)
	if err != nil {
		return err
	}
	right, err = wavio.Resample32(right, srcRate, r.sampleRate)
	if err != nil {
		return err
	}
	return r.SetIR(left, right)
}

// SetDamping installs a low-pass on the wet return. hz <= 0 or above 0.45 of
// the sample rate disables it.
func (r *Reverb) SetDamping(hz float64) {
	r.dampHz = hz
	c := lowpassCoefficients(hz, float64(r.sampleRate))
	r.dampL = biquad.NewSection(c)
	r.dampR = biquad.NewSection(c)
}

// Damping returns the wet return low-pass cutoff, 0 when disabled.
func (r *Reverb) Damping() float64 { return r.dampHz }

// Process convolves inL/inR and adds the wet signal scaled by gain into
// outL/outR. All four slices must have the same length.
func (r *Reverb) Process(inL, inR, outL, outR []float32, gain float32) {
	n := min(len(inL), len(inR), len(outL), len(outR))
	for i := 0; i < n; i++ {
		wl := float32(r.dampL.ProcessSample(float64(r.outL[r.pos])))
		wr := float32(r.dampR.ProcessSample(float64(r.outR[r.pos])))
		outL[i] += gain * wl
		outR[i] += gain * wr

		r.inL[r.pos] = inL[i]
		r.inR[r.pos] = inR[i]
		r.pos++
		if r.pos == r.partSize {
			r.pos = 0
			errL := r.leftOLA.ProcessBlockTo(r.outL, r.inL)
			errR := r.rightOLA.ProcessBlockTo(r.outR, r.inR)
			if errL != nil || errR != nil {
				// Pass the dry block through rather than emitting stale output.
				copy(r.outL, r.inL)
				copy(r.outR, r.inR)
			}
		}
	}
}

// Reset clears convolver history, the FIFOs and the damping state.
func (r *Reverb) Reset() {
	if r.leftOLA != nil {
		r.leftOLA.Reset()
	}
	if r.rightOLA != nil {
		r.rightOLA.Reset()
	}
	clear(r.inL)
	clear(r.inR)
	clear(r.outL)
	clear(r.outR)
	r.pos = 0
	if r.dampL != nil {
		r.dampL.Reset()
		r.dampR.Reset()
	}
}

// lowpassCoefficients builds a Butterworth RBJ low-pass. Out of range cutoffs
// yield a pass-through section.
func lowpassCoefficients(cutoff, sampleRate float64) biquad.Coefficients {
	if cutoff <= 0 || sampleRate <= 0 || cutoff >= 0.45*sampleRate {
		return biquad.Coefficients{B0: 1}
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	inv := 1.0 / (1 + alpha)
	return biquad.Coefficients{
		B0: ((1 - cw) * 0.5) * inv,
		B1: (1 - cw) * inv,
		B2: ((1 - cw) * 0.5) * inv,
		A1: (-2 * cw) * inv,
		A2: (1 - alpha) * inv,
	}
}

// highpassCoefficients builds a Butterworth RBJ high-pass.
func highpassCoefficients(cutoff, sampleRate float64) biquad.Coefficients {
	if cutoff <= 0 || sampleRate <= 0 || cutoff >= 0.45*sampleRate {
		return biquad.Coefficients{B0: 1}
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	inv := 1.0 / (1 + alpha)
	return biquad.Coefficients{
		B0: ((1 + cw) * 0.5) * inv,
		B1: -(1 + cw) * inv,
		B2: ((1 + cw) * 0.5) * inv,
		A1: (-2 * cw) * inv,
		A2: (1 - alpha) * inv,
	}
}
