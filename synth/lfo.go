package synth

import (
	"math"

	"github.com/cwbudde/algo-wavesynth/soundbank"
)

// lfo is a delayed triangle oscillator starting at zero and rising.
type lfo struct {
	delay float64
	freq  float64
}

func newLFO(gens *[soundbank.GeneratorCount]float64, delayGen, freqGen soundbank.GeneratorType) lfo {
	return lfo{
		delay: timecentsToSeconds(gens[delayGen]),
		freq:  absCentsToHz(gens[freqGen]),
	}
}

// value returns the bipolar LFO output at voice-local time t.
func (l lfo) value(t float64) float64 {
	if t < l.delay || l.freq <= 0 {
		return 0
	}
	_, x := math.Modf((t - l.delay) * l.freq)
	switch {
	case x < 0.25:
		return 4 * x
	case x < 0.75:
		return 2 - 4*x
	default:
		return 4*x - 4
	}
}
