package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const (
	ln2  = 0.69314718055994530942
	ln10 = 2.30258509299404568402

	// Timecent values at or below this are treated as instantaneous.
	minTimecents = -12000
	// Attenuation where a voice is considered silent.
	silenceDB = 100.0
)

func pow2Approx(x float32) float32 {
	return approx.FastExp(x * ln2)
}

// centsToRatio converts a pitch offset in cents to a frequency ratio.
func centsToRatio(cents float64) float64 {
	return float64(pow2Approx(float32(cents / 1200.0)))
}

// timecentsToSeconds converts SoundFont timecents to seconds.
func timecentsToSeconds(tc float64) float64 {
	if tc <= minTimecents {
		return 0
	}
	return math.Pow(2, tc/1200.0)
}

// absCentsToHz converts absolute cents (8.176 Hz reference) to Hz.
func absCentsToHz(cents float64) float64 {
	return 8.176 * math.Pow(2, cents/1200.0)
}

// attenuationToGain converts an attenuation in dB (positive = quieter) to gain.
func attenuationToGain(db float64) float64 {
	if db <= 0 {
		return 1
	}
	if db >= silenceDB {
		return 0
	}
	return float64(approx.FastExp(float32(-db * ln10 / 20.0)))
}

// centibelsToGain converts an attenuation in centibels to gain.
func centibelsToGain(cb float64) float64 {
	return attenuationToGain(cb / 10.0)
}

func gainToAttenuation(g float64) float64 {
	if g <= 0 {
		return silenceDB
	}
	db := -20 * math.Log10(g)
	if db < 0 {
		return 0
	}
	if db > silenceDB {
		return silenceDB
	}
	return db
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
