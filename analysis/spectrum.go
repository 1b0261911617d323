package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

var ErrTooShort = errors.New("signal too short for analysis")

const maxFFTSize = 16384

// fftSizeFor returns the largest power of two <= min(n, limit).
func fftSizeFor(n, limit int) int {
	size := 1
	for size*2 <= n && size*2 <= limit {
		size *= 2
	}
	return size
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// MagnitudeSpectrum returns |X[k]| for k in 0..n/2 of the Hann-windowed
// first n samples of x, where n is the largest power of two that fits (at
// most 16384).
func MagnitudeSpectrum(x []float64) ([]float64, error) {
	n := fftSizeFor(len(x), maxFFTSize)
	if n < 64 {
		return nil, ErrTooShort
	}
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, err
	}
	w := hann(n)
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = x[i] * w[i]
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)
	mag := make([]float64, len(spec))
	for k, c := range spec {
		mag[k] = cmplx.Abs(c)
	}
	return mag, nil
}

// PeakFrequency estimates the dominant frequency of x in Hz, refined by
// parabolic interpolation of the log magnitude around the strongest bin.
func PeakFrequency(x []float64, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, errors.New("sample rate must be > 0")
	}
	mag, err := MagnitudeSpectrum(x)
	if err != nil {
		return 0, err
	}
	n := 2 * (len(mag) - 1)
	best := 1
	for k := 2; k < len(mag)-1; k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}
	delta := 0.0
	if best > 0 && best < len(mag)-1 {
		a := math.Log(mag[best-1] + 1e-20)
		b := math.Log(mag[best] + 1e-20)
		c := math.Log(mag[best+1] + 1e-20)
		if den := a - 2*b + c; den != 0 {
			delta = 0.5 * (a - c) / den
		}
	}
	return (float64(best) + delta) * float64(sampleRate) / float64(n), nil
}

// spectralRMSEDB compares the log magnitude spectra of a and b over their
// common FFT size.
func spectralRMSEDB(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 512 {
		return 0
	}
	magA, errA := MagnitudeSpectrum(a[:n])
	magB, errB := MagnitudeSpectrum(b[:n])
	if errA != nil || errB != nil {
		return 0
	}
	bins := len(magA) - 1
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(magA[k]) - linToDB(magB[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

// CentsBetween returns the interval from ref to f in cents.
func CentsBetween(ref, f float64) float64 {
	if ref <= 0 || f <= 0 {
		return math.NaN()
	}
	return 1200 * math.Log2(f/ref)
}
