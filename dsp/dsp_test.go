package dsp

import (
	"math"
	"testing"
)

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	const sr = 48000.0
	lowOut := sineThroughLowpass(200, 1000, sr, 0)
	highOut := sineThroughLowpass(12000, 1000, sr, 0)
	if lowOut < 0.6 {
		t.Fatalf("expected passband tone to pass, rms=%f", lowOut)
	}
	if highOut > lowOut*0.1 {
		t.Fatalf("expected stopband tone to be attenuated: low=%f high=%f", lowOut, highOut)
	}
}

func TestLowpassResonanceBoostsCutoff(t *testing.T) {
	const sr = 48000.0
	flat := sineThroughLowpass(1000, 1000, sr, 0)
	resonant := sineThroughLowpass(1000, 1000, sr, 12)
	if resonant <= flat {
		t.Fatalf("expected resonance to boost the cutoff region: flat=%f resonant=%f", flat, resonant)
	}
}

func TestSetCoefficientsKeepsHistory(t *testing.T) {
	b := NewLowpass(1000, 48000, 0.707)
	for i := 0; i < 64; i++ {
		b.Process(1)
	}
	before := b.y1
	b.SetCoefficients(LowpassCoefficients(2000, 48000, 0))
	if b.y1 != before {
		t.Fatalf("expected output history to survive coefficient change")
	}
	b.Reset()
	if b.y1 != 0 || b.x1 != 0 {
		t.Fatalf("expected reset to clear history")
	}
}

func TestCubicPassesThroughKnots(t *testing.T) {
	if got := Cubic(0.1, 0.5, -0.3, 0.2, 0); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Fatalf("frac=0 should return y0, got %f", got)
	}
	if got := Cubic(0.1, 0.5, -0.3, 0.2, 1); math.Abs(float64(got+0.3)) > 1e-5 {
		t.Fatalf("frac=1 should return y1, got %f", got)
	}
	l := NewLagrangeInterpolator(1)
	if got := l.Interpolate([]float32{0, 1}, 0.25); math.Abs(float64(got-0.25)) > 1e-6 {
		t.Fatalf("linear interpolation mismatch: %f", got)
	}
}

func TestDelayLineReadsBack(t *testing.T) {
	d := NewDelayLine(8)
	for i := 1; i <= 5; i++ {
		d.Write(float32(i))
	}
	if got := d.Read(1); got != 5 {
		t.Fatalf("expected newest sample 5, got %f", got)
	}
	if got := d.Read(3); got != 3 {
		t.Fatalf("expected sample 3, got %f", got)
	}
	if got := d.ReadFractional(1.5); math.Abs(float64(got-4.5)) > 1e-6 {
		t.Fatalf("expected 4.5, got %f", got)
	}
}

func TestParseInterpolation(t *testing.T) {
	tests := []struct {
		name string
		want Interpolation
		ok   bool
	}{
		{"none", InterpolationNone, true},
		{"linear", InterpolationLinear, true},
		{"cubic", InterpolationFourthOrder, true},
		{"bogus", InterpolationFourthOrder, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseInterpolation(tc.name)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("ParseInterpolation(%q) = %v,%v want %v,%v", tc.name, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func sineThroughLowpass(freq, cutoff, sr, resonanceDB float64) float64 {
	b := &Biquad{}
	b.SetCoefficients(LowpassCoefficients(cutoff, sr, resonanceDB))
	n := 9600
	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2 * math.Pi * freq * float64(i) / sr))
		y := b.Process(x)
		if i >= n/2 {
			sum += float64(y) * float64(y)
			count++
		}
	}
	return math.Sqrt(sum/float64(count)) * math.Sqrt2
}
