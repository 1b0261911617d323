package effects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// RoomConfig controls synthetic stereo room impulse responses used when no
// IR file is configured.
type RoomConfig struct {
	SampleRate  int
	DurationS   float64 // typically 0.3-3.0s
	Seed        int64
	EarlyCount  int
	LateLevel   float64
	StereoWidth float64
	// Brightness scales the high band of the diffuse tail.
	Brightness float64
	LowDecayS  float64
	HighDecayS float64
	// CrossoverHz splits the tail into its low and high bands.
	CrossoverHz float64
	FadeOutS    float64 // cosine fade-out at the end; 0 = no fade

	NormalizePeak float64
}

// DefaultRoomConfig returns a medium hall at sampleRate.
func DefaultRoomConfig(sampleRate int) RoomConfig {
	return RoomConfig{
		SampleRate:    sampleRate,
		DurationS:     1.6,
		Seed:          1,
		EarlyCount:    24,
		LateLevel:     0.35,
		StereoWidth:   0.6,
		Brightness:    0.8,
		LowDecayS:     1.2,
		HighDecayS:    0.35,
		CrossoverHz:   2500,
		FadeOutS:      0.05,
		NormalizePeak: 0.5,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0,1]")
	}
	if c.Brightness < 0 {
		return fmt.Errorf("brightness must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.CrossoverHz <= 0 || c.CrossoverHz >= 0.45*float64(c.SampleRate) {
		return fmt.Errorf("crossover must be in (0, 0.45*sample rate)")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// GenerateRoom synthesizes a stereo room IR: sparse early reflections in the
// first 50 ms followed by a two-band exponentially decaying noise tail.
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sr := float64(cfg.SampleRate)
	n := max(int(math.Round(cfg.DurationS*sr)), 1)
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	for i := 0; i < cfg.EarlyCount; i++ {
		t := 0.001 + 0.049*rng.Float64()
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*20.0)
		pan := (rng.Float64()*2.0 - 1.0) * cfg.StereoWidth
		left[idx] += amp * (1.0 - 0.5*pan)
		right[idx] += amp * (1.0 + 0.5*pan)
	}

	if cfg.LateLevel > 0 {
		lowC := lowpassCoefficients(cfg.CrossoverHz, sr)
		highC := highpassCoefficients(cfg.CrossoverHz, sr)
		lowL, lowR := biquad.NewSection(lowC), biquad.NewSection(lowC)
		highL, highR := biquad.NewSection(highC), biquad.NewSection(highC)

		onset := int(0.01 * sr)
		for i := onset; i < n; i++ {
			t := float64(i) / sr
			lowEnv := math.Exp(-t / (0.75 * cfg.LowDecayS))
			highEnv := cfg.Brightness * math.Exp(-t/(0.75*cfg.HighDecayS))
			nL := rng.NormFloat64()
			nR := rng.NormFloat64()
			// Decorrelate the sides in proportion to the stereo width.
			nR = cfg.StereoWidth*nR + (1-cfg.StereoWidth)*nL

			left[i] += cfg.LateLevel * (lowEnv*lowL.ProcessSample(nL) + highEnv*highL.ProcessSample(nL))
			right[i] += cfg.LateLevel * (lowEnv*lowR.ProcessSample(nR) + highEnv*highR.ProcessSample(nR))
		}
	}

	removeDC(left, sr)
	removeDC(right, sr)
	applyFadeOut(left, cfg.FadeOutS, cfg.SampleRate)
	applyFadeOut(right, cfg.FadeOutS, cfg.SampleRate)

	peak := max(maxAbs(left), maxAbs(right), 1e-12)
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := 0; i < n; i++ {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

func removeDC(x []float64, sampleRate float64) {
	hp := biquad.NewSection(highpassCoefficients(10, sampleRate))
	for i := range x {
		x[i] = hp.ProcessSample(x[i])
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// applyFadeOut applies a cosine fade-out to the last fadeS seconds of buf.
func applyFadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fadeSamples := min(int(math.Round(fadeS*float64(sampleRate))), len(buf))
	start := len(buf) - fadeSamples
	for i := 0; i < fadeSamples; i++ {
		t := float64(i) / float64(fadeSamples)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}
