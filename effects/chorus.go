package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-wavesynth/dsp"
)

const (
	chorusBaseDelayS = 0.012
	chorusMaxDepthS  = 0.01
	chorusHighpassHz = 80.0
	maxChorusStages  = 6
)

// Chorus is a multi-tap modulated delay for the chorus send bus. Each stage
// reads the delay line at its own LFO phase; the right side runs a quarter
// period ahead of the left.
type Chorus struct {
	sampleRate float64
	mix        float64
	depth      float64
	speedHz    float64
	stages     int

	phase   float64
	delayL  *dsp.DelayLine
	delayR  *dsp.DelayLine
	inputHL *biquad.Section
	inputHR *biquad.Section
}

// NewChorus returns a chorus with two stages, 3 ms depth and 0.6 Hz rate.
func NewChorus(sampleRate int) *Chorus {
	c := &Chorus{
		sampleRate: float64(sampleRate),
		mix:        1,
		depth:      0.003,
		speedHz:    0.6,
		stages:     2,
	}
	size := int(math.Ceil((chorusBaseDelayS+chorusMaxDepthS)*c.sampleRate)) + 4
	c.delayL = dsp.NewDelayLine(size)
	c.delayR = dsp.NewDelayLine(size)
	hp := highpassCoefficients(chorusHighpassHz, c.sampleRate)
	c.inputHL = biquad.NewSection(hp)
	c.inputHR = biquad.NewSection(hp)
	return c
}

// SetMix sets the wet fraction in [0,1].
func (c *Chorus) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("chorus mix must be in [0,1]: %f", mix)
	}
	c.mix = mix
	return nil
}

// SetDepth sets the modulation depth in seconds, at most 10 ms.
func (c *Chorus) SetDepth(depth float64) error {
	if depth < 0 || depth > chorusMaxDepthS || math.IsNaN(depth) {
		return fmt.Errorf("chorus depth must be in [0,%g]: %f", chorusMaxDepthS, depth)
	}
	c.depth = depth
	return nil
}

// SetSpeedHz sets the LFO rate.
func (c *Chorus) SetSpeedHz(hz float64) error {
	if hz < 0.05 || hz > 5 || math.IsNaN(hz) {
		return fmt.Errorf("chorus speed must be in [0.05,5] Hz: %f", hz)
	}
	c.speedHz = hz
	return nil
}

// SetStages sets the number of modulated taps.
func (c *Chorus) SetStages(n int) error {
	if n < 1 || n > maxChorusStages {
		return fmt.Errorf("chorus stages must be in [1,%d]: %d", maxChorusStages, n)
	}
	c.stages = n
	return nil
}

func (c *Chorus) Mix() float64     { return c.mix }
func (c *Chorus) Depth() float64   { return c.depth }
func (c *Chorus) SpeedHz() float64 { return c.speedHz }
func (c *Chorus) Stages() int      { return c.stages }

// Process runs the chorus over inL/inR and adds the result scaled by gain
// into outL/outR.
func (c *Chorus) Process(inL, inR, outL, outR []float32, gain float32) {
	n := min(len(inL), len(inR), len(outL), len(outR))
	inc := c.speedHz / c.sampleRate
	dry := float32(1 - c.mix)
	wet := float32(c.mix / float64(c.stages))
	for i := 0; i < n; i++ {
		xl := float32(c.inputHL.ProcessSample(float64(inL[i])))
		xr := float32(c.inputHR.ProcessSample(float64(inR[i])))
		c.delayL.Write(xl)
		c.delayR.Write(xr)

		var yl, yr float32
		for s := 0; s < c.stages; s++ {
			p := c.phase + float64(s)/float64(c.stages)
			yl += c.delayL.ReadFractional(c.tapDelay(p))
			yr += c.delayR.ReadFractional(c.tapDelay(p + 0.25))
		}
		outL[i] += gain * (dry*inL[i] + wet*yl)
		outR[i] += gain * (dry*inR[i] + wet*yr)

		c.phase += inc
		if c.phase >= 1 {
			c.phase -= 1
		}
	}
}

func (c *Chorus) tapDelay(phase float64) float32 {
	mod := 0.5 * (1 + math.Sin(2*math.Pi*phase))
	return float32((chorusBaseDelayS + c.depth*mod) * c.sampleRate)
}

// Reset clears the delay lines, filters and LFO phase.
func (c *Chorus) Reset() {
	c.delayL.Reset()
	c.delayR.Reset()
	c.inputHL.Reset()
	c.inputHR.Reset()
	c.phase = 0
}
