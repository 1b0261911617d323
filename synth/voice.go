package synth

import (
	"math"

	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

// voiceTemplate is the cached, immutable result of resolving one
// instrument/preset zone pair for a note and velocity.
type voiceTemplate struct {
	sample         *soundbank.Sample
	generators     [soundbank.GeneratorCount]int16
	modulators     []soundbank.Modulator
	exclusiveClass int
}

// Voice is one playing sample with its envelopes, filter and modulators.
type Voice struct {
	channel  *Channel
	note     int // note as received, used for note-off matching
	velocity int
	// targetKey is the key the pitch is computed from.
	targetKey int
	// tuning is the fractional transposition in cents.
	tuning    float64
	startTime float64
	seq       uint64

	sample         *soundbank.Sample
	generators     [soundbank.GeneratorCount]int16
	modulators     []soundbank.Modulator
	modulated      [soundbank.GeneratorCount]float64
	exclusiveClass int

	osc    oscillator
	volEnv volumeEnvelope
	modEnv modEnvelope
	vibLFO lfo
	modLFO lfo

	filter       dsp.Biquad
	filterCents  float64
	filterQ      float64
	lastCents    float64
	filterInit   bool
	filterActive bool

	pan     float64
	panInit bool
	attGain float64

	portaFrom     float64
	portaDuration float64

	isInRelease    bool
	pendingRelease bool
	releaseAt      float64
	sustained      bool
	finished       bool
}

// newVoice instantiates a template. The returned voice is ready to render
// from the next block.
func newVoice(tpl *voiceTemplate, ch *Channel, note, velocity, targetKey int, tuning, now, sampleRate, volSmoothing float64) *Voice {
	v := &Voice{
		channel:        ch,
		note:           note,
		velocity:       velocity,
		targetKey:      targetKey,
		tuning:         tuning,
		startTime:      now,
		sample:         tpl.sample,
		generators:     tpl.generators,
		modulators:     tpl.modulators,
		exclusiveClass: tpl.exclusiveClass,
	}
	if k := int(tpl.generators[soundbank.GenKeyNum]); k >= 0 {
		v.targetKey = k
	}
	if vel := int(tpl.generators[soundbank.GenVelocity]); vel >= 0 {
		v.velocity = vel
	}
	v.computeModulators()
	v.osc = newOscillator(tpl.sample, &v.generators)
	v.volEnv = newVolumeEnvelope(&v.modulated, v.targetKey, sampleRate, volSmoothing)
	v.modEnv = newModEnvelope(&v.modulated, v.targetKey)
	v.vibLFO = newLFO(&v.modulated, soundbank.GenDelayVibLFO, soundbank.GenFreqVibLFO)
	v.modLFO = newLFO(&v.modulated, soundbank.GenDelayModLFO, soundbank.GenFreqModLFO)
	v.attGain = centibelsToGain(v.modulated[soundbank.GenInitialAttenuation])
	return v
}

// amplitude is the current output level used by the voice stealer.
func (v *Voice) amplitude() float64 {
	return v.volEnv.gain * v.attGain
}

// release starts the release stage no earlier than minLength seconds after
// the voice started.
func (v *Voice) release(now, minLength float64) {
	if v.isInRelease {
		return
	}
	v.isInRelease = true
	v.sustained = false
	v.pendingRelease = true
	v.releaseAt = math.Max(now, v.startTime+minLength)
}

func (v *Voice) beginRelease(t float64) {
	v.pendingRelease = false
	v.volEnv.startRelease()
	v.modEnv.startRelease(t)
	v.osc.released = true
}

// pitchCents returns the playback pitch offset relative to the sample's
// native pitch, for voice-local time t.
func (v *Voice) pitchCents(ctx *renderContext, t float64) float64 {
	root := v.sample.RootKey
	if rk := v.generators[soundbank.GenOverridingRootKey]; rk >= 0 {
		root = int(rk)
	}
	m := &v.modulated
	key := float64(v.targetKey)
	if v.portaDuration > 0 && t < v.portaDuration {
		key += (v.portaFrom - key) * (1 - t/v.portaDuration)
	}
	cents := (key-float64(root))*m[soundbank.GenScaleTuning] +
		m[soundbank.GenCoarseTune]*100 + m[soundbank.GenFineTune] +
		float64(v.sample.PitchCorrection) + v.tuning + ctx.tuningCents
	cents += v.vibLFO.value(t) * m[soundbank.GenVibLfoToPitch]
	cents += v.modLFO.value(t) * m[soundbank.GenModLfoToPitch]
	cents += v.modEnv.value(t) * m[soundbank.GenModEnvToPitch]
	if ch := v.channel; ch != nil {
		cents += ch.tuningCents
		cents += ch.vibrato.value(t)
	}
	return cents
}

func (v *Voice) updateFilter(ctx *renderContext, t float64) {
	m := &v.modulated
	target := m[soundbank.GenInitialFilterFc] +
		v.modEnv.value(t)*m[soundbank.GenModEnvToFilterFc] +
		v.modLFO.value(t)*m[soundbank.GenModLfoToFilterFc]
	q := m[soundbank.GenInitialFilterQ]
	if !v.filterInit {
		v.filterCents = target
		v.filterInit = true
	} else {
		v.filterCents += (target - v.filterCents) * ctx.filterSmoothing
	}
	if v.filterCents >= 13499 && q <= 0 {
		if v.filterActive {
			v.filter.Reset()
		}
		v.filterActive = false
		return
	}
	if !v.filterActive || math.Abs(v.filterCents-v.lastCents) > 0.5 || q != v.filterQ {
		v.filter.SetCoefficients(dsp.LowpassCoefficients(absCentsToHz(v.filterCents), ctx.sampleRate, q/10))
	}
	v.filterActive = true
	v.filterQ = q
	v.lastCents = v.filterCents
}

// render mixes one block into the channel's dry and send buffers.
func (v *Voice) render(ctx *renderContext, out *channelBuffers) {
	if v.finished {
		return
	}
	t := ctx.time - v.startTime
	if v.pendingRelease && ctx.time >= v.releaseAt {
		v.beginRelease(t)
	}

	ratio := centsToRatio(v.pitchCents(ctx, t))
	inc := ratio * float64(v.sample.SampleRate) / ctx.sampleRate
	v.updateFilter(ctx, t)

	m := &v.modulated
	attTarget := centibelsToGain(m[soundbank.GenInitialAttenuation]+v.modLFO.value(t)*m[soundbank.GenModLfoToVolume]) * ctx.gain
	panTarget := m[soundbank.GenPan] / 1000
	if !v.panInit {
		v.pan = panTarget
		v.panInit = true
	}
	reverb := float32(m[soundbank.GenReverbEffectsSend] / 1000)
	chorus := float32(m[soundbank.GenChorusEffectsSend] / 1000)

	for i := range out.reverbL {
		s := v.osc.next(inc, ctx.interpolation)
		if v.osc.finished {
			v.finished = true
			return
		}
		if v.filterActive {
			s = v.filter.Process(s)
		}
		if math.IsNaN(float64(s)) {
			v.finished = true
			return
		}
		v.attGain += (attTarget - v.attGain) * ctx.volSmoothing
		v.pan += (panTarget - v.pan) * ctx.panSmoothing
		g := float32(v.volEnv.next() * v.attGain)
		x := s * g
		l := x * float32(0.5-v.pan) * ctx.panLeft
		r := x * float32(0.5+v.pan) * ctx.panRight
		if out.left != nil {
			out.left[i] += l
			out.right[i] += r
		}
		if reverb > 0 {
			out.reverbL[i] += l * reverb
			out.reverbR[i] += r * reverb
		}
		if chorus > 0 {
			out.chorusL[i] += l * chorus
			out.chorusR[i] += r * chorus
		}
	}
	if v.volEnv.finished() {
		v.finished = true
	}
}
