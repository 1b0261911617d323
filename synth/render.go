package synth

import "github.com/cwbudde/algo-wavesynth/dsp"

// StereoBuffer is a pair of planar channel buffers.
type StereoBuffer struct {
	Left  []float32
	Right []float32
}

// NewStereoBuffer allocates a buffer of frames samples per side.
func NewStereoBuffer(frames int) StereoBuffer {
	return StereoBuffer{Left: make([]float32, frames), Right: make([]float32, frames)}
}

func (b StereoBuffer) clear() {
	clear(b.Left)
	clear(b.Right)
}

// Output receives one rendered block: a dry buffer per MIDI channel plus the
// reverb and chorus send buses.
type Output struct {
	Channels []StereoBuffer
	Reverb   StereoBuffer
	Chorus   StereoBuffer
}

// NewOutput allocates buffers for channels dry outputs of frames samples.
func NewOutput(channels, frames int) *Output {
	o := &Output{
		Channels: make([]StereoBuffer, channels),
		Reverb:   NewStereoBuffer(frames),
		Chorus:   NewStereoBuffer(frames),
	}
	for i := range o.Channels {
		o.Channels[i] = NewStereoBuffer(frames)
	}
	return o
}

// Frames returns the block length.
func (o *Output) Frames() int { return len(o.Reverb.Left) }

// Clear zeroes every buffer.
func (o *Output) Clear() {
	for _, c := range o.Channels {
		c.clear()
	}
	o.Reverb.clear()
	o.Chorus.clear()
}

// Slice returns a view of the first n frames sharing o's storage.
func (o *Output) Slice(n int) *Output {
	s := &Output{
		Channels: make([]StereoBuffer, len(o.Channels)),
		Reverb:   StereoBuffer{Left: o.Reverb.Left[:n], Right: o.Reverb.Right[:n]},
		Chorus:   StereoBuffer{Left: o.Chorus.Left[:n], Right: o.Chorus.Right[:n]},
	}
	for i, c := range o.Channels {
		s.Channels[i] = StereoBuffer{Left: c.Left[:n], Right: c.Right[:n]}
	}
	return s
}

// MixDry sums the channel outputs into dst (interleaved stereo).
func (o *Output) MixDry(dst []float32) {
	n := o.Frames()
	if len(dst)/2 < n {
		n = len(dst) / 2
	}
	for _, c := range o.Channels {
		for i := 0; i < n; i++ {
			dst[i*2] += c.Left[i]
			dst[i*2+1] += c.Right[i]
		}
	}
}

// channelBuffers are the block's mix targets. left and right are nil when the
// output has no dry buffers; voices then only feed the sends.
type channelBuffers struct {
	left, right      []float32
	reverbL, reverbR []float32
	chorusL, chorusR []float32
}

type renderContext struct {
	time            float64
	sampleRate      float64
	interpolation   dsp.Interpolation
	volSmoothing    float64
	panSmoothing    float64
	filterSmoothing float64
	gain            float64
	panLeft         float32
	panRight        float32
	tuningCents     float64
}

func (e *Engine) renderContext() renderContext {
	// Master pan in -1..1 attenuates the opposite side.
	l, r := 1.0, 1.0
	if e.masterPan > 0 {
		l = 1 - e.masterPan
	} else if e.masterPan < 0 {
		r = 1 + e.masterPan
	}
	return renderContext{
		time:            e.now,
		sampleRate:      e.sampleRate,
		interpolation:   e.interpolation,
		volSmoothing:    e.volSmoothing,
		panSmoothing:    e.panSmoothing,
		filterSmoothing: e.filterSmoothing,
		gain:            e.masterGain * e.midiVolume,
		panLeft:         float32(l),
		panRight:        float32(r),
		tuningCents:     e.masterTuning + e.sysexCoarse + e.sysexFine,
	}
}

// Render produces one block into out, overwriting it. It advances the
// sequencer, applies due actions, mixes every unmuted channel that has
// voices and moves the clock forward by the block length.
func (e *Engine) Render(out *Output) {
	out.Clear()
	frames := out.Frames()
	if frames == 0 || e.closed.Load() {
		return
	}
	e.queueing = true
	e.drainInbox()
	if e.sequencer != nil {
		e.sequencer.Advance(e, e.now)
	}
	e.queueing = false
	for {
		a, ok := e.scheduler.PopDue(e.now)
		if !ok {
			break
		}
		e.dispatch(a)
	}

	ctx := e.renderContext()
	for _, c := range e.channels {
		if len(c.voices) == 0 || c.muted {
			continue
		}
		bufs := channelBuffers{
			reverbL: out.Reverb.Left[:frames], reverbR: out.Reverb.Right[:frames],
			chorusL: out.Chorus.Left[:frames], chorusR: out.Chorus.Right[:frames],
		}
		if len(out.Channels) > 0 {
			dst := out.Channels[c.number%len(out.Channels)]
			bufs.left, bufs.right = dst.Left[:frames], dst.Right[:frames]
		}
		c.render(&ctx, &bufs)
		if len(c.voices) != c.lastVoices {
			c.lastVoices = len(c.voices)
			e.emitChannelProperty(c)
		}
	}
	scale(out.Reverb, float32(e.reverbGain))
	scale(out.Chorus, float32(e.chorusGain))
	e.now += float64(frames) / e.sampleRate
}

func scale(b StereoBuffer, g float32) {
	if g == 1 {
		return
	}
	for i := range b.Left {
		b.Left[i] *= g
		b.Right[i] *= g
	}
}

// Process renders numFrames and returns the dry mix as interleaved stereo.
// Effect sends are dropped; use Render to process them.
func (e *Engine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	e.RenderInterleaved(out)
	return out
}

// RenderInterleaved renders len(dst)/2 frames of the dry mix into dst in
// blocks of at most DefaultBlockSize frames.
func (e *Engine) RenderInterleaved(dst []float32) {
	clear(dst)
	frames := len(dst) / 2
	for pos := 0; pos < frames; pos += DefaultBlockSize {
		n := min(DefaultBlockSize, frames-pos)
		if e.scratch == nil || len(e.scratch.Channels) != len(e.channels) {
			e.scratch = NewOutput(len(e.channels), DefaultBlockSize)
		}
		out := e.scratch
		if n < DefaultBlockSize {
			out = out.Slice(n)
		}
		e.Render(out)
		out.MixDry(dst[pos*2 : (pos+n)*2])
	}
}
