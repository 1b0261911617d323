package effects

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-wavesynth/synth"
)

// Params configures the send-bus processing of a Rack.
type Params struct {
	ReverbEnabled bool
	ReverbLevel   float64
	ReverbDampHz  float64
	// ReverbIRPath loads the IR from a WAV file; empty selects Room.
	ReverbIRPath string
	Room         RoomConfig

	ChorusEnabled bool
	ChorusLevel   float64
	ChorusDepth   float64
	ChorusSpeedHz float64
	ChorusStages  int

	// DCBlockHz high-passes the final mix; 0 disables it.
	DCBlockHz float64
}

// DefaultParams returns both effects enabled at unity return level.
func DefaultParams(sampleRate int) Params {
	return Params{
		ReverbEnabled: true,
		ReverbLevel:   1,
		ReverbDampHz:  8000,
		Room:          DefaultRoomConfig(sampleRate),
		ChorusEnabled: true,
		ChorusLevel:   1,
		ChorusDepth:   0.003,
		ChorusSpeedHz: 0.6,
		ChorusStages:  2,
		DCBlockHz:     5,
	}
}

func (p *Params) Validate() error {
	if p.ReverbLevel < 0 {
		return fmt.Errorf("reverb level must be >= 0")
	}
	if p.ChorusLevel < 0 {
		return fmt.Errorf("chorus level must be >= 0")
	}
	if p.ReverbDampHz < 0 {
		return fmt.Errorf("reverb damping must be >= 0")
	}
	if p.DCBlockHz < 0 {
		return fmt.Errorf("dc block cutoff must be >= 0")
	}
	return nil
}

// Rack turns one engine output block into interleaved stereo: the dry channel
// mix plus the processed reverb and chorus returns.
type Rack struct {
	params Params
	reverb *Reverb
	chorus *Chorus

	outL, outR []float32
	dcL, dcR   *biquad.Section
}

// NewRack builds the reverb IR and chorus described by p.
func NewRack(sampleRate int, p Params) (*Rack, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &Rack{
		params: p,
		reverb: NewReverb(sampleRate),
		chorus: NewChorus(sampleRate),
	}
	if p.ReverbEnabled {
		if p.ReverbIRPath != "" {
			if err := r.reverb.SetIRFromWAV(p.ReverbIRPath); err != nil {
				return nil, fmt.Errorf("reverb ir: %w", err)
			}
		} else {
			room := p.Room
			room.SampleRate = sampleRate
			left, right, err := GenerateRoom(room)
			if err != nil {
				return nil, fmt.Errorf("reverb room: %w", err)
			}
			if err := r.reverb.SetIR(left, right); err != nil {
				return nil, err
			}
		}
	}
	r.reverb.SetDamping(p.ReverbDampHz)

	if p.ChorusEnabled {
		if err := r.chorus.SetDepth(p.ChorusDepth); err != nil {
			return nil, err
		}
		if err := r.chorus.SetSpeedHz(p.ChorusSpeedHz); err != nil {
			return nil, err
		}
		if err := r.chorus.SetStages(p.ChorusStages); err != nil {
			return nil, err
		}
	}

	dc := highpassCoefficients(p.DCBlockHz, float64(sampleRate))
	r.dcL = biquad.NewSection(dc)
	r.dcR = biquad.NewSection(dc)
	return r, nil
}

// Reverb exposes the convolution stage.
func (r *Rack) Reverb() *Reverb { return r.reverb }

// Chorus exposes the chorus stage.
func (r *Rack) Chorus() *Chorus { return r.chorus }

// Process mixes out into dst (interleaved stereo, overwritten). dst must hold
// at least 2*out.Frames() samples.
func (r *Rack) Process(out *synth.Output, dst []float32) {
	n := min(out.Frames(), len(dst)/2)
	if cap(r.outL) < n {
		r.outL = make([]float32, n)
		r.outR = make([]float32, n)
	}
	wl, wr := r.outL[:n], r.outR[:n]
	clear(wl)
	clear(wr)

	for _, ch := range out.Channels {
		for i := 0; i < n; i++ {
			wl[i] += ch.Left[i]
			wr[i] += ch.Right[i]
		}
	}
	if r.params.ReverbEnabled {
		r.reverb.Process(out.Reverb.Left[:n], out.Reverb.Right[:n], wl, wr, float32(r.params.ReverbLevel))
	}
	if r.params.ChorusEnabled {
		r.chorus.Process(out.Chorus.Left[:n], out.Chorus.Right[:n], wl, wr, float32(r.params.ChorusLevel))
	}

	for i := 0; i < n; i++ {
		dst[i*2] = float32(r.dcL.ProcessSample(float64(wl[i])))
		dst[i*2+1] = float32(r.dcR.ProcessSample(float64(wr[i])))
	}
}

// Render pulls numFrames from the engine in blocks and returns interleaved
// stereo with effects applied.
func (r *Rack) Render(e *synth.Engine, numFrames int) []float32 {
	dst := make([]float32, numFrames*2)
	out := synth.NewOutput(e.ChannelCount(), synth.DefaultBlockSize)
	for done := 0; done < numFrames; {
		n := min(synth.DefaultBlockSize, numFrames-done)
		block := out
		if n < synth.DefaultBlockSize {
			block = out.Slice(n)
		}
		e.Render(block)
		r.Process(block, dst[done*2:(done+n)*2])
		done += n
	}
	return dst
}

// Reset clears all effect state.
func (r *Rack) Reset() {
	r.reverb.Reset()
	r.chorus.Reset()
	r.dcL.Reset()
	r.dcR.Reset()
}
