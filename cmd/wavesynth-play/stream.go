package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/synth"
)

// stream renders the engine on demand for the audio device. It implements
// io.Reader producing interleaved float32 little-endian stereo. Read is only
// called from the device goroutine; Now may be called from any goroutine.
type stream struct {
	engine  *synth.Engine
	rack    *effects.Rack
	out     *synth.Output
	block   []float32
	pending []float32
	frames  atomic.Int64
}

func newStream(e *synth.Engine, rack *effects.Rack) *stream {
	return &stream{
		engine: e,
		rack:   rack,
		out:    synth.NewOutput(e.ChannelCount(), synth.DefaultBlockSize),
		block:  make([]float32, synth.DefaultBlockSize*2),
	}
}

// Now returns the engine clock in seconds as of the last rendered block.
func (s *stream) Now() float64 {
	return float64(s.frames.Load()) / float64(s.engine.SampleRate())
}

func (s *stream) Read(p []byte) (int, error) {
	n := len(p) / 4
	for i := 0; i < n; i++ {
		if len(s.pending) == 0 {
			s.renderBlock()
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s.pending[0]))
		s.pending = s.pending[1:]
	}
	return n * 4, nil
}

func (s *stream) renderBlock() {
	s.engine.Render(s.out)
	if s.rack != nil {
		s.rack.Process(s.out, s.block)
	} else {
		clear(s.block)
		s.out.MixDry(s.block)
	}
	s.frames.Add(int64(s.out.Frames()))
	s.pending = s.block
}
