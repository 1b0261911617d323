package synth

import (
	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

// oscillator reads a sample at a fractional cursor with loop handling.
type oscillator struct {
	data      []float32
	cursor    float64
	end       int
	loopStart int
	loopEnd   int
	loopMode  int
	released  bool
	finished  bool
}

func newOscillator(s *soundbank.Sample, gens *[soundbank.GeneratorCount]int16) oscillator {
	n := len(s.Data)
	start := int(gens[soundbank.GenStartAddrsOffset]) + 32768*int(gens[soundbank.GenStartAddrsCoarseOffset])
	end := n + int(gens[soundbank.GenEndAddrOffset]) + 32768*int(gens[soundbank.GenEndAddrsCoarseOffset])
	loopStart := s.LoopStart + int(gens[soundbank.GenStartloopAddrsOffset]) + 32768*int(gens[soundbank.GenStartloopAddrsCoarseOffset])
	loopEnd := s.LoopEnd + int(gens[soundbank.GenEndloopAddrsOffset]) + 32768*int(gens[soundbank.GenEndloopAddrsCoarseOffset])

	end = clampInt(end, 1, n)
	start = clampInt(start, 0, end-1)
	loopEnd = clampInt(loopEnd, 0, end)
	loopStart = clampInt(loopStart, 0, loopEnd)

	return oscillator{
		data:      s.Data,
		cursor:    float64(start),
		end:       end,
		loopStart: loopStart,
		loopEnd:   loopEnd,
		loopMode:  int(gens[soundbank.GenSampleModes]),
	}
}

func (o *oscillator) looping() bool {
	if o.loopEnd-o.loopStart < 2 {
		return false
	}
	return o.loopMode == soundbank.LoopContinuous || (o.loopMode == soundbank.LoopUntilReleased && !o.released)
}

func (o *oscillator) at(i int, looping bool) float32 {
	if looping && i >= o.loopEnd {
		i = o.loopStart + (i-o.loopStart)%(o.loopEnd-o.loopStart)
	}
	if i < 0 {
		i = 0
	}
	if i >= o.end {
		return 0
	}
	return o.data[i]
}

// next returns the sample at the cursor and advances it by inc.
func (o *oscillator) next(inc float64, mode dsp.Interpolation) float32 {
	if o.finished {
		return 0
	}
	looping := o.looping()
	if looping {
		loopLen := float64(o.loopEnd - o.loopStart)
		for o.cursor >= float64(o.loopEnd) {
			o.cursor -= loopLen
		}
	} else if o.cursor >= float64(o.end) {
		o.finished = true
		return 0
	}

	i := int(o.cursor)
	frac := float32(o.cursor - float64(i))
	var s float32
	switch mode {
	case dsp.InterpolationNone:
		s = o.at(i, looping)
	case dsp.InterpolationLinear:
		a := o.at(i, looping)
		s = a + frac*(o.at(i+1, looping)-a)
	default:
		s = dsp.Cubic(o.at(i-1, looping), o.at(i, looping), o.at(i+1, looping), o.at(i+2, looping), frac)
	}
	o.cursor += inc
	return s
}
