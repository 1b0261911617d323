package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-wavesynth/soundbank"
)

const testRate = 48000

func sineSample(name string, n int) *soundbank.Sample {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/50))
	}
	return &soundbank.Sample{
		Name:       name,
		Data:       data,
		LoopStart:  0,
		LoopEnd:    n,
		RootKey:    60,
		SampleRate: testRate,
	}
}

// testBank builds a bank with a melodic preset (0,0) playing s with the given
// instrument generators, and a drum kit (128,0) whose keys 42 and 46 share
// exclusive class 1.
func testBank(s *soundbank.Sample, gens ...soundbank.Generator) *soundbank.Bank {
	inst := &soundbank.Instrument{
		Name: "inst",
		Zones: []*soundbank.Zone{{
			KeyRange:   soundbank.FullRange,
			VelRange:   soundbank.FullRange,
			Generators: gens,
			Sample:     s,
		}},
	}
	hat := func(key int) *soundbank.Zone {
		return &soundbank.Zone{
			KeyRange: soundbank.Range{Min: key, Max: key},
			VelRange: soundbank.FullRange,
			Generators: []soundbank.Generator{
				{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous},
				{Type: soundbank.GenExclusiveClass, Value: 1},
			},
			Sample: s,
		}
	}
	kitInst := &soundbank.Instrument{Name: "hats", Zones: []*soundbank.Zone{hat(42), hat(46)}}
	bank := &soundbank.Bank{
		Name: "test",
		Presets: []*soundbank.Preset{
			{Name: "kit", Bank: soundbank.PercussionBank, Program: 0, Zones: []*soundbank.Zone{{
				KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: kitInst,
			}}},
			{Name: "melodic", Bank: 0, Program: 0, Zones: []*soundbank.Zone{{
				KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: inst,
			}}},
		},
		Instruments: []*soundbank.Instrument{inst, kitInst},
		Samples:     []*soundbank.Sample{s},
	}
	bank.Sort()
	return bank
}

func loopingBank() *soundbank.Bank {
	return testBank(sineSample("loop", 1000), soundbank.Generator{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous})
}

func newTestEngine(t *testing.T, bank *soundbank.Bank, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SampleRate = testRate
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(bank, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func renderBlocks(e *Engine, out *Output, n int) {
	for i := 0; i < n; i++ {
		e.Render(out)
	}
}

func bufferPeak(b []float32) float64 {
	peak := 0.0
	for _, s := range b {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak
}

func channelNotes(e *Engine, channel int) map[int]bool {
	notes := make(map[int]bool)
	for _, v := range e.channels[channel].voices {
		notes[v.note] = true
	}
	return notes
}
