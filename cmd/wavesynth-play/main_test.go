package main

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/algo-wavesynth/synth"
)

func TestKeyboardMapsRows(t *testing.T) {
	kb := &keyboard{channel: 2, base: 48, velocity: 90, hold: 0.25}
	tests := []struct {
		key  byte
		note int
	}{
		{'z', 48},
		{'s', 49},
		{',', 60},
		{'q', 60},
		{'i', 72},
	}
	for _, tt := range tests {
		act := kb.handle(tt.key)
		if len(act.actions) != 2 {
			t.Fatalf("key %q: got %d actions, want 2", tt.key, len(act.actions))
		}
		on, off := act.actions[0], act.actions[1]
		if on.Kind != synth.ActionNoteOn || on.Number != tt.note || on.Value != 90 || on.Channel != 2 {
			t.Fatalf("key %q: note-on = %+v", tt.key, on)
		}
		if off.Kind != synth.ActionNoteOff || off.Number != tt.note || act.offsets[1] != 0.25 {
			t.Fatalf("key %q: note-off = %+v at %f", tt.key, off, act.offsets[1])
		}
	}
}

func TestKeyboardControls(t *testing.T) {
	kb := &keyboard{base: 48, velocity: 120, program: 0}
	kb.handle('=')
	if kb.base != 60 {
		t.Fatalf("octave up: base=%d want=60", kb.base)
	}
	kb.handle(']')
	if kb.velocity != 127 {
		t.Fatalf("velocity up: got=%d want=127", kb.velocity)
	}
	act := kb.handle('<')
	if kb.program != 127 || act.actions[0].Kind != synth.ActionProgramChange || act.actions[0].Number != 127 {
		t.Fatalf("program down should wrap to 127, got %d", kb.program)
	}
	if act := kb.handle('\\'); !act.actions[0].Force {
		t.Fatalf("panic should force stop")
	}
	if act := kb.handle(27); !act.quit {
		t.Fatalf("escape should quit")
	}
	if act := kb.handle('!'); len(act.actions) != 0 || act.quit {
		t.Fatalf("unmapped key should do nothing")
	}
}

func TestStreamProducesFloat32Frames(t *testing.T) {
	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/50))
	}
	s := &soundbank.Sample{Name: "s", Data: data, LoopEnd: len(data), RootKey: 60, SampleRate: 44100}
	inst := &soundbank.Instrument{Name: "i", Zones: []*soundbank.Zone{{
		KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Sample: s,
		Generators: []soundbank.Generator{{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous}},
	}}}
	bank := &soundbank.Bank{Presets: []*soundbank.Preset{{Name: "p", Zones: []*soundbank.Zone{{
		KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: inst,
	}}}}}
	cfg := synth.DefaultConfig()
	cfg.EventsEnabled = false
	e, err := synth.NewEngine(bank, cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer e.Close()
	if err := e.Post(0, synth.Action{Kind: synth.ActionNoteOn, Number: 60, Value: 127}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	st := newStream(e, nil)
	// 300 frames spans three engine blocks
	p := make([]byte, 300*2*4)
	n, err := st.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	var peak float64
	for i := 0; i < n/4; i++ {
		v := math.Abs(float64(math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))))
		peak = max(peak, v)
	}
	if peak < 1e-3 {
		t.Fatalf("expected audible output, peak=%g", peak)
	}
	if got, want := st.Now(), float64(3*synth.DefaultBlockSize)/float64(e.SampleRate()); math.Abs(got-want) > 1e-12 {
		t.Fatalf("clock: got=%f want=%f", got, want)
	}
}

func TestStreamClockReadsDuringRender(t *testing.T) {
	bank := &soundbank.Bank{Presets: []*soundbank.Preset{{Name: "empty"}}}
	cfg := synth.DefaultConfig()
	cfg.EventsEnabled = false
	e, err := synth.NewEngine(bank, cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer e.Close()
	st := newStream(e, nil)

	const reads = 20
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p := make([]byte, synth.DefaultBlockSize*2*4)
		for i := 0; i < reads; i++ {
			if _, err := st.Read(p); err != nil {
				t.Errorf("Read: %v", err)
				return
			}
		}
	}()
	last := 0.0
	for i := 0; i < 1000; i++ {
		now := st.Now()
		if now < last {
			t.Fatalf("clock went backwards: %f after %f", now, last)
		}
		last = now
	}
	wg.Wait()

	want := float64(reads*synth.DefaultBlockSize) / float64(e.SampleRate())
	if got := st.Now(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("clock: got=%f want=%f", got, want)
	}
}
