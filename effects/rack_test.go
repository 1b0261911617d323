package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-wavesynth/synth"
)

func newRackEngine(t *testing.T) *synth.Engine {
	t.Helper()
	cfg := synth.DefaultConfig()
	cfg.SampleRate = 48000
	e, err := synth.NewEngine(loopBank(48000), cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestRackWithoutEffectsMatchesDryMix(t *testing.T) {
	p := DefaultParams(48000)
	p.ReverbEnabled = false
	p.ChorusEnabled = false
	p.DCBlockHz = 0
	rack, err := NewRack(48000, p)
	if err != nil {
		t.Fatalf("NewRack failed: %v", err)
	}

	a := newRackEngine(t)
	b := newRackEngine(t)
	a.NoteOn(0, 60, 100)
	b.NoteOn(0, 60, 100)

	got := rack.Render(a, 1000)
	want := b.Process(1000)
	if d := maxAbsDiff(got, want); d > 1e-6 {
		t.Fatalf("dry rack output differs from engine mix: max diff=%g", d)
	}
}

func TestRackAddsReverbTail(t *testing.T) {
	p := DefaultParams(48000)
	p.Room.DurationS = 0.3
	p.ChorusEnabled = false
	rack, err := NewRack(48000, p)
	if err != nil {
		t.Fatalf("NewRack failed: %v", err)
	}
	e := newRackEngine(t)
	e.ControllerChange(0, 91, 127, false)
	e.NoteOn(0, 60, 100)
	rack.Render(e, 4800)
	e.KillNote(0, 60)
	e.StopAllChannels(true)

	tail := rack.Render(e, 4800)
	if e.VoiceCount() != 0 {
		t.Fatalf("voices should be gone: %d", e.VoiceCount())
	}
	if v := rms(tail[:2400]); v < 1e-5 {
		t.Fatalf("expected reverb tail after voices stopped, rms=%g", v)
	}
	for i, s := range tail {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("non-finite sample at %d", i)
		}
	}
}

func TestRackChorusReturn(t *testing.T) {
	p := DefaultParams(48000)
	p.ReverbEnabled = false
	rack, err := NewRack(48000, p)
	if err != nil {
		t.Fatalf("NewRack failed: %v", err)
	}
	e := newRackEngine(t)
	e.ControllerChange(0, 91, 0, false)
	e.ControllerChange(0, 93, 127, false)
	e.NoteOn(0, 60, 100)

	dryEngine := newRackEngine(t)
	dryEngine.ControllerChange(0, 91, 0, false)
	dryEngine.ControllerChange(0, 93, 127, false)
	dryEngine.NoteOn(0, 60, 100)

	wet := rack.Render(e, 4800)
	dry := dryEngine.Process(4800)
	if d := maxAbsDiff(wet[2400:], dry[2400:]); d < 1e-4 {
		t.Fatalf("chorus return should change the mix, max diff=%g", d)
	}
}

func TestNewRackRejectsInvalidParams(t *testing.T) {
	p := DefaultParams(48000)
	p.ReverbLevel = -1
	if _, err := NewRack(48000, p); err == nil {
		t.Fatalf("expected error for negative reverb level")
	}
	p = DefaultParams(48000)
	p.ChorusStages = 9
	if _, err := NewRack(48000, p); err == nil {
		t.Fatalf("expected error for too many chorus stages")
	}
	p = DefaultParams(48000)
	p.ReverbIRPath = "does-not-exist.wav"
	if _, err := NewRack(48000, p); err == nil {
		t.Fatalf("expected error for missing IR file")
	}
}
