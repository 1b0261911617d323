package seqscript

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/algo-wavesynth/synth"
)

func TestRunProducesOrderedEvents(t *testing.T) {
	src := `
tempo(60)
note(beats(2), 0, 64, 100, 0.5)
note(0, 0, 60, 90, beats(1))
cc(0.25, 1, 7, 80)
program(0, 1, 5)
length(4)
`
	s, err := Run(context.Background(), src, "inline")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []struct {
		time float64
		kind synth.ActionKind
		num  int
	}{
		{0, synth.ActionNoteOn, 60},
		{0, synth.ActionProgramChange, 5},
		{0.25, synth.ActionControllerChange, 7},
		{1, synth.ActionNoteOff, 60},
		{2, synth.ActionNoteOn, 64},
		{2.5, synth.ActionNoteOff, 64},
	}
	if len(s.Events) != len(want) {
		t.Fatalf("event count: got=%d want=%d", len(s.Events), len(want))
	}
	for i, w := range want {
		ev := s.Events[i]
		if math.Abs(ev.Time-w.time) > 1e-9 || ev.Action.Kind != w.kind || ev.Action.Number != w.num {
			t.Fatalf("event %d: got=(%f,%s,%d) want=(%f,%s,%d)", i, ev.Time, ev.Action.Kind, ev.Action.Number, w.time, w.kind, w.num)
		}
	}
	if s.Duration() != 4 {
		t.Fatalf("duration: got=%f want=4", s.Duration())
	}
}

func TestRunSupportsLoopsAndSysex(t *testing.T) {
	src := `
for i = 0, 3 do
  note_on(i * 0.1, 0, 60 + i, 100)
end
sysex(0.5, {0x7E, 0x7F, 0x09, 0x01, 0xF7})
master(0.6, "master-gain", 0.5)
bend(0.7, 0, 16383)
mute(0.8, 2, true)
stop_all(0.9, true)
`
	s, err := Run(context.Background(), src, "loop")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(s.Events) != 9 {
		t.Fatalf("event count: got=%d want=9", len(s.Events))
	}
	sx := s.Events[4].Action
	if sx.Kind != synth.ActionSystemExclusive || len(sx.Data) != 5 || sx.Data[0] != 0x7E {
		t.Fatalf("sysex event mismatch: %+v", sx)
	}
	m := s.Events[5].Action
	if m.Kind != synth.ActionMasterParameter || m.Parameter != synth.ParamMasterGain || m.Float != 0.5 {
		t.Fatalf("master event mismatch: %+v", m)
	}
	if s.Events[7].Action.Kind != synth.ActionMuteChannel || !s.Events[7].Action.On {
		t.Fatalf("mute event mismatch: %+v", s.Events[7].Action)
	}
	if !s.Events[8].Action.Force {
		t.Fatalf("stop_all should carry force")
	}
	if s.Duration() != 0.9 {
		t.Fatalf("duration from last event: got=%f want=0.9", s.Duration())
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative time", `note_on(-1, 0, 60, 100)`},
		{"key range", `note_on(0, 0, 128, 100)`},
		{"zero duration", `note(0, 0, 60, 100, 0)`},
		{"bend range", `bend(0, 0, 20000)`},
		{"unknown master", `master(0, "volume", 1)`},
		{"sysex byte", `sysex(0, {300})`},
		{"syntax", `note_on(0, 0`},
		{"tempo", `tempo(0)`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Run(context.Background(), tc.src, tc.name); err == nil {
				t.Fatalf("expected error for %q", tc.src)
			}
		})
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := Run(ctx, `while true do end`, "spin"); err == nil {
		t.Fatalf("expected error from cancelled script")
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.lua")
	if err := os.WriteFile(path, []byte(`note(0, 0, 60, 100, 0.1)`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	s, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("event count: got=%d want=2", len(s.Events))
	}
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Fatalf("expected error for missing script")
	}
}

func testEngine(t *testing.T) *synth.Engine {
	t.Helper()
	data := make([]float32, 4000)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/80))
	}
	s := &soundbank.Sample{Name: "s", Data: data, LoopEnd: len(data), RootKey: 60, SampleRate: 48000}
	inst := &soundbank.Instrument{Name: "i", Zones: []*soundbank.Zone{{
		KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange,
		Generators: []soundbank.Generator{{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous}},
		Sample:     s,
	}}}
	bank := &soundbank.Bank{
		Presets: []*soundbank.Preset{{Name: "p", Zones: []*soundbank.Zone{{
			KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: inst,
		}}}},
		Instruments: []*soundbank.Instrument{inst},
		Samples:     []*soundbank.Sample{s},
	}
	cfg := synth.DefaultConfig()
	cfg.SampleRate = 48000
	e, err := synth.NewEngine(bank, cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestScoreDrivesEngine(t *testing.T) {
	s, err := Run(context.Background(), `
note(0.01, 0, 60, 100, 0.05)
note(0.02, 0, 64, 100, 0.05)
`, "drive")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	e := testEngine(t)
	e.AttachSequencer(s)

	out := synth.NewOutput(e.ChannelCount(), 480)
	maxVoices := 0
	for i := 0; i < 20; i++ {
		e.Render(out)
		maxVoices = max(maxVoices, e.VoiceCount())
	}
	if maxVoices != 2 {
		t.Fatalf("expected both notes to sound together, max voices=%d", maxVoices)
	}
	if s.Remaining() != 0 {
		t.Fatalf("all events should be scheduled, remaining=%d", s.Remaining())
	}
	for i := 0; i < 50 && e.VoiceCount() > 0; i++ {
		e.Render(out)
	}
	if e.VoiceCount() != 0 {
		t.Fatalf("note-offs should release every voice, remaining=%d", e.VoiceCount())
	}
}

func TestScoreAdvanceRespectsLookahead(t *testing.T) {
	s := &Score{Lookahead: 0.1}
	s.Add(0.05, synth.Action{Kind: synth.ActionNoteOn, Number: 60, Value: 100})
	s.Add(0.5, synth.Action{Kind: synth.ActionNoteOn, Number: 62, Value: 100})
	e := testEngine(t)
	s.Advance(e, 0)
	if s.Remaining() != 1 {
		t.Fatalf("only the first event is inside the window, remaining=%d", s.Remaining())
	}
	s.Advance(e, 0.45)
	if s.Remaining() != 0 {
		t.Fatalf("second event should now be scheduled, remaining=%d", s.Remaining())
	}
	s.Rewind()
	if s.Remaining() != 2 {
		t.Fatalf("rewind should restore all events, remaining=%d", s.Remaining())
	}
}
