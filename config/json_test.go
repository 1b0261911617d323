package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/algo-wavesynth/synth"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadJSONAppliesEngineEffectsAndChannels(t *testing.T) {
	path := writeSettings(t, `{
  "soundbank": "banks/piano.json",
  "sample_rate": 48000,
  "voice_cap": 64,
  "interpolation": "linear",
  "system": "XG",
  "high_performance": true,
  "master_gain": 0.8,
  "reverb_level": 0.5,
  "reverb_ir_path": "/abs/ir.wav",
  "chorus_enabled": false,
  "chorus_stages": 3,
  "per_channel": {
    "1": {"program": 5, "volume": 90, "pan": 20},
    "9": {"drums": true, "muted": true}
  }
}`)

	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	wantBank := filepath.Join(filepath.Dir(path), "banks", "piano.json")
	if s.SoundbankPath != wantBank {
		t.Fatalf("soundbank path: got=%q want=%q", s.SoundbankPath, wantBank)
	}
	if s.Effects.ReverbIRPath != "/abs/ir.wav" {
		t.Fatalf("absolute ir path must be kept: %q", s.Effects.ReverbIRPath)
	}
	if s.Engine.SampleRate != 48000 || s.Engine.VoiceCap != 64 || !s.Engine.HighPerformance {
		t.Fatalf("engine fields mismatch: %+v", s.Engine)
	}
	if s.Engine.Interpolation != dsp.InterpolationLinear || s.Engine.System != synth.SystemXG {
		t.Fatalf("mode fields mismatch: interp=%v system=%v", s.Engine.Interpolation, s.Engine.System)
	}
	if s.MasterGain != 0.8 || s.Effects.ReverbLevel != 0.5 || s.Effects.ChorusEnabled || s.Effects.ChorusStages != 3 {
		t.Fatalf("master/effects mismatch: gain=%f fx=%+v", s.MasterGain, s.Effects)
	}
	c1 := s.Channels[1]
	if c1 == nil || *c1.Program != 5 || *c1.Volume != 90 || *c1.Pan != 20 || c1.Reverb != nil {
		t.Fatalf("channel 1 mismatch: %+v", c1)
	}
	c9 := s.Channels[9]
	if c9 == nil || !*c9.Drums || !*c9.Muted {
		t.Fatalf("channel 9 mismatch: %+v", c9)
	}
}

func TestLoadJSONKeepsDefaultsForAbsentFields(t *testing.T) {
	s, err := LoadJSON(writeSettings(t, `{}`))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	def := synth.DefaultConfig()
	if s.Engine.SampleRate != def.SampleRate || s.Engine.VoiceCap != def.VoiceCap || s.Engine.Channels != def.Channels {
		t.Fatalf("defaults changed: %+v", s.Engine)
	}
	if s.MasterGain != 1 || !s.Effects.ReverbEnabled || !s.Effects.ChorusEnabled {
		t.Fatalf("unexpected defaults: gain=%f fx=%+v", s.MasterGain, s.Effects)
	}
}

func TestLoadJSONRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"sample rate", `{"sample_rate": 100}`},
		{"voice cap", `{"voice_cap": -1}`},
		{"interpolation", `{"interpolation": "sinc"}`},
		{"system", `{"system": "mt32"}`},
		{"master gain", `{"master_gain": -0.5}`},
		{"master pan", `{"master_pan": 2}`},
		{"chorus depth", `{"chorus_depth": 0.5}`},
		{"chorus stages", `{"chorus_stages": 7}`},
		{"channel key", `{"per_channel": {"x": {"program": 1}}}`},
		{"channel out of range", `{"per_channel": {"16": {"program": 1}}}`},
		{"program", `{"per_channel": {"0": {"program": 128}}}`},
		{"volume", `{"per_channel": {"0": {"volume": 200}}}`},
		{"malformed", `{"voice_cap": "many"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadJSON(writeSettings(t, tc.content)); err == nil {
				t.Fatalf("expected error for %s", tc.content)
			}
		})
	}
}

func TestApplyFileRejectsNilDestination(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	s := NewDefaultSettings()
	if err := ApplyFile(s, nil); err != nil {
		t.Fatalf("nil file should be a no-op: %v", err)
	}
}

func testBank() *soundbank.Bank {
	s := &soundbank.Sample{Name: "s", Data: make([]float32, 64), LoopEnd: 64, RootKey: 60, SampleRate: 44100}
	inst := &soundbank.Instrument{Name: "i", Zones: []*soundbank.Zone{{
		KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Sample: s,
	}}}
	zone := func() []*soundbank.Zone {
		return []*soundbank.Zone{{KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: inst}}
	}
	b := &soundbank.Bank{
		Name: "t",
		Presets: []*soundbank.Preset{
			{Name: "piano", Program: 0, Zones: zone()},
			{Name: "organ", Program: 5, Zones: zone()},
			{Name: "kit", Bank: soundbank.PercussionBank, Zones: zone()},
		},
		Instruments: []*soundbank.Instrument{inst},
		Samples:     []*soundbank.Sample{s},
	}
	b.Sort()
	return b
}

func TestSettingsApplyPrimesEngine(t *testing.T) {
	s := NewDefaultSettings()
	f := &File{
		MasterGain: ptr(0.5),
		PerChannel: map[string]ChannelSetting{
			"2": {Program: ptr(5), Muted: ptr(true)},
			"3": {Bank: ptr(128)},
		},
	}
	if err := ApplyFile(s, f); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	e, err := s.NewEngine(testBank())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if g := e.MasterParameter(synth.ParamMasterGain); g != 0.5 {
		t.Fatalf("master gain: got=%f want=0.5", g)
	}
	p2, _ := e.ChannelProperty(2)
	if p2.Program != 5 || p2.PresetName != "organ" || !p2.Muted {
		t.Fatalf("channel 2 mismatch: %+v", p2)
	}
	p3, _ := e.ChannelProperty(3)
	if !p3.Drums || p3.PresetName != "kit" {
		t.Fatalf("channel 3 should play the kit: %+v", p3)
	}
	if _, err := s.NewRack(); err != nil {
		t.Fatalf("NewRack: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
