package synth

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-wavesynth/dsp"
)

// ChannelSnapshot is the restorable state of one channel.
type ChannelSnapshot struct {
	Program         int       `json:"program"`
	BankMSB         int       `json:"bank_msb"`
	BankLSB         int       `json:"bank_lsb"`
	Drums           bool      `json:"drums"`
	LockPreset      bool      `json:"lock_preset,omitempty"`
	Muted           bool      `json:"muted,omitempty"`
	Mono            bool      `json:"mono,omitempty"`
	Controllers     [128]int  `json:"controllers"`
	Locked          [128]bool `json:"locked"`
	PitchWheel      int       `json:"pitch_wheel"`
	PitchBendRange  float64   `json:"pitch_bend_range"`
	ChannelPressure int       `json:"channel_pressure"`
	Transpose       float64   `json:"transpose,omitempty"`
	CoarseCents     float64   `json:"coarse_cents,omitempty"`
	FineCents       float64   `json:"fine_cents,omitempty"`
	VibratoDepth    float64   `json:"vibrato_depth,omitempty"`
	VibratoRate     float64   `json:"vibrato_rate,omitempty"`
	VibratoDelay    float64   `json:"vibrato_delay,omitempty"`
}

// KeyModifierSnapshot is one stored key modifier.
type KeyModifierSnapshot struct {
	Channel  int         `json:"channel"`
	Note     int         `json:"note"`
	Modifier KeyModifier `json:"modifier"`
}

// Snapshot is the restorable state of the whole engine, excluding voices.
type Snapshot struct {
	Channels      []ChannelSnapshot     `json:"channels"`
	MasterGain    float64               `json:"master_gain"`
	MasterPan     float64               `json:"master_pan"`
	MIDIVolume    float64               `json:"midi_volume"`
	MasterTuning  float64               `json:"master_tuning"`
	Transposition float64               `json:"transposition"`
	ReverbGain    float64               `json:"reverb_gain"`
	ChorusGain    float64               `json:"chorus_gain"`
	VoiceCap      int                   `json:"voice_cap"`
	Interpolation string                `json:"interpolation"`
	System        string                `json:"system"`
	KeyModifiers  []KeyModifierSnapshot `json:"key_modifiers,omitempty"`
}

// Snapshot captures the current channel and master state.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		Channels:      make([]ChannelSnapshot, len(e.channels)),
		MasterGain:    e.masterGain,
		MasterPan:     e.masterPan,
		MIDIVolume:    e.midiVolume,
		MasterTuning:  e.masterTuning,
		Transposition: e.transposition,
		ReverbGain:    e.reverbGain,
		ChorusGain:    e.chorusGain,
		VoiceCap:      e.voiceCap,
		Interpolation: e.interpolation.String(),
		System:        e.system.String(),
	}
	for i, c := range e.channels {
		s.Channels[i] = ChannelSnapshot{
			Program:         c.program,
			BankMSB:         c.bankMSB,
			BankLSB:         c.bankLSB,
			Drums:           c.drums,
			LockPreset:      c.lockPreset,
			Muted:           c.muted,
			Mono:            c.mono,
			Controllers:     c.controllers,
			Locked:          c.locked,
			PitchWheel:      c.pitchWheel,
			PitchBendRange:  c.pitchBendRange,
			ChannelPressure: c.channelPressure,
			Transpose:       c.transpose,
			CoarseCents:     c.coarseCents,
			FineCents:       c.fineCents,
			VibratoDepth:    c.vibrato.depth,
			VibratoRate:     c.vibrato.rate,
			VibratoDelay:    c.vibrato.delay,
		}
	}
	for k, m := range e.keyModifiers {
		s.KeyModifiers = append(s.KeyModifiers, KeyModifierSnapshot{Channel: k.channel, Note: k.note, Modifier: m})
	}
	return s
}

// ApplySnapshot stops all voices and restores the captured state. Channels
// beyond the engine's channel count are ignored.
func (e *Engine) ApplySnapshot(s *Snapshot) {
	e.Schedule(e.now, Action{Kind: ActionApplySnapshot, Snapshot: s})
}

func (e *Engine) applySnapshot(s *Snapshot) {
	if s == nil {
		return
	}
	e.stopAll(true)
	e.masterGain = clampf(s.MasterGain, 0, 10)
	e.masterPan = clampf(s.MasterPan, -1, 1)
	e.midiVolume = clampf(s.MIDIVolume, 0, 1)
	e.masterTuning = s.MasterTuning
	e.transposition = s.Transposition
	e.reverbGain = clampf(s.ReverbGain, 0, 10)
	e.chorusGain = clampf(s.ChorusGain, 0, 10)
	e.voiceCap = max(0, s.VoiceCap)
	if m, ok := dsp.ParseInterpolation(s.Interpolation); ok {
		e.interpolation = m
	}
	if m, ok := ParseSystemMode(s.System); ok {
		e.system = m
	}
	for i, cs := range s.Channels {
		if i >= len(e.channels) {
			break
		}
		c := e.channels[i]
		c.controllers = cs.Controllers
		c.locked = cs.Locked
		c.pitchWheel = clampInt(cs.PitchWheel, 0, 16383)
		c.pitchBendRange = cs.PitchBendRange
		c.channelPressure = clampInt(cs.ChannelPressure, 0, 127)
		c.transpose = cs.Transpose
		c.coarseCents = cs.CoarseCents
		c.fineCents = cs.FineCents
		c.updateTuning()
		c.vibrato = vibratoOverride{depth: cs.VibratoDepth, rate: cs.VibratoRate, delay: cs.VibratoDelay}
		c.mono = cs.Mono
		c.muted = cs.Muted
		c.holdPedal = c.controllers[ccHoldPedal] >= 64
		c.bankMSB = cs.BankMSB
		c.bankLSB = cs.BankLSB
		c.drums = cs.Drums
		c.program = clampInt(cs.Program, 0, 127)
		c.lockPreset = cs.LockPreset
		c.applyPreset()
		e.emitChannelProperty(c)
	}
	e.keyModifiers = nil
	for _, km := range s.KeyModifiers {
		e.AddKeyModifier(km.Channel, km.Note, km.Modifier)
	}
}

// WriteSnapshot stores s as indented JSON.
func WriteSnapshot(path string, s *Snapshot) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return &s, nil
}
