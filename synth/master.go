package synth

import (
	"fmt"

	"github.com/cwbudde/algo-wavesynth/dsp"
)

// MasterParameter identifies an engine-wide setting.
type MasterParameter int

const (
	ParamMasterGain MasterParameter = iota
	ParamMasterPan
	ParamMIDIVolume
	ParamMasterTuning
	ParamTransposition
	ParamVoiceCap
	ParamInterpolation
	ParamReverbGain
	ParamChorusGain
	ParamHighPerformance
	ParamSystem
	ParamDeviceID
	ParamEventsEnabled
)

func (p MasterParameter) String() string {
	switch p {
	case ParamMasterGain:
		return "master-gain"
	case ParamMasterPan:
		return "master-pan"
	case ParamMIDIVolume:
		return "midi-volume"
	case ParamMasterTuning:
		return "master-tuning"
	case ParamTransposition:
		return "transposition"
	case ParamVoiceCap:
		return "voice-cap"
	case ParamInterpolation:
		return "interpolation"
	case ParamReverbGain:
		return "reverb-gain"
	case ParamChorusGain:
		return "chorus-gain"
	case ParamHighPerformance:
		return "high-performance"
	case ParamSystem:
		return "system"
	case ParamDeviceID:
		return "device-id"
	case ParamEventsEnabled:
		return "events-enabled"
	}
	return "unknown"
}

// ParseMasterParameter maps a parameter name as returned by String back to
// its value.
func ParseMasterParameter(name string) (MasterParameter, bool) {
	for p := ParamMasterGain; p <= ParamEventsEnabled; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// SetMasterParameter changes an engine-wide setting.
func (e *Engine) SetMasterParameter(p MasterParameter, value float64) {
	e.Schedule(e.now, Action{Kind: ActionMasterParameter, Parameter: p, Float: value})
}

func (e *Engine) SetMasterGain(gain float64) { e.SetMasterParameter(ParamMasterGain, gain) }
func (e *Engine) SetMasterPan(pan float64)   { e.SetMasterParameter(ParamMasterPan, pan) }
func (e *Engine) SetMIDIVolume(v float64)    { e.SetMasterParameter(ParamMIDIVolume, v) }

// SetMasterTuning sets the global tuning offset in cents.
func (e *Engine) SetMasterTuning(cents float64) { e.SetMasterParameter(ParamMasterTuning, cents) }

// TransposeAll shifts every melodic channel by semitones.
func (e *Engine) TransposeAll(semitones float64) {
	e.SetMasterParameter(ParamTransposition, semitones)
}

// SetVoiceCap changes the polyphony limit. Excess voices are stopped.
func (e *Engine) SetVoiceCap(n int) { e.SetMasterParameter(ParamVoiceCap, float64(n)) }

// SetInterpolation selects the wavetable interpolation for all voices.
func (e *Engine) SetInterpolation(m dsp.Interpolation) {
	e.SetMasterParameter(ParamInterpolation, float64(m))
}

// SetSystem switches the MIDI system mode.
func (e *Engine) SetSystem(m SystemMode) { e.SetMasterParameter(ParamSystem, float64(m)) }

// SetEventsEnabled gates event delivery.
func (e *Engine) SetEventsEnabled(on bool) {
	e.SetMasterParameter(ParamEventsEnabled, float64(boolToInt(on)))
}

// MasterParameter returns the current value of an engine-wide setting.
func (e *Engine) MasterParameter(p MasterParameter) float64 {
	switch p {
	case ParamMasterGain:
		return e.masterGain
	case ParamMasterPan:
		return e.masterPan
	case ParamMIDIVolume:
		return e.midiVolume
	case ParamMasterTuning:
		return e.masterTuning
	case ParamTransposition:
		return e.transposition
	case ParamVoiceCap:
		return float64(e.voiceCap)
	case ParamInterpolation:
		return float64(e.interpolation)
	case ParamReverbGain:
		return e.reverbGain
	case ParamChorusGain:
		return e.chorusGain
	case ParamHighPerformance:
		return float64(boolToInt(e.highPerformance))
	case ParamSystem:
		return float64(e.system)
	case ParamDeviceID:
		return float64(e.deviceID)
	case ParamEventsEnabled:
		return float64(boolToInt(e.eventsEnabled))
	}
	return 0
}

func (e *Engine) setMasterParameter(p MasterParameter, v float64) {
	if !isFinite(v) {
		e.diagnostic(fmt.Sprintf("%s: value is not finite", p))
		return
	}
	switch p {
	case ParamMasterGain:
		e.masterGain = clampf(v, 0, 10)
	case ParamMasterPan:
		e.masterPan = clampf(v, -1, 1)
	case ParamMIDIVolume:
		e.midiVolume = clampf(v, 0, 1)
	case ParamMasterTuning:
		e.masterTuning = v
	case ParamTransposition:
		e.transposition = v
	case ParamVoiceCap:
		e.voiceCap = max(0, int(v))
		e.trimVoices()
	case ParamInterpolation:
		m := dsp.Interpolation(int(v))
		if m < dsp.InterpolationNone || m > dsp.InterpolationFourthOrder {
			e.diagnostic(fmt.Sprintf("unknown interpolation %d", int(v)))
			return
		}
		e.interpolation = m
	case ParamReverbGain:
		e.reverbGain = clampf(v, 0, 10)
	case ParamChorusGain:
		e.chorusGain = clampf(v, 0, 10)
	case ParamHighPerformance:
		e.highPerformance = v != 0
	case ParamSystem:
		m := SystemMode(int(v))
		if m < SystemGS || m > SystemXG {
			e.diagnostic(fmt.Sprintf("unknown system mode %d", int(v)))
			return
		}
		e.system = m
	case ParamDeviceID:
		e.deviceID = int(v)
	case ParamEventsEnabled:
		e.eventsEnabled = v != 0
	default:
		e.diagnostic(fmt.Sprintf("unknown master parameter %d", int(p)))
		return
	}
	e.emit(Event{Kind: EventMasterParameterChange, Channel: -1, Parameter: p, ParamValue: e.MasterParameter(p)})
}
