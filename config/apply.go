package config

import (
	"sort"

	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/algo-wavesynth/synth"
)

const (
	ccBankSelect = 0
	ccBankLSB    = 32
	ccVolume     = 7
	ccPan        = 10
	ccReverb     = 91
	ccChorus     = 93
)

// NewEngine builds an engine from s with bank and primes master and channel
// state.
func (s *Settings) NewEngine(bank *soundbank.Bank) (*synth.Engine, error) {
	e, err := synth.NewEngine(bank, s.Engine)
	if err != nil {
		return nil, err
	}
	s.Apply(e)
	return e, nil
}

// NewRack builds the effects rack at the engine sample rate.
func (s *Settings) NewRack() (*effects.Rack, error) {
	return effects.NewRack(s.Engine.SampleRate, s.Effects)
}

// LoadSoundbank loads the configured soundbank description.
func (s *Settings) LoadSoundbank() (*soundbank.Bank, error) {
	return soundbank.LoadJSON(s.SoundbankPath)
}

// Apply sets master parameters and channel state on e immediately.
func (s *Settings) Apply(e *synth.Engine) {
	e.SetMasterGain(s.MasterGain)
	e.SetMasterPan(s.MasterPan)
	if s.Transpose != 0 {
		e.TransposeAll(s.Transpose)
	}

	channels := make([]int, 0, len(s.Channels))
	for ch := range s.Channels {
		channels = append(channels, ch)
	}
	sort.Ints(channels)
	for _, ch := range channels {
		cs := s.Channels[ch]
		if cs.Drums != nil {
			e.SetDrums(ch, *cs.Drums)
		}
		if cs.Bank != nil {
			if *cs.Bank == soundbank.PercussionBank {
				e.SetDrums(ch, true)
			} else {
				e.ControllerChange(ch, ccBankSelect, *cs.Bank, true)
				e.ControllerChange(ch, ccBankLSB, *cs.Bank, true)
			}
		}
		if cs.Program != nil {
			e.ProgramChange(ch, *cs.Program)
		}
		if cs.Volume != nil {
			e.ControllerChange(ch, ccVolume, *cs.Volume, true)
		}
		if cs.Pan != nil {
			e.ControllerChange(ch, ccPan, *cs.Pan, true)
		}
		if cs.Reverb != nil {
			e.ControllerChange(ch, ccReverb, *cs.Reverb, true)
		}
		if cs.Chorus != nil {
			e.ControllerChange(ch, ccChorus, *cs.Chorus, true)
		}
		if cs.Transpose != nil {
			e.SetChannelTranspose(ch, *cs.Transpose)
		}
		if cs.Muted != nil {
			e.SetChannelMuted(ch, *cs.Muted)
		}
	}
}
