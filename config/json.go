// Package config loads render settings from JSON and applies them on top of
// the engine and effects defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/synth"
)

// File is the JSON schema for render settings. Absent fields keep defaults.
type File struct {
	Soundbank       string   `json:"soundbank"`
	SampleRate      *int     `json:"sample_rate"`
	Channels        *int     `json:"channels"`
	VoiceCap        *int     `json:"voice_cap"`
	Interpolation   string   `json:"interpolation"`
	System          string   `json:"system"`
	HighPerformance *bool    `json:"high_performance"`
	MasterGain      *float64 `json:"master_gain"`
	MasterPan       *float64 `json:"master_pan"`
	Transpose       *float64 `json:"transpose"`

	ReverbEnabled   *bool    `json:"reverb_enabled"`
	ReverbLevel     *float64 `json:"reverb_level"`
	ReverbDampHz    *float64 `json:"reverb_damp_hz"`
	ReverbIRPath    string   `json:"reverb_ir_path"`
	ReverbDurationS *float64 `json:"reverb_duration_s"`
	ChorusEnabled   *bool    `json:"chorus_enabled"`
	ChorusLevel     *float64 `json:"chorus_level"`
	ChorusDepth     *float64 `json:"chorus_depth"`
	ChorusSpeedHz   *float64 `json:"chorus_speed_hz"`
	ChorusStages    *int     `json:"chorus_stages"`

	PerChannel map[string]ChannelSetting `json:"per_channel"`
}

// ChannelSetting is a partial channel override entry.
type ChannelSetting struct {
	Program   *int     `json:"program"`
	Bank      *int     `json:"bank"`
	Drums     *bool    `json:"drums"`
	Volume    *int     `json:"volume"`
	Pan       *int     `json:"pan"`
	Reverb    *int     `json:"reverb"`
	Chorus    *int     `json:"chorus"`
	Transpose *float64 `json:"transpose"`
	Muted     *bool    `json:"muted"`
}

// ChannelState is the resolved per-channel setup applied after engine
// construction. Nil fields are left at the engine default.
type ChannelState struct {
	Program   *int
	Bank      *int
	Drums     *bool
	Volume    *int
	Pan       *int
	Reverb    *int
	Chorus    *int
	Transpose *float64
	Muted     *bool
}

// Settings is everything needed to build and prime an engine and its effects.
type Settings struct {
	SoundbankPath string
	Engine        synth.Config
	Effects       effects.Params
	MasterGain    float64
	MasterPan     float64
	Transpose     float64
	Channels      map[int]*ChannelState
}

// NewDefaultSettings returns the engine and effects defaults.
func NewDefaultSettings() *Settings {
	cfg := synth.DefaultConfig()
	return &Settings{
		Engine:     cfg,
		Effects:    effects.DefaultParams(cfg.SampleRate),
		MasterGain: 1,
		Channels:   make(map[int]*ChannelState),
	}
}

// LoadJSON loads a settings file and applies it on top of defaults. Relative
// paths are resolved against the file's directory.
func LoadJSON(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := NewDefaultSettings()
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	s.SoundbankPath = resolvePath(base, s.SoundbankPath)
	s.Effects.ReverbIRPath = resolvePath(base, s.Effects.ReverbIRPath)
	return s, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// ApplyFile applies a parsed settings file onto existing settings.
func ApplyFile(dst *Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.Soundbank != "" {
		dst.SoundbankPath = strings.TrimSpace(f.Soundbank)
	}
	if f.SampleRate != nil {
		if *f.SampleRate < 8000 {
			return fmt.Errorf("sample_rate must be >= 8000")
		}
		dst.Engine.SampleRate = *f.SampleRate
		dst.Effects.Room.SampleRate = *f.SampleRate
	}
	if f.Channels != nil {
		if *f.Channels < 1 {
			return fmt.Errorf("channels must be >= 1")
		}
		dst.Engine.Channels = *f.Channels
	}
	if f.VoiceCap != nil {
		if *f.VoiceCap < 0 {
			return fmt.Errorf("voice_cap must be >= 0")
		}
		dst.Engine.VoiceCap = *f.VoiceCap
	}
	if f.Interpolation != "" {
		m, ok := dsp.ParseInterpolation(strings.TrimSpace(f.Interpolation))
		if !ok {
			return fmt.Errorf("unknown interpolation %q", f.Interpolation)
		}
		dst.Engine.Interpolation = m
	}
	if f.System != "" {
		m, ok := synth.ParseSystemMode(strings.ToLower(strings.TrimSpace(f.System)))
		if !ok {
			return fmt.Errorf("unknown system %q (expected gm, gm2, gs or xg)", f.System)
		}
		dst.Engine.System = m
	}
	if f.HighPerformance != nil {
		dst.Engine.HighPerformance = *f.HighPerformance
	}
	if f.MasterGain != nil {
		if *f.MasterGain < 0 {
			return fmt.Errorf("master_gain must be >= 0")
		}
		dst.MasterGain = *f.MasterGain
	}
	if f.MasterPan != nil {
		if *f.MasterPan < -1 || *f.MasterPan > 1 {
			return fmt.Errorf("master_pan must be in [-1,1]")
		}
		dst.MasterPan = *f.MasterPan
	}
	if f.Transpose != nil {
		dst.Transpose = *f.Transpose
	}

	if err := applyEffects(&dst.Effects, f); err != nil {
		return err
	}
	return applyChannels(dst, f.PerChannel)
}

func applyEffects(p *effects.Params, f *File) error {
	if f.ReverbEnabled != nil {
		p.ReverbEnabled = *f.ReverbEnabled
	}
	if f.ReverbLevel != nil {
		if *f.ReverbLevel < 0 {
			return fmt.Errorf("reverb_level must be >= 0")
		}
		p.ReverbLevel = *f.ReverbLevel
	}
	if f.ReverbDampHz != nil {
		if *f.ReverbDampHz < 0 {
			return fmt.Errorf("reverb_damp_hz must be >= 0")
		}
		p.ReverbDampHz = *f.ReverbDampHz
	}
	if f.ReverbIRPath != "" {
		p.ReverbIRPath = strings.TrimSpace(f.ReverbIRPath)
	}
	if f.ReverbDurationS != nil {
		if *f.ReverbDurationS <= 0 {
			return fmt.Errorf("reverb_duration_s must be > 0")
		}
		p.Room.DurationS = *f.ReverbDurationS
	}
	if f.ChorusEnabled != nil {
		p.ChorusEnabled = *f.ChorusEnabled
	}
	if f.ChorusLevel != nil {
		if *f.ChorusLevel < 0 {
			return fmt.Errorf("chorus_level must be >= 0")
		}
		p.ChorusLevel = *f.ChorusLevel
	}
	if f.ChorusDepth != nil {
		if *f.ChorusDepth < 0 || *f.ChorusDepth > 0.01 {
			return fmt.Errorf("chorus_depth must be in [0,0.01]")
		}
		p.ChorusDepth = *f.ChorusDepth
	}
	if f.ChorusSpeedHz != nil {
		if *f.ChorusSpeedHz < 0.05 || *f.ChorusSpeedHz > 5 {
			return fmt.Errorf("chorus_speed_hz must be in [0.05,5]")
		}
		p.ChorusSpeedHz = *f.ChorusSpeedHz
	}
	if f.ChorusStages != nil {
		if *f.ChorusStages < 1 || *f.ChorusStages > 6 {
			return fmt.Errorf("chorus_stages must be in [1,6]")
		}
		p.ChorusStages = *f.ChorusStages
	}
	return nil
}

func applyChannels(dst *Settings, perChannel map[string]ChannelSetting) error {
	if len(perChannel) == 0 {
		return nil
	}
	if dst.Channels == nil {
		dst.Channels = make(map[int]*ChannelState)
	}

	keys := make([]string, 0, len(perChannel))
	for k := range perChannel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch, err := strconv.Atoi(k)
		if err != nil || ch < 0 || ch >= dst.Engine.Channels {
			return fmt.Errorf("invalid per_channel key %q (expected 0..%d)", k, dst.Engine.Channels-1)
		}
		override := perChannel[k]
		cs, ok := dst.Channels[ch]
		if !ok || cs == nil {
			cs = &ChannelState{}
			dst.Channels[ch] = cs
		}
		if override.Program != nil {
			if *override.Program < 0 || *override.Program > 127 {
				return fmt.Errorf("per_channel[%d].program must be in 0..127", ch)
			}
			cs.Program = override.Program
		}
		if override.Bank != nil {
			if *override.Bank < 0 || *override.Bank > 128 {
				return fmt.Errorf("per_channel[%d].bank must be in 0..128", ch)
			}
			cs.Bank = override.Bank
		}
		for _, cc := range []struct {
			name string
			src  *int
			dst  **int
		}{
			{"volume", override.Volume, &cs.Volume},
			{"pan", override.Pan, &cs.Pan},
			{"reverb", override.Reverb, &cs.Reverb},
			{"chorus", override.Chorus, &cs.Chorus},
		} {
			if cc.src == nil {
				continue
			}
			if *cc.src < 0 || *cc.src > 127 {
				return fmt.Errorf("per_channel[%d].%s must be in 0..127", ch, cc.name)
			}
			*cc.dst = cc.src
		}
		if override.Drums != nil {
			cs.Drums = override.Drums
		}
		if override.Transpose != nil {
			cs.Transpose = override.Transpose
		}
		if override.Muted != nil {
			cs.Muted = override.Muted
		}
	}
	return nil
}
