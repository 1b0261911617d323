package soundbank

import (
	"errors"
	"fmt"
	"sort"
)

// PercussionBank is the bank number used for drum kits.
const PercussionBank = 128

var (
	ErrNoPresets     = errors.New("soundbank has no presets")
	ErrInvalidSample = errors.New("invalid sample")
)

// Sample is decoded mono PCM with loop metadata.
type Sample struct {
	Name            string
	Data            []float32
	LoopStart       int
	LoopEnd         int
	RootKey         int
	PitchCorrection int
	SampleRate      int
}

// Range is an inclusive MIDI key or velocity range.
type Range struct {
	Min int
	Max int
}

// FullRange covers 0..127.
var FullRange = Range{Min: 0, Max: 127}

// Contains reports whether v lies in the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Zone is a bundle of generators and modulators. Instrument zones reference a
// Sample, preset zones an Instrument. A zone with neither is a global zone.
type Zone struct {
	KeyRange   Range
	VelRange   Range
	Generators []Generator
	Modulators []Modulator
	Sample     *Sample
	Instrument *Instrument
}

// Matches reports whether the zone covers the given note and velocity.
func (z *Zone) Matches(note, velocity int) bool {
	return z.KeyRange.Contains(note) && z.VelRange.Contains(velocity)
}

// Generator returns the value of t in the zone, if set.
func (z *Zone) Generator(t GeneratorType) (int16, bool) {
	if z == nil {
		return 0, false
	}
	for i := len(z.Generators) - 1; i >= 0; i-- {
		if z.Generators[i].Type == t {
			return z.Generators[i].Value, true
		}
	}
	return 0, false
}

// Instrument groups sample zones.
type Instrument struct {
	Name       string
	GlobalZone *Zone
	Zones      []*Zone
}

// Preset groups instrument zones and is addressed by (bank, program).
type Preset struct {
	Name       string
	Bank       int
	Program    int
	GlobalZone *Zone
	Zones      []*Zone
}

// IsDrumKit reports whether the preset lives in the percussion bank.
func (p *Preset) IsDrumKit() bool {
	return p.Bank == PercussionBank
}

// Bank is an immutable soundbank object graph. It must not be mutated once
// handed to an engine.
type Bank struct {
	Name              string
	Presets           []*Preset
	Instruments       []*Instrument
	Samples           []*Sample
	DefaultModulators []Modulator
}

// Sort orders presets by program, then bank.
func (b *Bank) Sort() {
	sort.SliceStable(b.Presets, func(i, j int) bool {
		if b.Presets[i].Program != b.Presets[j].Program {
			return b.Presets[i].Program < b.Presets[j].Program
		}
		return b.Presets[i].Bank < b.Presets[j].Bank
	})
}

// Preset returns the exact (bank, program) preset or nil.
func (b *Bank) Preset(bank, program int) *Preset {
	if b == nil {
		return nil
	}
	for _, p := range b.Presets {
		if p.Bank == bank && p.Program == program {
			return p
		}
	}
	return nil
}

// Resolve finds a preset with fallbacks: percussion requests fall back to the
// first drum kit then to any preset, melodic ones to bank 0 with the same
// program, then to the first melodic preset.
func (b *Bank) Resolve(bank, program int, drums bool) *Preset {
	if b == nil || len(b.Presets) == 0 {
		return nil
	}
	if p := b.Preset(bank, program); p != nil {
		return p
	}
	if drums {
		if p := b.Preset(PercussionBank, program); p != nil {
			return p
		}
		if p := b.Preset(PercussionBank, 0); p != nil {
			return p
		}
		for _, p := range b.Presets {
			if p.IsDrumKit() {
				return p
			}
		}
		return b.Presets[0]
	}
	if p := b.Preset(0, program); p != nil {
		return p
	}
	for _, p := range b.Presets {
		if p.Program == program && !p.IsDrumKit() {
			return p
		}
	}
	for _, p := range b.Presets {
		if !p.IsDrumKit() {
			return p
		}
	}
	return b.Presets[0]
}

// Modulators returns the bank's effective default modulator list.
func (b *Bank) Modulators() []Modulator {
	if b == nil || len(b.DefaultModulators) == 0 {
		return DefaultModulators()
	}
	return MergeDefaultModulators(b.DefaultModulators)
}

// Validate checks the invariants the engine relies on.
func (b *Bank) Validate() error {
	if b == nil || len(b.Presets) == 0 {
		return ErrNoPresets
	}
	for _, p := range b.Presets {
		for _, pz := range p.Zones {
			if pz.Instrument == nil {
				continue
			}
			for _, iz := range pz.Instrument.Zones {
				if iz.Sample == nil {
					continue
				}
				if err := iz.Sample.Validate(); err != nil {
					return fmt.Errorf("preset %q instrument %q: %w", p.Name, pz.Instrument.Name, err)
				}
			}
		}
	}
	return nil
}

// Validate checks sample data and loop points.
func (s *Sample) Validate() error {
	if len(s.Data) == 0 {
		return fmt.Errorf("%w %q: no data", ErrInvalidSample, s.Name)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w %q: sample rate must be > 0", ErrInvalidSample, s.Name)
	}
	if s.LoopStart < 0 || s.LoopEnd > len(s.Data) || s.LoopStart > s.LoopEnd {
		return fmt.Errorf("%w %q: loop [%d,%d] outside data", ErrInvalidSample, s.Name, s.LoopStart, s.LoopEnd)
	}
	return nil
}
