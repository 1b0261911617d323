package soundbank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-wavesynth/internal/wavio"
)

// File is the JSON schema for soundbank descriptions.
type File struct {
	Name              string           `json:"name"`
	Samples           []SampleFile     `json:"samples"`
	Instruments       []InstrumentFile `json:"instruments"`
	Presets           []PresetFile     `json:"presets"`
	DefaultModulators []ModulatorFile  `json:"default_modulators,omitempty"`
}

// SampleFile describes a sample either inline or by WAV path.
type SampleFile struct {
	Name            string    `json:"name"`
	Path            string    `json:"path,omitempty"`
	Data            []float32 `json:"data,omitempty"`
	SampleRate      int       `json:"sample_rate,omitempty"`
	LoopStart       *int      `json:"loop_start,omitempty"`
	LoopEnd         *int      `json:"loop_end,omitempty"`
	RootKey         *int      `json:"root_key,omitempty"`
	PitchCorrection int       `json:"pitch_correction,omitempty"`
}

// ZoneFile is a zone entry. Generators are keyed by SoundFont identifier.
type ZoneFile struct {
	KeyRange   *[2]int         `json:"key_range,omitempty"`
	VelRange   *[2]int         `json:"vel_range,omitempty"`
	Sample     string          `json:"sample,omitempty"`
	Instrument string          `json:"instrument,omitempty"`
	Generators map[string]int  `json:"generators,omitempty"`
	Modulators []ModulatorFile `json:"modulators,omitempty"`
}

// ModulatorFile is a modulator entry with raw SoundFont source operands.
type ModulatorFile struct {
	Source          uint16 `json:"source"`
	SecondarySource uint16 `json:"secondary_source,omitempty"`
	Destination     string `json:"destination"`
	Amount          int    `json:"amount"`
	Transform       uint16 `json:"transform,omitempty"`
}

// InstrumentFile is an instrument entry.
type InstrumentFile struct {
	Name   string     `json:"name"`
	Global *ZoneFile  `json:"global,omitempty"`
	Zones  []ZoneFile `json:"zones"`
}

// PresetFile is a preset entry.
type PresetFile struct {
	Name    string     `json:"name"`
	Bank    int        `json:"bank"`
	Program int        `json:"program"`
	Global  *ZoneFile  `json:"global,omitempty"`
	Zones   []ZoneFile `json:"zones"`
}

// ReadFile parses a soundbank description without resolving samples.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// WriteFile stores a soundbank description as indented JSON.
func WriteFile(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// LoadJSON loads a soundbank description and its sample WAV files.
func LoadJSON(path string) (*Bank, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f, filepath.Dir(path))
}

// Build resolves a parsed description into a Bank. Relative sample paths are
// resolved against baseDir.
func Build(f *File, baseDir string) (*Bank, error) {
	if f == nil {
		return nil, fmt.Errorf("nil soundbank file")
	}
	bank := &Bank{Name: f.Name}

	samples := make(map[string]*Sample, len(f.Samples))
	for _, sf := range f.Samples {
		s, err := buildSample(sf, baseDir)
		if err != nil {
			return nil, err
		}
		if _, dup := samples[s.Name]; dup {
			return nil, fmt.Errorf("duplicate sample %q", s.Name)
		}
		samples[s.Name] = s
		bank.Samples = append(bank.Samples, s)
	}

	instruments := make(map[string]*Instrument, len(f.Instruments))
	for _, inf := range f.Instruments {
		inst := &Instrument{Name: inf.Name}
		if inf.Global != nil {
			z, err := buildZone(*inf.Global)
			if err != nil {
				return nil, fmt.Errorf("instrument %q global zone: %w", inf.Name, err)
			}
			inst.GlobalZone = z
		}
		for i, zf := range inf.Zones {
			z, err := buildZone(zf)
			if err != nil {
				return nil, fmt.Errorf("instrument %q zone %d: %w", inf.Name, i, err)
			}
			s, ok := samples[zf.Sample]
			if !ok {
				return nil, fmt.Errorf("instrument %q zone %d: unknown sample %q", inf.Name, i, zf.Sample)
			}
			z.Sample = s
			inst.Zones = append(inst.Zones, z)
		}
		instruments[inst.Name] = inst
		bank.Instruments = append(bank.Instruments, inst)
	}

	for _, pf := range f.Presets {
		if pf.Bank < 0 || pf.Bank > PercussionBank {
			return nil, fmt.Errorf("preset %q: bank must be in 0..128", pf.Name)
		}
		if pf.Program < 0 || pf.Program > 127 {
			return nil, fmt.Errorf("preset %q: program must be in 0..127", pf.Name)
		}
		p := &Preset{Name: pf.Name, Bank: pf.Bank, Program: pf.Program}
		if pf.Global != nil {
			z, err := buildZone(*pf.Global)
			if err != nil {
				return nil, fmt.Errorf("preset %q global zone: %w", pf.Name, err)
			}
			p.GlobalZone = z
		}
		for i, zf := range pf.Zones {
			z, err := buildZone(zf)
			if err != nil {
				return nil, fmt.Errorf("preset %q zone %d: %w", pf.Name, i, err)
			}
			inst, ok := instruments[zf.Instrument]
			if !ok {
				return nil, fmt.Errorf("preset %q zone %d: unknown instrument %q", pf.Name, i, zf.Instrument)
			}
			z.Instrument = inst
			p.Zones = append(p.Zones, z)
		}
		bank.Presets = append(bank.Presets, p)
	}

	if len(f.DefaultModulators) > 0 {
		mods, err := buildModulators(f.DefaultModulators)
		if err != nil {
			return nil, fmt.Errorf("default modulators: %w", err)
		}
		bank.DefaultModulators = mods
	}

	bank.Sort()
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return bank, nil
}

func buildSample(sf SampleFile, baseDir string) (*Sample, error) {
	name := strings.TrimSpace(sf.Name)
	if name == "" {
		return nil, fmt.Errorf("sample name must not be empty")
	}
	s := &Sample{
		Name:            name,
		Data:            sf.Data,
		SampleRate:      sf.SampleRate,
		RootKey:         60,
		PitchCorrection: sf.PitchCorrection,
	}
	if sf.Path != "" {
		path := sf.Path
		if !filepath.IsAbs(path) {
			path = filepath.Clean(filepath.Join(baseDir, path))
		}
		data, rate, err := wavio.ReadMono(path)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", name, err)
		}
		s.Data = data
		s.SampleRate = rate
	}
	if s.SampleRate <= 0 {
		return nil, fmt.Errorf("sample %q: sample_rate must be > 0", name)
	}
	if sf.RootKey != nil {
		if *sf.RootKey < 0 || *sf.RootKey > 127 {
			return nil, fmt.Errorf("sample %q: root_key must be in 0..127", name)
		}
		s.RootKey = *sf.RootKey
	}
	s.LoopEnd = len(s.Data)
	if sf.LoopStart != nil {
		s.LoopStart = *sf.LoopStart
	}
	if sf.LoopEnd != nil {
		s.LoopEnd = *sf.LoopEnd
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildZone(zf ZoneFile) (*Zone, error) {
	z := &Zone{KeyRange: FullRange, VelRange: FullRange}
	if zf.KeyRange != nil {
		r, err := buildRange(*zf.KeyRange)
		if err != nil {
			return nil, fmt.Errorf("key_range: %w", err)
		}
		z.KeyRange = r
	}
	if zf.VelRange != nil {
		r, err := buildRange(*zf.VelRange)
		if err != nil {
			return nil, fmt.Errorf("vel_range: %w", err)
		}
		z.VelRange = r
	}

	names := make([]string, 0, len(zf.Generators))
	for k := range zf.Generators {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		t, ok := GeneratorByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown generator %q", name)
		}
		v := zf.Generators[name]
		if v < -32768 || v > 32767 {
			return nil, fmt.Errorf("generator %q value %d out of int16 range", name, v)
		}
		z.Generators = append(z.Generators, Generator{Type: t, Value: int16(v)})
	}

	mods, err := buildModulators(zf.Modulators)
	if err != nil {
		return nil, err
	}
	z.Modulators = mods
	return z, nil
}

func buildModulators(in []ModulatorFile) ([]Modulator, error) {
	out := make([]Modulator, 0, len(in))
	for i, mf := range in {
		dest, ok := GeneratorByName(mf.Destination)
		if !ok {
			return nil, fmt.Errorf("modulator %d: unknown destination %q", i, mf.Destination)
		}
		if mf.Amount < -32768 || mf.Amount > 32767 {
			return nil, fmt.Errorf("modulator %d: amount out of int16 range", i)
		}
		out = append(out, Modulator{
			Source:          ModulatorSource(mf.Source),
			SecondarySource: ModulatorSource(mf.SecondarySource),
			Destination:     dest,
			Amount:          int16(mf.Amount),
			Transform:       mf.Transform,
		})
	}
	return out, nil
}

func buildRange(r [2]int) (Range, error) {
	if r[0] < 0 || r[1] > 127 || r[0] > r[1] {
		return Range{}, fmt.Errorf("invalid range [%d,%d] (expected 0..127, min <= max)", r[0], r[1])
	}
	return Range{Min: r[0], Max: r[1]}, nil
}
