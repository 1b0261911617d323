package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-wavesynth/internal/wavio"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

// fitTarget addresses one instrument zone inside a soundbank file.
type fitTarget struct {
	instrument int
	zone       int
}

func cloneFile(f *soundbank.File) (*soundbank.File, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var out soundbank.File
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// inlineSamples returns a copy of f whose WAV samples are decoded into Data so
// candidates can be built without touching the disk.
func inlineSamples(f *soundbank.File, baseDir string) (*soundbank.File, error) {
	out, err := cloneFile(f)
	if err != nil {
		return nil, err
	}
	for i := range out.Samples {
		s := &out.Samples[i]
		if s.Path == "" {
			continue
		}
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, rate, err := wavio.ReadMono(path)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", s.Name, err)
		}
		s.Data = data
		s.SampleRate = rate
		s.Path = ""
	}
	return out, nil
}

func rangeCovers(r *[2]int, v int) bool {
	return r == nil || (v >= r[0] && v <= r[1])
}

func findTarget(f *soundbank.File, instrument string, zone, note, velocity int) (fitTarget, error) {
	if len(f.Instruments) == 0 {
		return fitTarget{}, fmt.Errorf("soundbank has no instruments")
	}
	t := fitTarget{instrument: -1, zone: zone}
	if instrument == "" {
		t.instrument = 0
	} else {
		for i, inst := range f.Instruments {
			if inst.Name == instrument {
				t.instrument = i
				break
			}
		}
		if t.instrument < 0 {
			return fitTarget{}, fmt.Errorf("unknown instrument %q", instrument)
		}
	}
	zones := f.Instruments[t.instrument].Zones
	if zone >= 0 {
		if zone >= len(zones) {
			return fitTarget{}, fmt.Errorf("instrument %q has no zone %d", f.Instruments[t.instrument].Name, zone)
		}
		return t, nil
	}
	for i, z := range zones {
		if rangeCovers(z.KeyRange, note) && rangeCovers(z.VelRange, velocity) {
			t.zone = i
			return t, nil
		}
	}
	return fitTarget{}, fmt.Errorf("instrument %q has no zone for note %d velocity %d", f.Instruments[t.instrument].Name, note, velocity)
}

func selectKnobs(list string) ([]knobDef, error) {
	if strings.TrimSpace(list) == "" {
		out := make([]knobDef, len(allKnobs))
		copy(out, allKnobs)
		return out, nil
	}
	var out []knobDef
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, d := range allKnobs {
			if d.Name == name {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown knob %q", name)
		}
	}
	return out, nil
}

// initCandidate reads each knob from the target zone, the instrument's global
// zone, or the generator default, in that order.
func initCandidate(f *soundbank.File, t fitTarget, defs []knobDef) candidate {
	inst := f.Instruments[t.instrument]
	z := inst.Zones[t.zone]
	vals := make([]float64, len(defs))
	for i, d := range defs {
		gen, _ := soundbank.GeneratorByName(d.Name)
		v := float64(soundbank.DefaultGeneratorValue(gen))
		if inst.Global != nil {
			if g, ok := inst.Global.Generators[d.Name]; ok {
				v = float64(g)
			}
		}
		if g, ok := z.Generators[d.Name]; ok {
			v = float64(g)
		}
		vals[i] = clamp(v, d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

// applyCandidate returns f with the knob values written into the target zone.
// f itself is not modified.
func applyCandidate(f *soundbank.File, t fitTarget, defs []knobDef, c candidate) *soundbank.File {
	out := *f
	out.Instruments = append([]soundbank.InstrumentFile(nil), f.Instruments...)
	inst := out.Instruments[t.instrument]
	inst.Zones = append([]soundbank.ZoneFile(nil), inst.Zones...)
	z := inst.Zones[t.zone]
	gens := make(map[string]int, len(z.Generators)+len(defs))
	for k, v := range z.Generators {
		gens[k] = v
	}
	for i, d := range defs {
		gens[d.Name] = int(math.Round(c.Vals[i]))
	}
	z.Generators = gens
	inst.Zones[t.zone] = z
	out.Instruments[t.instrument] = inst
	return &out
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}

func parseWorkersFlag(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
