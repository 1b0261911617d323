package synth

import "github.com/cwbudde/algo-wavesynth/soundbank"

// buildTemplates resolves every matching preset/instrument zone pair of p for
// the given note and velocity into voice templates.
func buildTemplates(p *soundbank.Preset, note, velocity int, defaults []soundbank.Modulator) []*voiceTemplate {
	if p == nil {
		return nil
	}
	var out []*voiceTemplate
	for _, pz := range p.Zones {
		if pz.Instrument == nil || !pz.Matches(note, velocity) {
			continue
		}
		inst := pz.Instrument
		for _, iz := range inst.Zones {
			if iz.Sample == nil || !iz.Matches(note, velocity) {
				continue
			}
			out = append(out, mergeZones(p.GlobalZone, pz, inst.GlobalZone, iz, defaults))
		}
	}
	return out
}

// mergeZones combines the four zone levels. Instrument generators are
// absolute (local overrides global), preset generators are offsets added on
// top, except for generators that only make sense as absolute values.
func mergeZones(presetGlobal, presetZone, instGlobal, instZone *soundbank.Zone, defaults []soundbank.Modulator) *voiceTemplate {
	gens := soundbank.NewGeneratorTable()
	for _, z := range []*soundbank.Zone{instGlobal, instZone} {
		if z == nil {
			continue
		}
		for _, g := range z.Generators {
			if int(g.Type) < soundbank.GeneratorCount {
				gens[g.Type] = g.Value
			}
		}
	}

	var offsets [soundbank.GeneratorCount]int32
	for _, z := range []*soundbank.Zone{presetGlobal, presetZone} {
		if z == nil {
			continue
		}
		for _, g := range z.Generators {
			if int(g.Type) < soundbank.GeneratorCount {
				offsets[g.Type] = int32(g.Value)
			}
		}
	}
	for i := range gens {
		t := soundbank.GeneratorType(i)
		if offsets[i] == 0 || soundbank.IsAbsoluteOnly(t) {
			continue
		}
		gens[i] = soundbank.ClampGenerator(t, int32(gens[i])+offsets[i])
	}

	mods := make([]soundbank.Modulator, len(defaults))
	copy(mods, defaults)
	mods = overrideModulators(mods, instGlobal)
	mods = overrideModulators(mods, instZone)

	presetMods := overrideModulators(nil, presetGlobal)
	presetMods = overrideModulators(presetMods, presetZone)
	for _, pm := range presetMods {
		found := false
		for i := range mods {
			if soundbank.SameRouting(mods[i], pm) {
				mods[i].Amount = int16(clampInt(int(mods[i].Amount)+int(pm.Amount), -32768, 32767))
				found = true
				break
			}
		}
		if !found {
			mods = append(mods, pm)
		}
	}

	return &voiceTemplate{
		sample:         instZone.Sample,
		generators:     gens,
		modulators:     mods,
		exclusiveClass: int(gens[soundbank.GenExclusiveClass]),
	}
}

// overrideModulators replaces entries with the same routing and appends the
// rest.
func overrideModulators(list []soundbank.Modulator, z *soundbank.Zone) []soundbank.Modulator {
	if z == nil {
		return list
	}
	for _, m := range z.Modulators {
		replaced := false
		for i := range list {
			if soundbank.SameRouting(list[i], m) {
				list[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, m)
		}
	}
	return list
}
