package synth

import "github.com/cwbudde/algo-wavesynth/soundbank"

type cacheKey struct {
	bank     int
	program  int
	note     int
	velocity int
	override bool
}

// voiceCache memoizes voice templates per (bank, program, note, velocity).
// It is only touched from the render goroutine.
type voiceCache struct {
	entries map[cacheKey][]*voiceTemplate
}

func newVoiceCache() *voiceCache {
	return &voiceCache{entries: make(map[cacheKey][]*voiceTemplate)}
}

func (c *voiceCache) get(p *soundbank.Preset, override bool, note, velocity int, defaults []soundbank.Modulator) []*voiceTemplate {
	key := cacheKey{bank: p.Bank, program: p.Program, note: note, velocity: velocity, override: override}
	if tpls, ok := c.entries[key]; ok {
		return tpls
	}
	tpls := buildTemplates(p, note, velocity, defaults)
	c.entries[key] = tpls
	return tpls
}

func (c *voiceCache) len() int { return len(c.entries) }

func (c *voiceCache) clear() {
	c.entries = make(map[cacheKey][]*voiceTemplate)
}
