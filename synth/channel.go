package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wavesynth/soundbank"
)

type paramMode int

const (
	paramNone paramMode = iota
	paramRPN
	paramNRPN
)

// vibratoOverride is the channel-wide vibrato set through NRPN, added on top
// of the soundbank's own vibrato LFO.
type vibratoOverride struct {
	depth float64 // cents
	rate  float64 // Hz
	delay float64 // seconds
}

func (v vibratoOverride) value(t float64) float64 {
	if v.depth == 0 || v.rate <= 0 || t < v.delay {
		return 0
	}
	return v.depth * math.Sin(2*math.Pi*v.rate*(t-v.delay))
}

// Channel is one MIDI channel: controller state, the selected preset and the
// voices it owns.
type Channel struct {
	engine *Engine
	number int

	controllers     [128]int
	locked          [128]bool
	pitchWheel      int
	pitchBendRange  float64
	channelPressure int
	polyPressure    [128]int

	bankMSB        int
	bankLSB        int
	program        int
	drums          bool
	lockPreset     bool
	preset         *soundbank.Preset
	presetOverride bool

	holdPedal bool
	muted     bool
	mono      bool

	transpose   float64 // semitones
	tuningCents float64
	coarseCents float64
	fineCents   float64
	vibrato     vibratoOverride

	mode       paramMode
	rpnMSB     int
	rpnLSB     int
	nrpnMSB    int
	nrpnLSB    int
	dataMSB    int
	lastNote   int
	portaCtrl  int
	lastVoices int

	voices    []*Voice
	sustained []*Voice
}

func newChannel(e *Engine, number int) *Channel {
	c := &Channel{
		engine:   e,
		number:   number,
		voices:   make([]*Voice, 0, 32),
		lastNote: -1,
	}
	c.resetControllers(true)
	return c
}

func defaultControllerValue(cc int) int {
	switch cc {
	case ccMainVolume:
		return 100
	case ccBalance, ccPan:
		return 64
	case ccExpression:
		return 127
	case ccReverbDepth:
		return 40
	case ccNRPNLSB, ccNRPNMSB, ccRPNLSB, ccRPNMSB:
		return 127
	}
	if cc >= 71 && cc <= 79 {
		return 64
	}
	return 0
}

// resetControllers restores controller defaults. A full reset also restores
// the tuning, mode and program state. Locked controllers keep their values.
func (c *Channel) resetControllers(full bool) {
	for cc := range c.controllers {
		if c.locked[cc] {
			continue
		}
		c.controllers[cc] = defaultControllerValue(cc)
	}
	c.pitchWheel = 8192
	c.channelPressure = 0
	c.polyPressure = [128]int{}
	c.mode = paramNone
	c.rpnMSB, c.rpnLSB = 127, 127
	c.nrpnMSB, c.nrpnLSB = 127, 127
	c.portaCtrl = -1
	c.setHoldPedal(false)
	c.pitchBendRange = 2
	if full {
		c.transpose = 0
		c.coarseCents = 0
		c.fineCents = 0
		c.tuningCents = 0
		c.vibrato = vibratoOverride{}
		c.mono = false
		c.bankMSB, c.bankLSB = 0, 0
		c.drums = c.number%16 == DefaultPercussionChannel
		if !c.lockPreset {
			c.program = 0
		}
		c.applyPreset()
	}
	c.updateModulators()
}

func (c *Channel) bank() int {
	if c.drums {
		return soundbank.PercussionBank
	}
	switch c.engine.system {
	case SystemGM:
		return 0
	case SystemXG, SystemGM2:
		return c.bankLSB
	}
	return c.bankMSB
}

func (c *Channel) applyPreset() {
	c.preset, c.presetOverride = c.engine.resolvePreset(c.bank(), c.program, c.drums)
}

func (c *Channel) programChange(program int) {
	if program < 0 || program > 127 {
		c.engine.diagnostic(fmt.Sprintf("channel %d: program %d out of range", c.number, program))
		return
	}
	if c.lockPreset {
		return
	}
	c.program = program
	c.applyPreset()
	c.engine.emit(Event{Kind: EventProgramChange, Channel: c.number, Number: program, Value: c.bank()})
	c.engine.emitChannelProperty(c)
}

func (c *Channel) setDrums(drums bool) {
	if c.lockPreset || c.drums == drums {
		return
	}
	c.drums = drums
	c.applyPreset()
	c.engine.emitChannelProperty(c)
}

func (c *Channel) noteOn(note, velocity int) {
	e := c.engine
	if note < 0 || note > 127 || velocity < 0 || velocity > 127 {
		e.diagnostic(fmt.Sprintf("channel %d: note-on %d/%d out of range", c.number, note, velocity))
		return
	}
	if velocity == 0 {
		c.noteOff(note)
		return
	}
	if c.muted {
		return
	}

	preset, override := c.preset, c.presetOverride
	if km, ok := e.keyModifiers.get(c.number, note); ok {
		if km.Velocity > 0 {
			velocity = km.Velocity
		}
		if km.Program >= 0 {
			preset, override = e.resolvePreset(km.Bank, km.Program, km.Bank == soundbank.PercussionBank)
		}
	}
	if preset == nil {
		e.diagnostic(fmt.Sprintf("channel %d: no preset loaded", c.number))
		return
	}

	shift := e.transposition + c.transpose
	if c.drums {
		shift = 0
	}
	semis := math.Trunc(shift)
	key := note + int(semis)
	if key < 0 || key > 127 {
		return
	}
	tpls := e.cache.get(preset, override, key, velocity, e.modulators)
	if len(tpls) == 0 {
		return
	}

	if c.mono {
		for _, v := range c.voices {
			c.releaseVoice(v)
		}
	}

	portaFrom := -1.0
	portaDuration := 0.0
	if c.controllers[ccPortamentoOnOff] >= 64 && c.controllers[ccPortamentoTime] > 0 {
		from := c.lastNote
		if c.portaCtrl >= 0 {
			from = c.portaCtrl
		}
		if from >= 0 && from != key {
			portaFrom = float64(from)
			portaDuration = float64(c.controllers[ccPortamentoTime]) / 127 * maxPortamentoTime
		}
	}
	c.portaCtrl = -1

	for _, tpl := range tpls {
		if tpl.exclusiveClass != 0 {
			c.killExclusive(tpl.exclusiveClass)
		}
	}
	n := e.makeRoom(len(tpls))
	for _, tpl := range tpls[:n] {
		v := newVoice(tpl, c, note, velocity, key, (shift-semis)*100, e.now, e.sampleRate, e.volSmoothing)
		e.voiceSeq++
		v.seq = e.voiceSeq
		if portaDuration > 0 {
			v.portaFrom = portaFrom
			v.portaDuration = portaDuration
		}
		c.voices = append(c.voices, v)
	}
	c.lastNote = key
	e.emit(Event{Kind: EventNoteOn, Channel: c.number, Number: note, Value: velocity})
}

func (c *Channel) noteOff(note int) {
	e := c.engine
	if note < 0 || note > 127 {
		e.diagnostic(fmt.Sprintf("channel %d: note-off %d out of range", c.number, note))
		return
	}
	if e.highPerformance && !c.drums {
		c.killNote(note)
		return
	}
	for _, v := range c.voices {
		if v.note != note || v.isInRelease || v.sustained {
			continue
		}
		if c.holdPedal {
			v.sustained = true
			c.sustained = append(c.sustained, v)
			continue
		}
		c.releaseVoice(v)
	}
	e.emit(Event{Kind: EventNoteOff, Channel: c.number, Number: note})
}

func (c *Channel) releaseVoice(v *Voice) {
	minLength := MinNoteLength
	if v.exclusiveClass != 0 {
		minLength = MinExclusiveLength
	}
	v.release(c.engine.now, minLength)
}

// killNote hard-stops every voice playing note.
func (c *Channel) killNote(note int) {
	for i := len(c.voices) - 1; i >= 0; i-- {
		if c.voices[i].note == note {
			c.removeVoice(c.voices[i])
		}
	}
	c.engine.emit(Event{Kind: EventNoteOff, Channel: c.number, Number: note})
}

func (c *Channel) killExclusive(class int) {
	for i := len(c.voices) - 1; i >= 0; i-- {
		if c.voices[i].exclusiveClass == class {
			c.removeVoice(c.voices[i])
		}
	}
}

// removeVoice stops v immediately and drops it from the channel lists.
func (c *Channel) removeVoice(v *Voice) {
	v.finished = true
	c.voices = removeFromList(c.voices, v)
	if v.sustained {
		c.sustained = removeFromList(c.sustained, v)
	}
}

func removeFromList(list []*Voice, v *Voice) []*Voice {
	for i, x := range list {
		if x == v {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

func (c *Channel) stopAll(force bool) {
	if force {
		for i := range c.voices {
			c.voices[i].finished = true
			c.voices[i] = nil
		}
		c.voices = c.voices[:0]
	} else {
		for _, v := range c.voices {
			c.releaseVoice(v)
		}
	}
	for i := range c.sustained {
		c.sustained[i] = nil
	}
	c.sustained = c.sustained[:0]
}

func (c *Channel) setHoldPedal(on bool) {
	c.holdPedal = on
	if on {
		return
	}
	for i, v := range c.sustained {
		v.sustained = false
		if !v.finished {
			c.releaseVoice(v)
		}
		c.sustained[i] = nil
	}
	c.sustained = c.sustained[:0]
}

func (c *Channel) setMuted(muted bool) {
	if muted {
		c.stopAll(true)
	}
	c.muted = muted
	c.engine.emit(Event{Kind: EventMuteChannel, Channel: c.number, Muted: muted})
	c.engine.emitChannelProperty(c)
}

func (c *Channel) setPitchWheel(value int) {
	c.pitchWheel = clampInt(value, 0, 16383)
	c.updateModulators()
	c.engine.emit(Event{Kind: EventPitchWheel, Channel: c.number, Value: c.pitchWheel})
}

func (c *Channel) setChannelPressure(value int) {
	c.channelPressure = clampInt(value, 0, 127)
	c.updateModulators()
	c.engine.emit(Event{Kind: EventChannelPressure, Channel: c.number, Value: c.channelPressure})
}

func (c *Channel) setPolyPressure(note, value int) {
	if note < 0 || note > 127 {
		return
	}
	c.polyPressure[note] = clampInt(value, 0, 127)
	for _, v := range c.voices {
		if v.note == note {
			v.computeModulators()
		}
	}
	c.engine.emit(Event{Kind: EventPolyPressure, Channel: c.number, Number: note, Value: c.polyPressure[note]})
}

func (c *Channel) updateModulators() {
	for _, v := range c.voices {
		v.computeModulators()
	}
}

func (c *Channel) updateTuning() {
	c.tuningCents = c.coarseCents + c.fineCents
}

// render mixes all voices and prunes finished ones.
func (c *Channel) render(ctx *renderContext, out *channelBuffers) {
	n := 0
	for _, v := range c.voices {
		v.render(ctx, out)
		if !v.finished {
			c.voices[n] = v
			n++
		} else if v.sustained {
			c.sustained = removeFromList(c.sustained, v)
		}
	}
	for i := n; i < len(c.voices); i++ {
		c.voices[i] = nil
	}
	c.voices = c.voices[:n]
}

func (c *Channel) property() ChannelProperty {
	p := ChannelProperty{
		VoiceCount: len(c.voices),
		Program:    c.program,
		Bank:       c.bank(),
		Drums:      c.drums,
		Muted:      c.muted,
	}
	if c.preset != nil {
		p.PresetName = c.preset.Name
	}
	return p
}
