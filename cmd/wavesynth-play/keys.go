package main

import (
	"strings"

	"github.com/cwbudde/algo-wavesynth/synth"
)

// Two piano rows: the lower one starts at the base note, the upper one an
// octave above.
const (
	lowerRow = "zsxdcvgbhnjm,"
	upperRow = "q2w3er5t6y7ui"
)

type keyboard struct {
	channel  int
	base     int
	velocity int
	program  int
	hold     float64
}

type keyAction struct {
	actions []synth.Action
	// offsets pairs with actions: seconds after now.
	offsets []float64
	quit    bool
	status  string
}

func (k *keyboard) note(n int) keyAction {
	n = min(max(n, 0), 127)
	return keyAction{
		actions: []synth.Action{
			{Kind: synth.ActionNoteOn, Channel: k.channel, Number: n, Value: k.velocity},
			{Kind: synth.ActionNoteOff, Channel: k.channel, Number: n},
		},
		offsets: []float64{0, k.hold},
	}
}

func (k *keyboard) single(a synth.Action, status string) keyAction {
	return keyAction{actions: []synth.Action{a}, offsets: []float64{0}, status: status}
}

// handle maps one key press to engine actions.
func (k *keyboard) handle(b byte) keyAction {
	if i := strings.IndexByte(lowerRow, b); i >= 0 {
		return k.note(k.base + i)
	}
	if i := strings.IndexByte(upperRow, b); i >= 0 {
		return k.note(k.base + 12 + i)
	}
	switch b {
	case 3, 27: // ctrl-c, esc
		return keyAction{quit: true}
	case '-':
		k.base = max(k.base-12, 0)
		return keyAction{status: "octave down"}
	case '=', '+':
		k.base = min(k.base+12, 108)
		return keyAction{status: "octave up"}
	case '[':
		k.velocity = max(k.velocity-16, 1)
		return keyAction{status: "velocity down"}
	case ']':
		k.velocity = min(k.velocity+16, 127)
		return keyAction{status: "velocity up"}
	case '<':
		k.program = (k.program + 127) % 128
		return k.single(synth.Action{Kind: synth.ActionProgramChange, Channel: k.channel, Number: k.program}, "program")
	case '>':
		k.program = (k.program + 1) % 128
		return k.single(synth.Action{Kind: synth.ActionProgramChange, Channel: k.channel, Number: k.program}, "program")
	case ' ':
		return k.single(synth.Action{Kind: synth.ActionStopAll}, "stop all")
	case '\\':
		return k.single(synth.Action{Kind: synth.ActionStopAll, Force: true}, "panic")
	}
	return keyAction{}
}
