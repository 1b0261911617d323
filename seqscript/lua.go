package seqscript

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cwbudde/algo-wavesynth/synth"
	lua "github.com/yuin/gopher-lua"
)

var ErrNegativeTime = errors.New("event time must be >= 0")

// Load runs the Lua script at path and returns the score it produced.
func Load(ctx context.Context, path string) (*Score, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, string(src), path)
}

// Run executes a Lua script. The script calls the global functions below to
// emit events; times are in seconds unless converted with beats().
//
//	tempo(bpm)                          beats() reference, default 120
//	beats(n)                            n beats in seconds
//	note(t, ch, key, vel, dur)          note-on at t, note-off at t+dur
//	note_on(t, ch, key, vel)  note_off(t, ch, key)  kill(t, ch, key)
//	cc(t, ch, controller, value)        program(t, ch, program)
//	bend(t, ch, value14)                pressure(t, ch, value)
//	poly_pressure(t, ch, key, value)    mute(t, ch, muted)
//	sysex(t, {bytes...})                stop_all(t, force)
//	reset_controllers(t)                master(t, name, value)
//	length(seconds)
func Run(ctx context.Context, src, name string) (*Score, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	b := &builder{score: &Score{}, bpm: 120}
	b.register(L)
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return b.score, nil
}

type builder struct {
	score *Score
	bpm   float64
}

func (b *builder) register(L *lua.LState) {
	fns := map[string]lua.LGFunction{
		"tempo":             b.tempo,
		"beats":             b.beats,
		"length":            b.length,
		"note":              b.note,
		"note_on":           b.noteOn,
		"note_off":          b.noteOff,
		"kill":              b.kill,
		"cc":                b.cc,
		"program":           b.program,
		"bend":              b.bend,
		"pressure":          b.pressure,
		"poly_pressure":     b.polyPressure,
		"mute":              b.mute,
		"sysex":             b.sysex,
		"stop_all":          b.stopAll,
		"reset_controllers": b.resetControllers,
		"master":            b.master,
	}
	for name, fn := range fns {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func checkTime(L *lua.LState, n int) float64 {
	t := float64(L.CheckNumber(n))
	if t < 0 {
		L.ArgError(n, ErrNegativeTime.Error())
	}
	return t
}

func checkRange(L *lua.LState, n, lo, hi int) int {
	v := L.CheckInt(n)
	if v < lo || v > hi {
		L.ArgError(n, fmt.Sprintf("must be in %d..%d", lo, hi))
	}
	return v
}

func (b *builder) tempo(L *lua.LState) int {
	bpm := float64(L.CheckNumber(1))
	if bpm <= 0 {
		L.ArgError(1, "tempo must be > 0")
	}
	b.bpm = bpm
	return 0
}

func (b *builder) beats(L *lua.LState) int {
	L.Push(lua.LNumber(float64(L.CheckNumber(1)) * 60 / b.bpm))
	return 1
}

func (b *builder) length(L *lua.LState) int {
	b.score.Length = checkTime(L, 1)
	return 0
}

func (b *builder) note(L *lua.LState) int {
	t := checkTime(L, 1)
	ch := L.CheckInt(2)
	key := checkRange(L, 3, 0, 127)
	vel := checkRange(L, 4, 1, 127)
	dur := float64(L.CheckNumber(5))
	if dur <= 0 {
		L.ArgError(5, "duration must be > 0")
	}
	b.score.Add(t, synth.Action{Kind: synth.ActionNoteOn, Channel: ch, Number: key, Value: vel})
	b.score.Add(t+dur, synth.Action{Kind: synth.ActionNoteOff, Channel: ch, Number: key})
	return 0
}

func (b *builder) noteOn(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{
		Kind:    synth.ActionNoteOn,
		Channel: L.CheckInt(2),
		Number:  checkRange(L, 3, 0, 127),
		Value:   checkRange(L, 4, 0, 127),
	})
	return 0
}

func (b *builder) noteOff(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionNoteOff, Channel: L.CheckInt(2), Number: checkRange(L, 3, 0, 127)})
	return 0
}

func (b *builder) kill(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionKillNote, Channel: L.CheckInt(2), Number: checkRange(L, 3, 0, 127)})
	return 0
}

func (b *builder) cc(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{
		Kind:    synth.ActionControllerChange,
		Channel: L.CheckInt(2),
		Number:  checkRange(L, 3, 0, 127),
		Value:   checkRange(L, 4, 0, 127),
	})
	return 0
}

func (b *builder) program(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionProgramChange, Channel: L.CheckInt(2), Number: checkRange(L, 3, 0, 127)})
	return 0
}

func (b *builder) bend(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionPitchWheel, Channel: L.CheckInt(2), Value: checkRange(L, 3, 0, 16383)})
	return 0
}

func (b *builder) pressure(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionChannelPressure, Channel: L.CheckInt(2), Value: checkRange(L, 3, 0, 127)})
	return 0
}

func (b *builder) polyPressure(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{
		Kind:    synth.ActionPolyPressure,
		Channel: L.CheckInt(2),
		Number:  checkRange(L, 3, 0, 127),
		Value:   checkRange(L, 4, 0, 127),
	})
	return 0
}

func (b *builder) mute(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionMuteChannel, Channel: L.CheckInt(2), On: L.CheckBool(3)})
	return 0
}

func (b *builder) sysex(L *lua.LState) int {
	t := checkTime(L, 1)
	tbl := L.CheckTable(2)
	data := make([]byte, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		n, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok || n < 0 || n > 255 {
			L.ArgError(2, fmt.Sprintf("byte %d must be a number in 0..255", i))
		}
		data = append(data, byte(n))
	}
	b.score.Add(t, synth.Action{Kind: synth.ActionSystemExclusive, Data: data})
	return 0
}

func (b *builder) stopAll(L *lua.LState) int {
	t := checkTime(L, 1)
	b.score.Add(t, synth.Action{Kind: synth.ActionStopAll, Force: L.OptBool(2, false)})
	return 0
}

func (b *builder) resetControllers(L *lua.LState) int {
	b.score.Add(checkTime(L, 1), synth.Action{Kind: synth.ActionResetControllers})
	return 0
}

func (b *builder) master(L *lua.LState) int {
	t := checkTime(L, 1)
	name := L.CheckString(2)
	p, ok := synth.ParseMasterParameter(name)
	if !ok {
		L.ArgError(2, fmt.Sprintf("unknown master parameter %q", name))
	}
	b.score.Add(t, synth.Action{Kind: synth.ActionMasterParameter, Parameter: p, Float: float64(L.CheckNumber(3))})
	return 0
}
