package synth

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

func TestNoteOnRendersSampleAndFinishes(t *testing.T) {
	s := sineSample("short", 100)
	var events []Event
	e := newTestEngine(t, testBank(s), func(c *Config) {
		c.OnEvent = func(ev Event) { events = append(events, ev) }
	})
	if len(events) == 0 || events[len(events)-1].Kind != EventReady {
		t.Fatalf("expected ready event after construction")
	}

	out := NewOutput(16, 64)
	e.NoteOn(0, 60, 127)
	if e.VoiceCount() != 1 {
		t.Fatalf("expected one voice, got %d", e.VoiceCount())
	}
	e.Render(out)

	peak := bufferPeak(out.Channels[0].Left)
	if peak == 0 {
		t.Fatalf("expected audio in the first block")
	}
	if peak > 0.5 {
		t.Fatalf("output exceeds sample amplitude: peak=%f", peak)
	}
	for c := 1; c < 16; c++ {
		if bufferPeak(out.Channels[c].Left) != 0 {
			t.Fatalf("channel %d received audio", c)
		}
	}

	sawNoteOn := false
	for _, ev := range events {
		if ev.Kind == EventNoteOn && ev.Channel == 0 && ev.Number == 60 {
			sawNoteOn = true
		}
	}
	if !sawNoteOn {
		t.Fatalf("expected note-on event")
	}

	e.NoteOff(0, 60)
	limit := int(MinNoteLength*testRate)/64 + 2
	for i := 0; i < limit && e.VoiceCount() > 0; i++ {
		e.Render(out)
	}
	if e.VoiceCount() != 0 {
		t.Fatalf("voice still active after release window")
	}
}

func TestVoiceCapIsNeverExceeded(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 8} {
		e := newTestEngine(t, loopingBank(), func(c *Config) { c.VoiceCap = limit })
		out := NewOutput(16, 128)
		for note := 40; note < 60; note++ {
			e.NoteOn(note%4, note, 100)
			if got := e.VoiceCount(); got > limit {
				t.Fatalf("cap=%d: voice count %d after note %d", limit, got, note)
			}
			e.Render(out)
		}
		if limit == 0 && bufferPeak(out.Channels[0].Left) != 0 {
			t.Fatalf("cap=0 produced audio")
		}
	}
}

func TestVoiceStealingPrefersReleasedVoices(t *testing.T) {
	e := newTestEngine(t, loopingBank(), func(c *Config) { c.VoiceCap = 2 })
	out := NewOutput(16, 128)
	e.NoteOn(0, 60, 100)
	e.NoteOn(0, 62, 100)
	renderBlocks(e, out, 16)
	e.NoteOff(0, 60)
	e.NoteOn(0, 64, 100)

	notes := channelNotes(e, 0)
	if len(notes) != 2 || notes[60] || !notes[62] || !notes[64] {
		t.Fatalf("expected released note 60 to be stolen, got %v", notes)
	}
}

func TestVoiceStealingPrefersQuietVoices(t *testing.T) {
	e := newTestEngine(t, loopingBank(), func(c *Config) { c.VoiceCap = 2 })
	out := NewOutput(16, 128)
	e.NoteOn(0, 60, 127)
	e.NoteOn(0, 62, 20)
	renderBlocks(e, out, 16)
	e.NoteOn(0, 64, 100)

	notes := channelNotes(e, 0)
	if notes[62] || !notes[60] || !notes[64] {
		t.Fatalf("expected quiet note 62 to be stolen, got %v", notes)
	}
}

func TestHoldPedalDefersRelease(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 128)
	e.ControllerChange(0, ccHoldPedal, 127, false)
	e.NoteOn(0, 60, 100)
	renderBlocks(e, out, 20)
	v := e.channels[0].voices[0]

	e.NoteOff(0, 60)
	renderBlocks(e, out, 20)
	if v.isInRelease || v.volEnv.stage >= stageRelease {
		t.Fatalf("voice released while hold pedal is down: stage=%s", v.volEnv.stage)
	}
	if len(e.channels[0].sustained) != 1 {
		t.Fatalf("expected one sustained voice, got %d", len(e.channels[0].sustained))
	}

	e.ControllerChange(0, ccHoldPedal, 0, false)
	if !v.isInRelease {
		t.Fatalf("expected pedal up to release the voice")
	}
	e.Render(out)
	if v.volEnv.stage < stageRelease {
		t.Fatalf("expected release stage after pedal up, got %s", v.volEnv.stage)
	}
}

func TestShortNotesRingForMinimumLength(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 128)
	e.NoteOn(0, 60, 100)
	v := e.channels[0].voices[0]
	e.Render(out)
	e.NoteOff(0, 60)

	for e.CurrentTime()+128.0/testRate < v.startTime+MinNoteLength {
		e.Render(out)
		if v.volEnv.stage >= stageRelease {
			t.Fatalf("release began at %f, before the minimum length", e.CurrentTime())
		}
	}
	renderBlocks(e, out, 2)
	if v.volEnv.stage < stageRelease {
		t.Fatalf("release did not begin after the minimum length")
	}
}

func TestExclusiveClassKillsOtherVoices(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 128)
	e.NoteOn(DefaultPercussionChannel, 42, 100)
	e.Render(out)
	e.NoteOn(DefaultPercussionChannel, 46, 100)

	notes := channelNotes(e, DefaultPercussionChannel)
	if len(notes) != 1 || !notes[46] {
		t.Fatalf("expected only note 46 to survive, got %v", notes)
	}
}

func TestVoiceCacheIsDeterministic(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.NoteOn(0, 67, 90)
	first := e.channels[0].voices[0]
	e.KillNote(0, 67)
	e.NoteOn(0, 67, 90)
	if e.CachedVoiceSets() != 1 {
		t.Fatalf("expected one cached voice set, got %d", e.CachedVoiceSets())
	}
	e.ClearSoundbank(false)
	if e.CachedVoiceSets() != 0 {
		t.Fatalf("expected cache to be cleared")
	}
	e.NoteOn(0, 67, 90)
	second := e.channels[0].voices[0]

	if first.generators != second.generators {
		t.Fatalf("generator tables differ")
	}
	if first.volEnv.attack != second.volEnv.attack || first.volEnv.decay != second.volEnv.decay || first.volEnv.release != second.volEnv.release {
		t.Fatalf("envelope durations differ")
	}
	if first.modulated[soundbank.GenInitialFilterFc] != second.modulated[soundbank.GenInitialFilterFc] {
		t.Fatalf("filter cutoff differs")
	}
	ctx := e.renderContext()
	if first.pitchCents(&ctx, 0) != second.pitchCents(&ctx, 0) {
		t.Fatalf("pitch differs")
	}
}

func TestPitchWheelFollowsBendRange(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.NoteOn(0, 60, 100)
	v := e.channels[0].voices[0]
	if got := v.modulated[soundbank.GenFineTune]; math.Abs(got) > 1e-9 {
		t.Fatalf("centered wheel detunes: %f cents", got)
	}

	e.PitchWheel(0, 16383)
	if got := v.modulated[soundbank.GenFineTune]; math.Abs(got-200) > 0.1 {
		t.Fatalf("expected +200 cents at full bend: got=%f", got)
	}

	// RPN 0: bend range 12 semitones
	e.ControllerChange(0, ccRPNMSB, 0, false)
	e.ControllerChange(0, ccRPNLSB, 0, false)
	e.ControllerChange(0, ccDataEntryMSB, 12, false)
	if got := v.modulated[soundbank.GenFineTune]; math.Abs(got-1200) > 0.2 {
		t.Fatalf("expected +1200 cents at full bend: got=%f", got)
	}
}

func TestLockedControllerIgnoresChanges(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.ControllerChange(0, ccMainVolume, 50, false)
	e.LockController(0, ccMainVolume, true)
	e.ControllerChange(0, ccMainVolume, 120, false)
	if got := e.channels[0].controllers[ccMainVolume]; got != 50 {
		t.Fatalf("locked controller changed: got=%d want=50", got)
	}
	e.ControllerChange(0, ccMainVolume, 120, true)
	if got := e.channels[0].controllers[ccMainVolume]; got != 120 {
		t.Fatalf("forced change ignored: got=%d want=120", got)
	}
}

func TestMutedChannelIsSilent(t *testing.T) {
	var muted []bool
	e := newTestEngine(t, loopingBank(), func(c *Config) {
		c.OnEvent = func(ev Event) {
			if ev.Kind == EventMuteChannel {
				muted = append(muted, ev.Muted)
			}
		}
	})
	out := NewOutput(16, 128)
	e.NoteOn(0, 60, 100)
	e.SetChannelMuted(0, true)
	if e.ChannelVoiceCount(0) != 0 {
		t.Fatalf("mute did not stop voices")
	}
	e.NoteOn(0, 62, 100)
	e.Render(out)
	if bufferPeak(out.Channels[0].Left) != 0 {
		t.Fatalf("muted channel produced audio")
	}
	if len(muted) != 1 || !muted[0] {
		t.Fatalf("expected one mute event, got %v", muted)
	}
}

func TestHighPerformanceModeKillsMelodicNotes(t *testing.T) {
	e := newTestEngine(t, loopingBank(), func(c *Config) { c.HighPerformance = true })
	e.NoteOn(0, 60, 100)
	e.NoteOn(DefaultPercussionChannel, 42, 100)
	e.NoteOff(0, 60)
	e.NoteOff(DefaultPercussionChannel, 42)
	if e.ChannelVoiceCount(0) != 0 {
		t.Fatalf("melodic note-off should kill in high-performance mode")
	}
	if e.ChannelVoiceCount(DefaultPercussionChannel) != 1 {
		t.Fatalf("drum note-off should release normally")
	}
}

func TestProcessMessageDecodesChannelMessages(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	if err := e.ProcessMessage([]byte{0x92, 60, 100}, 0, 0, false); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if e.ChannelVoiceCount(2) != 1 {
		t.Fatalf("note-on not applied")
	}
	if err := e.ProcessMessage([]byte{0x92, 60, 0}, 0, 0, false); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !e.channels[2].voices[0].isInRelease {
		t.Fatalf("velocity 0 note-on should release")
	}
	if err := e.ProcessMessage([]byte{0x82, 60, 0}, 0, 0, true); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if e.ChannelVoiceCount(2) != 0 {
		t.Fatalf("forced note-off should kill")
	}

	if err := e.ProcessMessage([]byte{0xe1, 0x7f, 0x7f}, 0, 0, false); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if got := e.channels[1].pitchWheel; got != 16383 {
		t.Fatalf("pitch wheel: got=%d want=16383", got)
	}
	if err := e.ProcessMessage([]byte{0xff}, 0, 0, false); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if got := e.channels[1].pitchWheel; got != 8192 {
		t.Fatalf("reset did not center the wheel: got=%d", got)
	}
	if err := e.ProcessMessage([]byte{0x90, 60}, 0, 0, false); err == nil {
		t.Fatalf("expected error for truncated message")
	}
}

func TestProgramChangeFallsBackToAvailablePreset(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.ProgramChange(0, 5)
	p, _ := e.ChannelProperty(0)
	if p.PresetName != "melodic" || p.Program != 5 {
		t.Fatalf("expected fallback to melodic preset, got %+v", p)
	}
	p, _ = e.ChannelProperty(DefaultPercussionChannel)
	if !p.Drums || p.PresetName != "kit" {
		t.Fatalf("expected drum kit on percussion channel, got %+v", p)
	}
}

func TestReloadInvalidSoundbankKeepsPrevious(t *testing.T) {
	var bankErr error
	e := newTestEngine(t, loopingBank(), func(c *Config) {
		c.OnEvent = func(ev Event) {
			if ev.Kind == EventSoundbankError {
				bankErr = ev.Err
			}
		}
	})
	err := e.ReloadSoundbank(&soundbank.Bank{})
	if !errors.Is(err, soundbank.ErrNoPresets) {
		t.Fatalf("expected ErrNoPresets, got %v", err)
	}
	if bankErr == nil {
		t.Fatalf("expected soundbank error event")
	}
	e.NoteOn(0, 60, 100)
	if e.VoiceCount() != 1 {
		t.Fatalf("previous soundbank no longer plays")
	}
}

func TestOverrideSoundbankTakesPrecedence(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	override := loopingBank()
	override.Presets = override.Presets[1:]
	override.Presets[0] = &soundbank.Preset{Name: "override", Bank: 0, Program: 0, Zones: override.Presets[0].Zones}
	if err := e.SetOverrideSoundbank(override, 0); err != nil {
		t.Fatalf("SetOverrideSoundbank: %v", err)
	}
	if p, _ := e.ChannelProperty(0); p.PresetName != "override" {
		t.Fatalf("expected override preset, got %q", p.PresetName)
	}
	if p, _ := e.ChannelProperty(DefaultPercussionChannel); p.PresetName != "kit" {
		t.Fatalf("expected main bank kit, got %q", p.PresetName)
	}
	e.ClearSoundbank(true)
	if p, _ := e.ChannelProperty(0); p.PresetName != "melodic" {
		t.Fatalf("expected main preset after clearing override, got %q", p.PresetName)
	}
}

func TestKeyModifierOverridesVelocity(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.AddKeyModifier(0, 60, KeyModifier{Velocity: 10, Program: -1})
	e.NoteOn(0, 60, 120)
	if got := e.channels[0].voices[0].velocity; got != 10 {
		t.Fatalf("velocity override: got=%d want=10", got)
	}
	e.ClearKeyModifiers()
	e.NoteOn(0, 61, 120)
	if got := e.channels[0].voices[1].velocity; got != 120 {
		t.Fatalf("velocity after clear: got=%d want=120", got)
	}
}

func TestTransposeShiftsTargetKey(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.TransposeAll(2.5)
	e.NoteOn(0, 60, 100)
	v := e.channels[0].voices[0]
	if v.targetKey != 62 || math.Abs(v.tuning-50) > 1e-9 {
		t.Fatalf("transpose: key=%d tuning=%f", v.targetKey, v.tuning)
	}
	e.NoteOff(0, 60)
	if !v.isInRelease {
		t.Fatalf("note-off must match the untransposed note")
	}
}

func TestPostAppliesOnNextBlock(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.Post(0, Action{Kind: ActionNoteOn, Channel: 3, Number: 60, Value: 100}); err != nil {
			t.Errorf("Post: %v", err)
		}
	}()
	wg.Wait()
	if e.ChannelVoiceCount(3) != 0 {
		t.Fatalf("posted action applied before render")
	}
	e.Render(NewOutput(16, 128))
	if e.ChannelVoiceCount(3) != 1 {
		t.Fatalf("posted action not applied")
	}
}

func TestCloseSilencesEngine(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 128)
	e.NoteOn(0, 60, 100)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	e.NoteOn(0, 60, 100)
	e.Render(out)
	if e.VoiceCount() != 0 || bufferPeak(out.Channels[0].Left) != 0 {
		t.Fatalf("closed engine still plays")
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on second close, got %v", err)
	}
}

func TestProcessReturnsInterleavedStereo(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.NoteOn(0, 60, 100)
	buf := e.Process(1000)
	if len(buf) != 2000 {
		t.Fatalf("expected 2000 samples, got %d", len(buf))
	}
	if stereoPeak := bufferPeak(buf); stereoPeak == 0 {
		t.Fatalf("expected audio")
	}
	if got := e.CurrentTime(); math.Abs(got-1000.0/testRate) > 1e-9 {
		t.Fatalf("clock: got=%f want=%f", got, 1000.0/testRate)
	}
}

func TestSnapshotRestoresChannelState(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	e.ControllerChange(0, ccMainVolume, 77, false)
	e.ProgramChange(0, 5)
	e.SetMasterGain(0.5)
	e.AddKeyModifier(1, 64, KeyModifier{Velocity: 30, Program: -1})

	path := t.TempDir() + "/state.json"
	if err := WriteSnapshot(path, e.Snapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	s, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	other := newTestEngine(t, loopingBank(), nil)
	other.ApplySnapshot(s)
	if got := other.channels[0].controllers[ccMainVolume]; got != 77 {
		t.Fatalf("controller: got=%d want=77", got)
	}
	if got := other.channels[0].program; got != 5 {
		t.Fatalf("program: got=%d want=5", got)
	}
	if got := other.MasterParameter(ParamMasterGain); got != 0.5 {
		t.Fatalf("master gain: got=%f want=0.5", got)
	}
	if _, ok := other.keyModifiers.get(1, 64); !ok {
		t.Fatalf("key modifier not restored")
	}
}

func TestStopAllAndResetControllers(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 64)
	e.NoteOn(0, 60, 100)
	e.NoteOn(3, 64, 100)
	e.ControllerChange(0, ccMainVolume, 20, false)
	e.PitchWheel(0, 12000)
	e.Render(out)

	e.StopAllChannels(false)
	if e.VoiceCount() != 2 {
		t.Fatalf("release should keep voices until their envelopes end: got=%d", e.VoiceCount())
	}
	for _, v := range e.channels[0].voices {
		if !v.isInRelease {
			t.Fatalf("voice on note %d not released", v.note)
		}
	}

	e.StopAllChannels(true)
	if e.VoiceCount() != 0 {
		t.Fatalf("forced stop left %d voices", e.VoiceCount())
	}

	e.ResetAllControllers()
	c := e.channels[0]
	if c.controllers[ccMainVolume] != 100 {
		t.Fatalf("main volume: got=%d want=100", c.controllers[ccMainVolume])
	}
	if c.pitchWheel != 8192 {
		t.Fatalf("pitch wheel: got=%d want=8192", c.pitchWheel)
	}
}

func TestMasterParametersClampAndEmit(t *testing.T) {
	var changes []Event
	diagnostics := 0
	e := newTestEngine(t, loopingBank(), func(c *Config) {
		c.OnEvent = func(ev Event) {
			switch ev.Kind {
			case EventMasterParameterChange:
				changes = append(changes, ev)
			case EventDiagnostic:
				diagnostics++
			}
		}
	})

	tests := []struct {
		name  string
		set   func()
		param MasterParameter
		want  float64
	}{
		{"pan clamps", func() { e.SetMasterPan(3) }, ParamMasterPan, 1},
		{"midi volume clamps", func() { e.SetMIDIVolume(-1) }, ParamMIDIVolume, 0},
		{"tuning", func() { e.SetMasterTuning(-35) }, ParamMasterTuning, -35},
		{"voice cap", func() { e.SetVoiceCap(5) }, ParamVoiceCap, 5},
		{"interpolation", func() { e.SetInterpolation(dsp.InterpolationLinear) }, ParamInterpolation, float64(dsp.InterpolationLinear)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := len(changes)
			tc.set()
			if got := e.MasterParameter(tc.param); got != tc.want {
				t.Fatalf("value: got=%f want=%f", got, tc.want)
			}
			if len(changes) != before+1 || changes[len(changes)-1].Parameter != tc.param {
				t.Fatalf("expected one %s change event", tc.param)
			}
		})
	}

	e.SetInterpolation(dsp.Interpolation(42))
	if got := e.MasterParameter(ParamInterpolation); got != float64(dsp.InterpolationLinear) {
		t.Fatalf("unknown interpolation was applied: got=%f", got)
	}
	e.SetMasterParameter(ParamMasterGain, math.NaN())
	if e.MasterParameter(ParamMasterGain) != 1 {
		t.Fatalf("NaN gain was applied")
	}
	if diagnostics != 2 {
		t.Fatalf("diagnostics: got=%d want=2", diagnostics)
	}

	p, ok := ParseMasterParameter("midi-volume")
	if !ok || p != ParamMIDIVolume {
		t.Fatalf("ParseMasterParameter: got=%v ok=%v", p, ok)
	}
}

type sequencerFunc func(e *Engine, now float64)

func (f sequencerFunc) Advance(e *Engine, now float64) { f(e, now) }

func TestLateActionsApplyInTimeOrder(t *testing.T) {
	noteOff := Action{Kind: ActionNoteOff, Channel: 0, Number: 60}
	tests := []struct {
		name string
		send func(t *testing.T, e *Engine)
	}{
		{"post", func(t *testing.T, e *Engine) {
			if err := e.Post(0.002, noteOff); err != nil {
				t.Fatalf("Post: %v", err)
			}
		}},
		{"sequencer", func(t *testing.T, e *Engine) {
			sent := false
			e.AttachSequencer(sequencerFunc(func(e *Engine, now float64) {
				if !sent {
					e.Schedule(0.002, noteOff)
					sent = true
				}
			}))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, loopingBank(), nil)
			out := NewOutput(16, 128)
			e.Schedule(0.001, Action{Kind: ActionNoteOn, Channel: 0, Number: 60, Value: 100})
			e.Render(out)
			if e.VoiceCount() != 0 {
				t.Fatalf("note-on applied before its block")
			}

			// The note-off arrives after the clock passed both timestamps.
			tc.send(t, e)
			renderBlocks(e, out, 200)
			if e.VoiceCount() != 0 {
				t.Fatalf("voices after note-on@1ms, note-off@2ms: got=%d want=0", e.VoiceCount())
			}
		})
	}
}

func TestReleaseOutlastsMinimumLength(t *testing.T) {
	const release = 0.1
	s := sineSample("loop", 1000)
	e := newTestEngine(t, testBank(s,
		soundbank.Generator{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous},
		soundbank.Generator{Type: soundbank.GenReleaseVolEnv, Value: int16(math.Round(1200 * math.Log2(release)))},
	), nil)
	out := NewOutput(16, 64)
	blockTime := 64.0 / testRate

	e.NoteOn(0, 60, 100)
	e.NoteOff(0, 60)
	for e.CurrentTime()+blockTime < MinNoteLength {
		e.Render(out)
		if e.VoiceCount() != 1 {
			t.Fatalf("voice ended at %f, before the minimum note length", e.CurrentTime())
		}
	}
	for e.CurrentTime() < MinNoteLength+0.8*release {
		e.Render(out)
		if e.VoiceCount() != 1 {
			t.Fatalf("voice ended at %f, during its release", e.CurrentTime())
		}
	}
	if bufferPeak(out.Channels[0].Left) == 0 {
		t.Fatalf("releasing voice is silent")
	}
	for e.CurrentTime() < MinNoteLength+release+2*blockTime {
		e.Render(out)
	}
	if e.VoiceCount() != 0 {
		t.Fatalf("voice still active at %f after release", e.CurrentTime())
	}
}

func TestSmoothingScalesWithSampleRate(t *testing.T) {
	for _, rate := range []int{22050, 44100, 88200} {
		e := newTestEngine(t, loopingBank(), func(c *Config) { c.SampleRate = rate })
		k := referenceRate / float64(rate)
		got := []float64{e.volSmoothing, e.panSmoothing, e.filterSmoothing}
		want := []float64{volumeSmoothing * k, panSmoothing * k, filterSmoothing * k}
		for i := range got {
			if math.Abs(got[i]-want[i]) > 1e-12 {
				t.Fatalf("rate=%d factor %d: got=%g want=%g", rate, i, got[i], want[i])
			}
		}
	}
	lo := newTestEngine(t, loopingBank(), func(c *Config) { c.SampleRate = 44100 })
	hi := newTestEngine(t, loopingBank(), func(c *Config) { c.SampleRate = 88200 })
	if math.Abs(hi.filterSmoothing*2-lo.filterSmoothing) > 1e-12 {
		t.Fatalf("filter smoothing does not halve at double rate: %g vs %g", hi.filterSmoothing, lo.filterSmoothing)
	}
}

func TestRenderWithoutDryChannels(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(0, 64)
	e.NoteOn(0, 60, 100)
	renderBlocks(e, out, 4)
	if e.VoiceCount() != 1 {
		t.Fatalf("voice count: got=%d want=1", e.VoiceCount())
	}
	if bufferPeak(out.Reverb.Left) == 0 {
		t.Fatalf("reverb send is silent")
	}
}
