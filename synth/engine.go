package synth

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-wavesynth/dsp"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

const (
	DefaultSampleRate        = 44100
	DefaultChannels          = 16
	DefaultVoiceCap          = 350
	DefaultBlockSize         = 128
	DefaultPercussionChannel = 9

	// MinNoteLength is the shortest time a voice rings before its release
	// may begin.
	MinNoteLength = 0.03
	// MinExclusiveLength is the same floor for voices with an exclusive class.
	MinExclusiveLength = 0.07

	referenceRate = 44100.0
	// Smoothing factors at the reference rate, scaled by referenceRate/sr.
	// Volume and pan are smoothed per sample, the filter cutoff per block.
	volumeSmoothing = 0.01
	panSmoothing    = 0.05
	filterSmoothing = 0.03
)

var (
	ErrInvalidSampleRate = errors.New("synth: sample rate must be > 0")
	ErrInvalidChannels   = errors.New("synth: channel count must be > 0")
	ErrClosed            = errors.New("synth: engine closed")
	ErrInboxFull         = errors.New("synth: control inbox full")
)

// SystemMode selects how bank select and system messages are interpreted.
type SystemMode int

const (
	SystemGS SystemMode = iota
	SystemGM
	SystemGM2
	SystemXG
)

func (m SystemMode) String() string {
	switch m {
	case SystemGM:
		return "gm"
	case SystemGM2:
		return "gm2"
	case SystemXG:
		return "xg"
	}
	return "gs"
}

// ParseSystemMode maps a name to a system mode.
func ParseSystemMode(name string) (SystemMode, bool) {
	switch name {
	case "gs":
		return SystemGS, true
	case "gm":
		return SystemGM, true
	case "gm2":
		return SystemGM2, true
	case "xg":
		return SystemXG, true
	}
	return SystemGS, false
}

// Config holds engine construction parameters.
type Config struct {
	SampleRate      int
	Channels        int
	VoiceCap        int
	Interpolation   dsp.Interpolation
	System          SystemMode
	HighPerformance bool
	// EventsEnabled gates every event except Ready and SoundbankError.
	EventsEnabled bool
	OnEvent       func(Event)
	// InboxSize bounds the actions Post can queue between two blocks.
	InboxSize int
	// DeviceID filters system exclusive messages; -1 accepts all.
	DeviceID int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannels,
		VoiceCap:      DefaultVoiceCap,
		Interpolation: dsp.InterpolationFourthOrder,
		System:        SystemGS,
		EventsEnabled: true,
		InboxSize:     1024,
		DeviceID:      -1,
	}
}

// Sequencer is driven once per block before due actions are applied. It
// typically schedules upcoming actions on the engine.
type Sequencer interface {
	Advance(e *Engine, now float64)
}

type timedAction struct {
	time   float64
	action Action
}

// Engine is the synthesizer: channels, voices, the action scheduler and the
// soundbanks they draw from. All methods except Post must be called from the
// goroutine that calls Render.
type Engine struct {
	sampleRate float64
	channels   []*Channel

	bank       *soundbank.Bank
	override   *soundbank.Bank
	bankOffset int
	modulators []soundbank.Modulator
	cache      *voiceCache

	scheduler *Scheduler
	inbox     chan timedAction
	sequencer Sequencer
	now       float64
	// queueing is set while a block collects inbox and sequencer actions;
	// Schedule then defers everything to the scheduler so all sources are
	// applied in time order.
	queueing bool

	voiceCap        int
	interpolation   dsp.Interpolation
	system          SystemMode
	highPerformance bool
	deviceID        int

	masterGain    float64
	midiVolume    float64
	masterPan     float64
	reverbGain    float64
	chorusGain    float64
	masterTuning  float64 // cents
	transposition float64 // semitones
	sysexCoarse   float64 // cents
	sysexFine     float64 // cents

	keyModifiers keyModifierTable

	volSmoothing    float64
	panSmoothing    float64
	filterSmoothing float64

	eventsEnabled bool
	onEvent       func(Event)

	voiceSeq uint64
	closed   atomic.Bool
	scratch  *Output
}

// NewEngine creates an engine playing from bank.
func NewEngine(bank *soundbank.Bank, cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.Channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	if cfg.VoiceCap < 0 {
		cfg.VoiceCap = 0
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1024
	}
	sr := float64(cfg.SampleRate)
	e := &Engine{
		sampleRate:      sr,
		bank:            bank,
		modulators:      bank.Modulators(),
		cache:           newVoiceCache(),
		scheduler:       NewScheduler(256),
		inbox:           make(chan timedAction, cfg.InboxSize),
		voiceCap:        cfg.VoiceCap,
		interpolation:   cfg.Interpolation,
		system:          cfg.System,
		highPerformance: cfg.HighPerformance,
		deviceID:        cfg.DeviceID,
		masterGain:      1,
		midiVolume:      1,
		reverbGain:      1,
		chorusGain:      1,
		volSmoothing:    volumeSmoothing * referenceRate / sr,
		panSmoothing:    panSmoothing * referenceRate / sr,
		filterSmoothing: filterSmoothing * referenceRate / sr,
		eventsEnabled:   cfg.EventsEnabled,
		onEvent:         cfg.OnEvent,
	}
	e.channels = make([]*Channel, cfg.Channels)
	for i := range e.channels {
		e.channels[i] = newChannel(e, i)
	}
	e.emitPresetList()
	e.emit(Event{Kind: EventReady, Channel: -1})
	return e, nil
}

// SampleRate returns the output sample rate in Hz.
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// CurrentTime returns the engine clock in seconds.
func (e *Engine) CurrentTime() float64 { return e.now }

// ChannelCount returns the number of MIDI channels.
func (e *Engine) ChannelCount() int { return len(e.channels) }

// VoiceCount returns the number of active voices over all channels.
func (e *Engine) VoiceCount() int {
	n := 0
	for _, c := range e.channels {
		n += len(c.voices)
	}
	return n
}

// ChannelVoiceCount returns the active voices of one channel.
func (e *Engine) ChannelVoiceCount(channel int) int {
	if c := e.channel(channel); c != nil {
		return len(c.voices)
	}
	return 0
}

// ChannelProperty returns the observable state of a channel.
func (e *Engine) ChannelProperty(channel int) (ChannelProperty, bool) {
	c := e.channel(channel)
	if c == nil {
		return ChannelProperty{}, false
	}
	return c.property(), true
}

// AttachSequencer installs s; nil detaches.
func (e *Engine) AttachSequencer(s Sequencer) { e.sequencer = s }

func (e *Engine) channel(i int) *Channel {
	if i < 0 || i >= len(e.channels) {
		e.diagnostic(fmt.Sprintf("channel %d out of range", i))
		return nil
	}
	return e.channels[i]
}

// Schedule applies a at time t on the engine clock. Outside Render, actions
// at or before the current time are applied immediately; later ones wait for
// the block whose start time reaches t.
func (e *Engine) Schedule(t float64, a Action) {
	if e.closed.Load() {
		return
	}
	if t <= e.now && !e.queueing {
		e.dispatch(a)
		return
	}
	e.scheduler.Push(t, a)
}

// Post queues an action from any goroutine. It is applied at the start of
// the next rendered block.
func (e *Engine) Post(t float64, a Action) error {
	if e.closed.Load() {
		return ErrClosed
	}
	select {
	case e.inbox <- timedAction{time: t, action: a}:
		return nil
	default:
		return ErrInboxFull
	}
}

func (e *Engine) drainInbox() {
	for {
		select {
		case ta := <-e.inbox:
			e.scheduler.Push(ta.time, ta.action)
		default:
			return
		}
	}
}

func (e *Engine) dispatch(a Action) {
	switch a.Kind {
	case ActionMasterParameter:
		e.setMasterParameter(a.Parameter, a.Float)
		return
	case ActionStopAll:
		e.stopAll(a.Force)
		return
	case ActionResetControllers:
		e.resetAllControllers()
		return
	case ActionSystemExclusive:
		e.systemExclusive(a.Data)
		return
	case ActionReloadSoundbank:
		_ = e.reloadSoundbank(a.Bank)
		return
	case ActionApplySnapshot:
		e.applySnapshot(a.Snapshot)
		return
	}

	c := e.channel(a.Channel)
	if c == nil {
		return
	}
	switch a.Kind {
	case ActionNoteOn:
		c.noteOn(a.Number, a.Value)
	case ActionNoteOff:
		if a.Force {
			c.killNote(a.Number)
		} else {
			c.noteOff(a.Number)
		}
	case ActionKillNote:
		c.killNote(a.Number)
	case ActionControllerChange:
		c.controllerChange(a.Number, a.Value, a.Force)
	case ActionProgramChange:
		c.programChange(a.Number)
	case ActionPitchWheel:
		c.setPitchWheel(a.Value)
	case ActionChannelPressure:
		c.setChannelPressure(a.Value)
	case ActionPolyPressure:
		c.setPolyPressure(a.Number, a.Value)
	case ActionMuteChannel:
		c.setMuted(a.On)
	default:
		e.diagnostic(fmt.Sprintf("unhandled action %s", a.Kind))
	}
}

// NoteOn starts a note. Velocity 0 is a note-off.
func (e *Engine) NoteOn(channel, note, velocity int) {
	e.Schedule(e.now, Action{Kind: ActionNoteOn, Channel: channel, Number: note, Value: velocity})
}

// NoteOff releases a note, honoring the hold pedal.
func (e *Engine) NoteOff(channel, note int) {
	e.Schedule(e.now, Action{Kind: ActionNoteOff, Channel: channel, Number: note})
}

// KillNote stops a note without release.
func (e *Engine) KillNote(channel, note int) {
	e.Schedule(e.now, Action{Kind: ActionKillNote, Channel: channel, Number: note})
}

// ControllerChange sets a MIDI controller. Force overrides a controller lock.
func (e *Engine) ControllerChange(channel, cc, value int, force bool) {
	e.Schedule(e.now, Action{Kind: ActionControllerChange, Channel: channel, Number: cc, Value: value, Force: force})
}

// ProgramChange selects a preset using the channel's current bank.
func (e *Engine) ProgramChange(channel, program int) {
	e.Schedule(e.now, Action{Kind: ActionProgramChange, Channel: channel, Number: program})
}

// PitchWheel sets the 14-bit pitch wheel (8192 is centered).
func (e *Engine) PitchWheel(channel, value int) {
	e.Schedule(e.now, Action{Kind: ActionPitchWheel, Channel: channel, Value: value})
}

// ChannelPressure sets channel aftertouch.
func (e *Engine) ChannelPressure(channel, value int) {
	e.Schedule(e.now, Action{Kind: ActionChannelPressure, Channel: channel, Value: value})
}

// PolyPressure sets polyphonic aftertouch for one note.
func (e *Engine) PolyPressure(channel, note, value int) {
	e.Schedule(e.now, Action{Kind: ActionPolyPressure, Channel: channel, Number: note, Value: value})
}

// SetChannelMuted mutes or unmutes a channel. Muting stops its voices.
func (e *Engine) SetChannelMuted(channel int, muted bool) {
	e.Schedule(e.now, Action{Kind: ActionMuteChannel, Channel: channel, On: muted})
}

// SystemExclusive applies a system exclusive message (without the leading
// 0xF0).
func (e *Engine) SystemExclusive(data []byte) {
	e.Schedule(e.now, Action{Kind: ActionSystemExclusive, Data: data})
}

// StopAllChannels releases every voice, or kills them when force is set.
func (e *Engine) StopAllChannels(force bool) {
	e.Schedule(e.now, Action{Kind: ActionStopAll, Force: force})
}

// ResetAllControllers restores every channel to its power-on state.
func (e *Engine) ResetAllControllers() {
	e.Schedule(e.now, Action{Kind: ActionResetControllers})
}

func (e *Engine) stopAll(force bool) {
	for _, c := range e.channels {
		c.stopAll(force)
	}
	e.emit(Event{Kind: EventStopAll, Channel: -1, Value: boolToInt(force)})
}

func (e *Engine) resetAllControllers() {
	for _, c := range e.channels {
		c.resetControllers(true)
		e.emitChannelProperty(c)
	}
}

// Reset kills all voices, drops pending actions and restores controller
// defaults. The clock keeps running.
func (e *Engine) Reset() {
	for len(e.inbox) > 0 {
		<-e.inbox
	}
	e.scheduler.Clear()
	e.stopAll(true)
	e.resetAllControllers()
}

// Close stops all voices and releases the soundbanks. Render produces
// silence afterwards.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return ErrClosed
	}
	for _, c := range e.channels {
		c.stopAll(true)
		c.preset = nil
	}
	e.scheduler.Clear()
	e.cache.clear()
	e.bank = nil
	e.override = nil
	e.sequencer = nil
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
