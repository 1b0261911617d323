package synth

// EventKind identifies an event emitted by the engine.
type EventKind int

const (
	EventReady EventKind = iota
	EventNoteOn
	EventNoteOff
	EventControllerChange
	EventProgramChange
	EventPitchWheel
	EventChannelPressure
	EventPolyPressure
	EventMuteChannel
	EventStopAll
	EventChannelProperty
	EventPresetList
	EventMasterParameterChange
	EventSoundbankError
	EventDiagnostic
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventControllerChange:
		return "controller-change"
	case EventProgramChange:
		return "program-change"
	case EventPitchWheel:
		return "pitch-wheel"
	case EventChannelPressure:
		return "channel-pressure"
	case EventPolyPressure:
		return "poly-pressure"
	case EventMuteChannel:
		return "mute-channel"
	case EventStopAll:
		return "stop-all"
	case EventChannelProperty:
		return "channel-property"
	case EventPresetList:
		return "preset-list"
	case EventMasterParameterChange:
		return "master-parameter-change"
	case EventSoundbankError:
		return "soundbank-error"
	case EventDiagnostic:
		return "diagnostic"
	}
	return "unknown"
}

// PresetInfo names a preset available in the loaded soundbanks.
type PresetInfo struct {
	Name    string `json:"name"`
	Bank    int    `json:"bank"`
	Program int    `json:"program"`
}

// ChannelProperty describes the observable state of one channel.
type ChannelProperty struct {
	VoiceCount int
	Program    int
	Bank       int
	Drums      bool
	Muted      bool
	PresetName string
}

// Event is a notification from the engine. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind       EventKind
	Channel    int
	Number     int
	Value      int
	Muted      bool
	Property   ChannelProperty
	Presets    []PresetInfo
	Parameter  MasterParameter
	ParamValue float64
	Err        error
	Message    string
}

func (e *Engine) emit(ev Event) {
	if e.onEvent == nil {
		return
	}
	if !e.eventsEnabled && ev.Kind != EventReady && ev.Kind != EventSoundbankError {
		return
	}
	e.onEvent(ev)
}

func (e *Engine) diagnostic(msg string) {
	e.emit(Event{Kind: EventDiagnostic, Channel: -1, Message: msg})
}

func (e *Engine) emitChannelProperty(c *Channel) {
	if e.onEvent == nil || !e.eventsEnabled {
		return
	}
	e.emit(Event{Kind: EventChannelProperty, Channel: c.number, Property: c.property()})
}

func (e *Engine) emitPresetList() {
	if e.onEvent == nil || !e.eventsEnabled {
		return
	}
	e.emit(Event{Kind: EventPresetList, Channel: -1, Presets: e.PresetList()})
}
