package synth

import (
	"sort"

	"github.com/cwbudde/algo-wavesynth/soundbank"
)

// ActionKind tags the variant carried by an Action.
type ActionKind int

const (
	ActionNoteOn ActionKind = iota
	ActionNoteOff
	ActionKillNote
	ActionControllerChange
	ActionProgramChange
	ActionPitchWheel
	ActionChannelPressure
	ActionPolyPressure
	ActionSystemExclusive
	ActionMuteChannel
	ActionStopAll
	ActionResetControllers
	ActionMasterParameter
	ActionReloadSoundbank
	ActionApplySnapshot
)

func (k ActionKind) String() string {
	switch k {
	case ActionNoteOn:
		return "note-on"
	case ActionNoteOff:
		return "note-off"
	case ActionKillNote:
		return "kill-note"
	case ActionControllerChange:
		return "controller-change"
	case ActionProgramChange:
		return "program-change"
	case ActionPitchWheel:
		return "pitch-wheel"
	case ActionChannelPressure:
		return "channel-pressure"
	case ActionPolyPressure:
		return "poly-pressure"
	case ActionSystemExclusive:
		return "system-exclusive"
	case ActionMuteChannel:
		return "mute-channel"
	case ActionStopAll:
		return "stop-all"
	case ActionResetControllers:
		return "reset-controllers"
	case ActionMasterParameter:
		return "master-parameter"
	case ActionReloadSoundbank:
		return "reload-soundbank"
	case ActionApplySnapshot:
		return "apply-snapshot"
	}
	return "unknown"
}

// Action is a deferred control operation. Only the fields relevant to Kind
// are read.
type Action struct {
	Kind    ActionKind
	Channel int
	// Note, Controller or Program number.
	Number int
	// Velocity, controller value, pressure or 14-bit pitch wheel value.
	Value int
	Force bool
	// Muted for ActionMuteChannel.
	On        bool
	Data      []byte
	Parameter MasterParameter
	Float     float64
	Bank      *soundbank.Bank
	Snapshot  *Snapshot
}

type scheduledAction struct {
	time   float64
	action Action
}

// Scheduler is a time-ordered queue of actions. Actions with equal times keep
// their insertion order.
type Scheduler struct {
	queue []scheduledAction
}

// NewScheduler returns an empty scheduler with room for capacity actions.
func NewScheduler(capacity int) *Scheduler {
	return &Scheduler{queue: make([]scheduledAction, 0, capacity)}
}

// Push inserts a after every queued action with time <= t.
func (s *Scheduler) Push(t float64, a Action) {
	i := sort.Search(len(s.queue), func(i int) bool { return s.queue[i].time > t })
	s.queue = append(s.queue, scheduledAction{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = scheduledAction{time: t, action: a}
}

// PopDue removes and returns the earliest action whose time is <= now.
func (s *Scheduler) PopDue(now float64) (Action, bool) {
	if len(s.queue) == 0 || s.queue[0].time > now {
		return Action{}, false
	}
	a := s.queue[0].action
	copy(s.queue, s.queue[1:])
	s.queue[len(s.queue)-1] = scheduledAction{}
	s.queue = s.queue[:len(s.queue)-1]
	return a, true
}

// Len returns the number of pending actions.
func (s *Scheduler) Len() int { return len(s.queue) }

// NextTime returns the time of the earliest pending action.
func (s *Scheduler) NextTime() (float64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].time, true
}

// Clear drops all pending actions.
func (s *Scheduler) Clear() {
	for i := range s.queue {
		s.queue[i] = scheduledAction{}
	}
	s.queue = s.queue[:0]
}
