// Package seqscript turns Lua event scripts into time-ordered engine actions
// and feeds them to an engine as a sequencer.
package seqscript

import (
	"sort"

	"github.com/cwbudde/algo-wavesynth/synth"
)

// DefaultLookahead is how far ahead of the engine clock Advance schedules.
const DefaultLookahead = 0.05

// Event is one action at an absolute time in seconds.
type Event struct {
	Time   float64
	Action synth.Action
}

// Score is an ordered list of events. It implements synth.Sequencer: every
// Advance hands the events inside the lookahead window to the engine's
// scheduler.
type Score struct {
	Events []Event
	// Length is the requested render length in seconds; 0 means the time of
	// the last event.
	Length    float64
	Lookahead float64

	pos int
}

// Add appends an event, keeping the list sorted. Equal times keep their
// insertion order.
func (s *Score) Add(t float64, a synth.Action) {
	i := sort.Search(len(s.Events), func(i int) bool { return s.Events[i].Time > t })
	s.Events = append(s.Events, Event{})
	copy(s.Events[i+1:], s.Events[i:])
	s.Events[i] = Event{Time: t, Action: a}
}

// Duration returns Length or, when unset, the time of the last event.
func (s *Score) Duration() float64 {
	if s.Length > 0 {
		return s.Length
	}
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Time
}

// Remaining returns the number of events not yet handed to an engine.
func (s *Score) Remaining() int { return len(s.Events) - s.pos }

// Rewind makes the whole score pending again.
func (s *Score) Rewind() { s.pos = 0 }

// Advance schedules every pending event with time before now+Lookahead.
func (s *Score) Advance(e *synth.Engine, now float64) {
	look := s.Lookahead
	if look <= 0 {
		look = DefaultLookahead
	}
	horizon := now + look
	for s.pos < len(s.Events) && s.Events[s.pos].Time < horizon {
		ev := s.Events[s.pos]
		e.Schedule(ev.Time, ev.Action)
		s.pos++
	}
}
