package synth

import "testing"

func TestSchedulerOrdersByTimeThenInsertion(t *testing.T) {
	s := NewScheduler(4)
	for i, at := range []float64{5, 2, 8, 2} {
		s.Push(at, Action{Kind: ActionNoteOn, Number: i})
	}

	var times []float64
	var order []int
	for {
		next, ok := s.NextTime()
		if !ok {
			break
		}
		a, ok := s.PopDue(10)
		if !ok {
			t.Fatalf("expected due action at %f", next)
		}
		times = append(times, next)
		order = append(order, a.Number)
	}

	wantTimes := []float64{2, 2, 5, 8}
	wantOrder := []int{1, 3, 0, 2}
	for i := range wantTimes {
		if times[i] != wantTimes[i] || order[i] != wantOrder[i] {
			t.Fatalf("pop %d: got time=%f index=%d want time=%f index=%d", i, times[i], order[i], wantTimes[i], wantOrder[i])
		}
	}
}

func TestSchedulerHoldsFutureActions(t *testing.T) {
	s := NewScheduler(0)
	s.Push(1.0, Action{Kind: ActionNoteOff})
	if _, ok := s.PopDue(0.5); ok {
		t.Fatalf("action due before its time")
	}
	if _, ok := s.PopDue(1.0); !ok {
		t.Fatalf("action not due at its time")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Len())
	}
}

func TestScheduleAppliesPastActionsImmediately(t *testing.T) {
	e := newTestEngine(t, loopingBank(), nil)
	out := NewOutput(16, 128)
	renderBlocks(e, out, 4)

	e.Schedule(0, Action{Kind: ActionNoteOn, Channel: 0, Number: 60, Value: 100})
	if got := e.VoiceCount(); got != 1 {
		t.Fatalf("expected past action to apply immediately: voices=%d", got)
	}

	at := e.CurrentTime() + 0.01
	e.Schedule(at, Action{Kind: ActionNoteOn, Channel: 1, Number: 64, Value: 100})
	if got := e.ChannelVoiceCount(1); got != 0 {
		t.Fatalf("future action applied early")
	}
	for e.CurrentTime() < at {
		e.Render(out)
	}
	e.Render(out)
	if got := e.ChannelVoiceCount(1); got != 1 {
		t.Fatalf("future action not applied: voices=%d", got)
	}
}
