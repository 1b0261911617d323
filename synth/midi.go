package synth

import "fmt"

// MIDI status bytes.
const (
	statusNoteOff         = 0x80
	statusNoteOn          = 0x90
	statusPolyPressure    = 0xa0
	statusControlChange   = 0xb0
	statusProgramChange   = 0xc0
	statusChannelPressure = 0xd0
	statusPitchWheel      = 0xe0
	statusSystemExclusive = 0xf0
	statusReset           = 0xff
)

// ProcessMessage decodes a raw MIDI message and schedules it at time t on
// the engine clock. channelOffset is added to the channel nibble, which
// allows several 16-channel ports. With force, note-offs kill the note and
// controller locks are ignored.
func (e *Engine) ProcessMessage(msg []byte, t float64, channelOffset int, force bool) error {
	if len(msg) == 0 {
		return fmt.Errorf("synth: empty MIDI message")
	}
	status := int(msg[0])
	if status == statusSystemExclusive {
		e.Schedule(t, Action{Kind: ActionSystemExclusive, Data: append([]byte(nil), msg[1:]...)})
		return nil
	}
	if status == statusReset {
		e.Schedule(t, Action{Kind: ActionStopAll, Force: true})
		e.Schedule(t, Action{Kind: ActionResetControllers})
		return nil
	}
	if status < 0x80 || status >= 0xf0 {
		return fmt.Errorf("synth: unsupported MIDI status %#02x", status)
	}
	ch := status&0x0f + channelOffset
	data := func(i int) (int, error) {
		if i >= len(msg) {
			return 0, fmt.Errorf("synth: MIDI message % x truncated", msg)
		}
		return int(msg[i] & 0x7f), nil
	}
	d1, err := data(1)
	if err != nil {
		return err
	}

	var a Action
	switch status & 0xf0 {
	case statusProgramChange:
		a = Action{Kind: ActionProgramChange, Channel: ch, Number: d1}
	case statusChannelPressure:
		a = Action{Kind: ActionChannelPressure, Channel: ch, Value: d1}
	default:
		d2, err := data(2)
		if err != nil {
			return err
		}
		switch status & 0xf0 {
		case statusNoteOff:
			a = Action{Kind: ActionNoteOff, Channel: ch, Number: d1, Force: force}
		case statusNoteOn:
			if d2 == 0 {
				a = Action{Kind: ActionNoteOff, Channel: ch, Number: d1, Force: force}
			} else {
				a = Action{Kind: ActionNoteOn, Channel: ch, Number: d1, Value: d2}
			}
		case statusPolyPressure:
			a = Action{Kind: ActionPolyPressure, Channel: ch, Number: d1, Value: d2}
		case statusControlChange:
			a = Action{Kind: ActionControllerChange, Channel: ch, Number: d1, Value: d2, Force: force}
		case statusPitchWheel:
			a = Action{Kind: ActionPitchWheel, Channel: ch, Value: d2<<7 | d1}
		}
	}
	e.Schedule(t, a)
	return nil
}
