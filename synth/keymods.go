package synth

// KeyModifier overrides the velocity or preset for one key of one channel.
// A Velocity <= 0 or a negative Program leaves the incoming value untouched.
type KeyModifier struct {
	Velocity int `json:"velocity"`
	Bank     int `json:"bank"`
	Program  int `json:"program"`
}

type keyModifierKey struct {
	channel int
	note    int
}

type keyModifierTable map[keyModifierKey]KeyModifier

func (t keyModifierTable) get(channel, note int) (KeyModifier, bool) {
	if len(t) == 0 {
		return KeyModifier{}, false
	}
	m, ok := t[keyModifierKey{channel, note}]
	return m, ok
}

// AddKeyModifier installs a modifier for a channel and note.
func (e *Engine) AddKeyModifier(channel, note int, m KeyModifier) {
	if note < 0 || note > 127 || e.channel(channel) == nil {
		return
	}
	if e.keyModifiers == nil {
		e.keyModifiers = make(keyModifierTable)
	}
	e.keyModifiers[keyModifierKey{channel, note}] = m
}

// DeleteKeyModifier removes the modifier of a channel and note.
func (e *Engine) DeleteKeyModifier(channel, note int) {
	delete(e.keyModifiers, keyModifierKey{channel, note})
}

// ClearKeyModifiers removes every key modifier.
func (e *Engine) ClearKeyModifiers() {
	e.keyModifiers = nil
}
