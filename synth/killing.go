package synth

// makeRoom evicts voices until n more fit under the voice cap and returns how
// many of the n may be started. Voices in release go first, then the
// quietest, then the oldest.
func (e *Engine) makeRoom(n int) int {
	if n <= 0 {
		return 0
	}
	total := e.VoiceCount()
	for total+n > e.voiceCap {
		victim := e.pickVictim()
		if victim == nil {
			break
		}
		victim.channel.removeVoice(victim)
		total--
	}
	return clampInt(e.voiceCap-total, 0, n)
}

// trimVoices enforces a lowered voice cap.
func (e *Engine) trimVoices() {
	for total := e.VoiceCount(); total > e.voiceCap; total-- {
		victim := e.pickVictim()
		if victim == nil {
			return
		}
		victim.channel.removeVoice(victim)
	}
}

func (e *Engine) pickVictim() *Voice {
	var best *Voice
	for _, c := range e.channels {
		for _, v := range c.voices {
			if best == nil || evictBefore(v, best) {
				best = v
			}
		}
	}
	return best
}

// evictBefore reports whether a is a better eviction candidate than b.
func evictBefore(a, b *Voice) bool {
	if a.isInRelease != b.isInRelease {
		return a.isInRelease
	}
	if aa, ba := a.amplitude(), b.amplitude(); aa != ba {
		return aa < ba
	}
	return a.seq < b.seq
}
