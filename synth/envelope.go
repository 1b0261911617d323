package synth

import "github.com/cwbudde/algo-wavesynth/soundbank"

type envStage int

const (
	stageDelay envStage = iota
	stageAttack
	stageHold
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

func (s envStage) String() string {
	switch s {
	case stageDelay:
		return "delay"
	case stageAttack:
		return "attack"
	case stageHold:
		return "hold"
	case stageDecay:
		return "decay"
	case stageSustain:
		return "sustain"
	case stageRelease:
		return "release"
	default:
		return "done"
	}
}

// volumeEnvelope is the per-sample DAHDSR amplitude envelope. Attack rises
// linearly in gain, decay and release fall linearly in dB. The output gain
// is smoothed toward the stage target every sample.
type volumeEnvelope struct {
	delay   int
	attack  int
	hold    int
	decay   int
	release int

	sustainDB      float64
	decayRate      float64 // dB per sample
	releaseRate    float64 // dB per sample
	releaseStartDB float64

	stage envStage
	pos   int

	gain      float64
	smoothing float64
}

func newVolumeEnvelope(gens *[soundbank.GeneratorCount]float64, key int, sampleRate, smoothing float64) volumeEnvelope {
	keyOffset := float64(60 - key)
	secs := func(t soundbank.GeneratorType) int {
		return int(timecentsToSeconds(gens[t])*sampleRate + 0.5)
	}
	e := volumeEnvelope{
		delay:     secs(soundbank.GenDelayVolEnv),
		attack:    secs(soundbank.GenAttackVolEnv),
		hold:      int(timecentsToSeconds(gens[soundbank.GenHoldVolEnv]+gens[soundbank.GenKeyNumToVolEnvHold]*keyOffset)*sampleRate + 0.5),
		decay:     int(timecentsToSeconds(gens[soundbank.GenDecayVolEnv]+gens[soundbank.GenKeyNumToVolEnvDecay]*keyOffset)*sampleRate + 0.5),
		release:   secs(soundbank.GenReleaseVolEnv),
		sustainDB: clampf(gens[soundbank.GenSustainVolEnv]/10.0, 0, silenceDB),
		smoothing: smoothing,
	}
	if e.decay > 0 {
		e.decayRate = silenceDB / float64(e.decay)
	}
	if e.release > 0 {
		e.releaseRate = silenceDB / float64(e.release)
	}
	e.stage = stageDelay
	e.skipEmptyStages()
	return e
}

func (e *volumeEnvelope) stageLength() int {
	switch e.stage {
	case stageDelay:
		return e.delay
	case stageAttack:
		return e.attack
	case stageHold:
		return e.hold
	}
	return -1
}

func (e *volumeEnvelope) skipEmptyStages() {
	for e.stage <= stageHold && e.pos >= e.stageLength() {
		e.stage++
		e.pos = 0
	}
	if e.stage == stageDecay && (e.decay == 0 || e.sustainDB == 0) {
		e.stage = stageSustain
	}
}

// targetDB returns the unsmoothed attenuation of the current position.
func (e *volumeEnvelope) targetDB() float64 {
	switch e.stage {
	case stageDelay:
		return silenceDB
	case stageAttack:
		return gainToAttenuation(float64(e.pos) / float64(e.attack))
	case stageHold:
		return 0
	case stageDecay:
		return clampf(float64(e.pos)*e.decayRate, 0, e.sustainDB)
	case stageSustain:
		return e.sustainDB
	case stageRelease:
		return clampf(e.releaseStartDB+float64(e.pos)*e.releaseRate, 0, silenceDB)
	}
	return silenceDB
}

func (e *volumeEnvelope) targetGain() float64 {
	switch e.stage {
	case stageDelay, stageDone:
		return 0
	case stageAttack:
		return float64(e.pos) / float64(e.attack)
	case stageHold:
		return 1
	}
	return attenuationToGain(e.targetDB())
}

// next advances one sample and returns the smoothed gain.
func (e *volumeEnvelope) next() float64 {
	target := e.targetGain()
	e.pos++
	switch e.stage {
	case stageDelay, stageAttack, stageHold:
		e.skipEmptyStages()
	case stageDecay:
		if float64(e.pos)*e.decayRate >= e.sustainDB {
			e.stage = stageSustain
			e.pos = 0
		}
	case stageRelease:
		if e.releaseStartDB+float64(e.pos)*e.releaseRate >= silenceDB {
			e.stage = stageDone
			e.pos = 0
		}
	}
	e.gain += (target - e.gain) * e.smoothing
	return e.gain
}

// startRelease enters the release stage from the current level.
func (e *volumeEnvelope) startRelease() {
	if e.stage >= stageRelease {
		return
	}
	e.releaseStartDB = e.targetDB()
	e.stage = stageRelease
	e.pos = 0
	if e.release == 0 || e.releaseStartDB >= silenceDB {
		e.stage = stageDone
	}
}

// finished reports that the envelope has reached silence.
func (e *volumeEnvelope) finished() bool {
	return e.stage == stageDone && e.gain < 1e-3
}

// modEnvelope is the modulation envelope, evaluated once per block on the
// voice-local clock. Its output is in 0..1.
type modEnvelope struct {
	delay   float64
	attack  float64
	hold    float64
	decay   float64
	release float64
	sustain float64

	released     bool
	releaseStart float64
	releaseLevel float64
}

func newModEnvelope(gens *[soundbank.GeneratorCount]float64, key int) modEnvelope {
	keyOffset := float64(60 - key)
	return modEnvelope{
		delay:   timecentsToSeconds(gens[soundbank.GenDelayModEnv]),
		attack:  timecentsToSeconds(gens[soundbank.GenAttackModEnv]),
		hold:    timecentsToSeconds(gens[soundbank.GenHoldModEnv] + gens[soundbank.GenKeyNumToModEnvHold]*keyOffset),
		decay:   timecentsToSeconds(gens[soundbank.GenDecayModEnv] + gens[soundbank.GenKeyNumToModEnvDecay]*keyOffset),
		release: timecentsToSeconds(gens[soundbank.GenReleaseModEnv]),
		sustain: 1 - clampf(gens[soundbank.GenSustainModEnv], 0, 1000)/1000.0,
	}
}

func (m *modEnvelope) level(t float64) float64 {
	if t < m.delay {
		return 0
	}
	t -= m.delay
	if t < m.attack {
		return t / m.attack
	}
	t -= m.attack
	if t < m.hold {
		return 1
	}
	t -= m.hold
	if m.decay <= 0 {
		return m.sustain
	}
	v := 1 - t/m.decay
	if v < m.sustain {
		return m.sustain
	}
	return v
}

func (m *modEnvelope) value(t float64) float64 {
	if !m.released {
		return m.level(t)
	}
	rt := t - m.releaseStart
	if m.release <= 0 || rt >= m.release {
		return 0
	}
	if rt < 0 {
		rt = 0
	}
	return m.releaseLevel * (1 - rt/m.release)
}

func (m *modEnvelope) startRelease(t float64) {
	if m.released {
		return
	}
	m.releaseLevel = m.level(t)
	m.releaseStart = t
	m.released = true
}
