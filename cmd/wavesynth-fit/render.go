package main

import (
	"math"

	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/algo-wavesynth/synth"
)

type renderConfig struct {
	sampleRate      int
	bank            int
	program         int
	note            int
	velocity        int
	releaseAfter    float64
	effects         bool
	decayDBFS       float64
	decayHoldBlocks int
	minDuration     float64
	maxDuration     float64
}

// renderCandidate plays one note on channel 0 of a fresh engine built from the
// candidate soundbank and returns the mono mix.
func renderCandidate(work *soundbank.File, t fitTarget, defs []knobDef, c candidate, rc renderConfig) ([]float64, error) {
	mono, _, err := renderCandidateStereo(work, t, defs, c, rc)
	return mono, err
}

// renderCandidateStereo also returns the interleaved stereo render.
func renderCandidateStereo(work *soundbank.File, t fitTarget, defs []knobDef, c candidate, rc renderConfig) ([]float64, []float32, error) {
	bank, err := soundbank.Build(applyCandidate(work, t, defs, c), "")
	if err != nil {
		return nil, nil, err
	}
	cfg := synth.DefaultConfig()
	cfg.SampleRate = rc.sampleRate
	cfg.Channels = 1
	cfg.EventsEnabled = false
	e, err := synth.NewEngine(bank, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer e.Close()

	var rack *effects.Rack
	if rc.effects {
		rack, err = effects.NewRack(rc.sampleRate, effects.DefaultParams(rc.sampleRate))
		if err != nil {
			return nil, nil, err
		}
	}

	if rc.bank == soundbank.PercussionBank {
		e.SetDrums(0, true)
	} else if rc.bank != 0 {
		e.ControllerChange(0, 0, rc.bank, false)
		e.ControllerChange(0, 32, rc.bank, false)
	}
	e.ProgramChange(0, rc.program)
	e.NoteOn(0, rc.note, rc.velocity)

	sr := rc.sampleRate
	minFrames := int(float64(sr) * rc.minDuration)
	maxFrames := max(int(float64(sr)*rc.maxDuration), minFrames, synth.DefaultBlockSize)
	releaseAtFrame := max(int(float64(sr)*rc.releaseAfter), 0)
	thresholdLin := math.Pow(10.0, rc.decayDBFS/20.0)
	holdBlocks := max(rc.decayHoldBlocks, 1)

	out := synth.NewOutput(e.ChannelCount(), synth.DefaultBlockSize)
	samples := make([]float32, 0, max(minFrames, synth.DefaultBlockSize)*2)
	released := false
	belowCount := 0
	for frames := 0; frames < maxFrames; {
		if !released && frames >= releaseAtFrame {
			e.NoteOff(0, rc.note)
			released = true
		}
		n := min(synth.DefaultBlockSize, maxFrames-frames)
		block := out
		if n < out.Frames() {
			block = out.Slice(n)
		}
		e.Render(block)
		dst := make([]float32, n*2)
		if rack != nil {
			rack.Process(block, dst)
		} else {
			block.MixDry(dst)
		}
		samples = append(samples, dst...)
		frames += n

		if frames < minFrames {
			continue
		}
		if wavio.RMS(dst) < thresholdLin {
			belowCount++
			if belowCount >= holdBlocks {
				break
			}
		} else {
			belowCount = 0
		}
	}
	return wavio.StereoToMono64(samples), samples, nil
}
