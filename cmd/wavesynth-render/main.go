package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-wavesynth/config"
	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
	"github.com/cwbudde/algo-wavesynth/seqscript"
	"github.com/cwbudde/algo-wavesynth/synth"
)

func main() {
	configPath := flag.String("config", "", "Settings JSON file path (optional)")
	bankPath := flag.String("soundbank", "", "Soundbank JSON path (overrides the settings file)")
	scriptPath := flag.String("script", "", "Lua event script; replaces the single-note mode")
	channel := flag.Int("channel", 0, "MIDI channel for single-note mode")
	program := flag.Int("program", -1, "Program change before the note (-1 keeps the configured program)")
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	tail := flag.Float64("tail", 1.0, "Seconds rendered after the last script event")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds in single-note mode")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (0 keeps the configured rate)")
	irPath := flag.String("ir", "", "Reverb IR WAV path override (optional)")
	dry := flag.Bool("dry", false, "Disable reverb and chorus")
	listPresets := flag.Bool("list-presets", false, "Print the soundbank's presets and exit")
	verbose := flag.Bool("verbose", false, "Print engine events")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	settings := config.NewDefaultSettings()
	if *configPath != "" {
		s, err := config.LoadJSON(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading settings %q: %v\n", *configPath, err)
			os.Exit(1)
		}
		settings = s
	}
	if *bankPath != "" {
		settings.SoundbankPath = *bankPath
	}
	if settings.SoundbankPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no soundbank given (use -soundbank or a settings file)")
		os.Exit(1)
	}
	if *sampleRate > 0 {
		settings.Engine.SampleRate = *sampleRate
	}
	if *irPath != "" {
		settings.Effects.ReverbIRPath = *irPath
	}
	if *dry {
		settings.Effects.ReverbEnabled = false
		settings.Effects.ChorusEnabled = false
	}
	if *verbose {
		settings.Engine.OnEvent = func(ev synth.Event) {
			fmt.Printf("  event %s ch=%d\n", ev.Kind, ev.Channel)
		}
	}

	bank, err := settings.LoadSoundbank()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading soundbank %q: %v\n", settings.SoundbankPath, err)
		os.Exit(1)
	}
	e, err := settings.NewEngine(bank)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	if *listPresets {
		for _, p := range e.PresetList() {
			fmt.Printf("%3d:%3d  %s\n", p.Bank, p.Program, p.Name)
		}
		return
	}

	rack, err := settings.NewRack()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating effects: %v\n", err)
		os.Exit(1)
	}

	sr := e.SampleRate()
	var score *seqscript.Score
	if *scriptPath != "" {
		score, err = seqscript.Load(context.Background(), *scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running script: %v\n", err)
			os.Exit(1)
		}
		e.AttachSequencer(score)
		*duration = score.Duration() + *tail
		fmt.Printf("Rendering %s (%d events, %.2f seconds) at %d Hz (soundbank: %s)...\n", *scriptPath, len(score.Events), *duration, sr, settings.SoundbankPath)
	} else {
		if *program >= 0 {
			e.ProgramChange(*channel, *program)
		}
		e.NoteOn(*channel, *note, *velocity)
		fmt.Printf("Rendering note %d, velocity %d, for %.2f seconds at %d Hz (soundbank: %s)...\n", *note, *velocity, *duration, sr, settings.SoundbankPath)
	}

	r := &renderer{engine: e, rack: rack, out: synth.NewOutput(e.ChannelCount(), synth.DefaultBlockSize)}
	autoStop := !math.IsInf(*decayDBFS, 1)
	releaseAtFrame := -1
	if score == nil {
		releaseAtFrame = max(int(float64(sr)*(*releaseAfter)), 0)
	}

	var samples []float32
	if autoStop {
		minFrames := int(float64(sr) * (*minDuration))
		maxFrames := max(int(float64(sr)*(*maxDuration)), minFrames, synth.DefaultBlockSize)
		if score != nil {
			// never stop before the score has played out
			minFrames = max(minFrames, int(float64(sr)*score.Duration()))
		}
		samples = r.renderUntilSilent(minFrames, maxFrames, releaseAtFrame, *channel, *note, *decayDBFS, max(*decayHoldBlocks, 1))
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", len(samples)/2, float64(len(samples)/2)/float64(sr), *decayDBFS)
	} else {
		totalFrames := max(int(float64(sr)*(*duration)), 1)
		samples = r.render(totalFrames, releaseAtFrame, *channel, *note)
	}

	if err := wavio.WriteInterleaved(*output, samples, 2, sr); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples)/2)
}

type renderer struct {
	engine *synth.Engine
	rack   *effects.Rack
	out    *synth.Output
	frames int
}

func (r *renderer) block(n int) []float32 {
	block := r.out
	if n < r.out.Frames() {
		block = r.out.Slice(n)
	}
	r.engine.Render(block)
	dst := make([]float32, n*2)
	r.rack.Process(block, dst)
	r.frames += n
	return dst
}

func (r *renderer) maybeRelease(releaseAtFrame, channel, note int) int {
	if releaseAtFrame >= 0 && r.frames >= releaseAtFrame {
		r.engine.NoteOff(channel, note)
		return -1
	}
	return releaseAtFrame
}

func (r *renderer) render(totalFrames, releaseAtFrame, channel, note int) []float32 {
	samples := make([]float32, 0, totalFrames*2)
	for r.frames < totalFrames {
		releaseAtFrame = r.maybeRelease(releaseAtFrame, channel, note)
		n := min(synth.DefaultBlockSize, totalFrames-r.frames)
		samples = append(samples, r.block(n)...)
	}
	return samples
}

func (r *renderer) renderUntilSilent(minFrames, maxFrames, releaseAtFrame, channel, note int, thresholdDBFS float64, holdBlocks int) []float32 {
	thresholdLin := math.Pow(10.0, thresholdDBFS/20.0)
	samples := make([]float32, 0, max(minFrames, synth.DefaultBlockSize)*2)
	belowCount := 0
	for r.frames < maxFrames {
		releaseAtFrame = r.maybeRelease(releaseAtFrame, channel, note)
		n := min(synth.DefaultBlockSize, maxFrames-r.frames)
		block := r.block(n)
		samples = append(samples, block...)
		if r.frames < minFrames {
			continue
		}
		if wavio.RMS(block) < thresholdLin {
			belowCount++
			if belowCount >= holdBlocks {
				break
			}
		} else {
			belowCount = 0
		}
	}
	return samples
}
