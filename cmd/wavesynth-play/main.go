package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-wavesynth/config"
	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/seqscript"
	"github.com/cwbudde/algo-wavesynth/synth"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", "", "Settings JSON file path (optional)")
	bankPath := flag.String("soundbank", "", "Soundbank JSON path (overrides the settings file)")
	scriptPath := flag.String("script", "", "Lua event script to play before the keyboard takes over")
	channel := flag.Int("channel", 0, "MIDI channel played by the keyboard")
	program := flag.Int("program", 0, "Initial program")
	baseNote := flag.Int("base-note", 48, "Note of the lowest key on the lower row")
	velocity := flag.Int("velocity", 100, "Initial velocity")
	hold := flag.Float64("hold", 0.4, "Seconds a key press holds its note")
	bufferMS := flag.Int("buffer-ms", 40, "Audio device buffer in milliseconds")
	dry := flag.Bool("dry", false, "Disable reverb and chorus")
	flag.Parse()

	settings := config.NewDefaultSettings()
	if *configPath != "" {
		s, err := config.LoadJSON(*configPath)
		if err != nil {
			die("failed to load settings %q: %v", *configPath, err)
		}
		settings = s
	}
	if *bankPath != "" {
		settings.SoundbankPath = *bankPath
	}
	if settings.SoundbankPath == "" {
		die("no soundbank given (use -soundbank or a settings file)")
	}
	if *dry {
		settings.Effects.ReverbEnabled = false
		settings.Effects.ChorusEnabled = false
	}
	settings.Engine.OnEvent = func(ev synth.Event) {
		switch ev.Kind {
		case synth.EventProgramChange:
			fmt.Printf("program %d bank %d on channel %d\r\n", ev.Number, ev.Value, ev.Channel)
		case synth.EventSoundbankError:
			fmt.Printf("%s: %v\r\n", ev.Kind, ev.Err)
		case synth.EventDiagnostic:
			fmt.Printf("%s: %s\r\n", ev.Kind, ev.Message)
		}
	}

	bank, err := settings.LoadSoundbank()
	if err != nil {
		die("failed to load soundbank %q: %v", settings.SoundbankPath, err)
	}
	e, err := settings.NewEngine(bank)
	if err != nil {
		die("failed to create engine: %v", err)
	}
	defer e.Close()
	e.ProgramChange(*channel, *program)

	var rack *effects.Rack
	if settings.Effects.ReverbEnabled || settings.Effects.ChorusEnabled {
		rack, err = settings.NewRack()
		if err != nil {
			die("failed to create effects: %v", err)
		}
	}

	if *scriptPath != "" {
		score, err := seqscript.Load(context.Background(), *scriptPath)
		if err != nil {
			die("failed to run script: %v", err)
		}
		e.AttachSequencer(score)
	}

	st := newStream(e, rack)
	player, err := openDevice(st, e.SampleRate(), time.Duration(*bufferMS)*time.Millisecond)
	if err != nil {
		die("failed to open audio device: %v", err)
	}
	defer player.Close()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		die("failed to set raw terminal mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	kb := &keyboard{channel: *channel, base: *baseNote, velocity: *velocity, program: *program, hold: *hold}
	fmt.Printf("Playing %s at %d Hz. Keys: %s / %s, -/= octave, [/] velocity, </> program, space stop, \\ panic, esc quit\r\n",
		settings.SoundbankPath, e.SampleRate(), lowerRow, upperRow)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		act := kb.handle(buf[0])
		if act.quit {
			return
		}
		now := st.Now()
		for i, a := range act.actions {
			if err := e.Post(now+act.offsets[i], a); err != nil {
				fmt.Printf("dropped %s: %v\r\n", a.Kind, err)
			}
		}
		if act.status != "" {
			fmt.Printf("%s (base %d, velocity %d, program %d)\r\n", act.status, kb.base, kb.velocity, kb.program)
		}
		if err := player.Err(); err != nil {
			fmt.Printf("audio error: %v\r\n", err)
			return
		}
	}
}

type audioDevice interface {
	Err() error
	Close() error
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
