package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-wavesynth/effects"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
)

func main() {
	cfg := effects.DefaultRoomConfig(48000)

	output := flag.String("output", "assets/ir/room_48k.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.IntVar(&cfg.EarlyCount, "early", cfg.EarlyCount, "Number of early reflections")
	flag.Float64Var(&cfg.LateLevel, "late", cfg.LateLevel, "Diffuse late-tail level")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo decorrelation width")
	flag.Float64Var(&cfg.Brightness, "brightness", cfg.Brightness, "High band level of the tail")
	flag.Float64Var(&cfg.LowDecayS, "low-decay", cfg.LowDecayS, "Low-frequency decay time (s)")
	flag.Float64Var(&cfg.HighDecayS, "high-decay", cfg.HighDecayS, "High-frequency decay time (s)")
	flag.Float64Var(&cfg.CrossoverHz, "crossover", cfg.CrossoverHz, "Low/high band crossover in Hz")
	flag.Float64Var(&cfg.FadeOutS, "fade", cfg.FadeOutS, "Cosine fade-out length in seconds")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target")
	flag.Parse()

	left, right, err := effects.GenerateRoom(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "room ir error: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.WriteStereoLR(*output, left, right, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	peak, rms := stats(left, right)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}

func stats(left []float32, right []float32) (peak float64, rms float64) {
	if len(left) == 0 || len(right) == 0 {
		return 0, 0
	}
	for i := range left {
		peak = max(peak, math.Abs(float64(left[i])), math.Abs(float64(right[i])))
	}
	l, r := wavio.RMS(left), wavio.RMS(right)
	return peak, math.Sqrt(0.5 * (l*l + r*r))
}
