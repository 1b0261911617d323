package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-wavesynth/analysis"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "output.wav", "Candidate WAV path")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := readAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	cand, err := readAt(*candidatePath, *sampleRate)
	if err != nil {
		die("failed to read candidate: %v", err)
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Envelope RMSE:    %.1f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.1f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Decay slopes:     ref=%.1f dB/s  cand=%.1f dB/s  (diff %.1f)\n", metrics.RefDecayDBPerS, metrics.CandDecayDBPerS, metrics.DecayDiffDBPerS)
	fmt.Printf("Attack:           ref=%.1f ms  cand=%.1f ms\n", metrics.RefAttackS*1000, metrics.CandAttackS*1000)
	fmt.Printf("Peak frequency:   ref=%.2f Hz  cand=%.2f Hz  (%.1f cents)\n", metrics.RefPeakHz, metrics.CandPeakHz, metrics.PitchDiffCents)
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func readAt(path string, sampleRate int) ([]float64, error) {
	mono, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(wavio.To64(mono), sr, sampleRate)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
