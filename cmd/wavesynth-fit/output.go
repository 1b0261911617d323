package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-wavesynth/analysis"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

type outputConfig struct {
	// base keeps the original sample references; work has them decoded.
	base            *soundbank.File
	work            *soundbank.File
	target          fitTarget
	defs            []knobDef
	render          renderConfig
	outputBank      string
	reportPath      string
	referencePath   string
	bankPath        string
	variant         string
	writeCandidate  string
	checkpointEvery int
}

func writeOutputs(out *outputConfig, best candidate, bestM analysis.Metrics, elapsed float64, evals int, checkpoints int) error {
	fitted := applyCandidate(out.base, out.target, out.defs, best)
	fitted.Samples = relativizeSamples(fitted.Samples, filepath.Dir(out.bankPath), filepath.Dir(out.outputBank))
	if err := os.MkdirAll(filepath.Dir(out.outputBank), 0o755); err != nil {
		return err
	}
	if err := soundbank.WriteFile(out.outputBank, fitted); err != nil {
		return err
	}

	knobs := make(map[string]float64, len(out.defs))
	for i, d := range out.defs {
		knobs[d.Name] = best.Vals[i]
	}
	rep := runReport{
		ReferencePath:   out.referencePath,
		SoundbankPath:   out.bankPath,
		OutputSoundbank: out.outputBank,
		Instrument:      out.work.Instruments[out.target.instrument].Name,
		Zone:            out.target.zone,
		SampleRate:      out.render.sampleRate,
		Note:            out.render.note,
		Velocity:        out.render.velocity,
		DurationSec:     elapsed,
		Evaluations:     evals,
		MayflyVariant:   out.variant,
		BestScore:       bestM.Score,
		BestSimilarity:  bestM.Similarity,
		BestMetrics:     bestM,
		BestKnobs:       knobs,
		CheckpointCount: checkpoints,
	}
	return writeJSON(out.reportPath, rep)
}

func writeBestCandidateSnapshot(out *outputConfig, best candidate) error {
	_, stereo, err := renderCandidateStereo(out.work, out.target, out.defs, best, out.render)
	if err != nil {
		return err
	}
	return wavio.WriteInterleaved(out.writeCandidate, stereo, 2, out.render.sampleRate)
}

// relativizeSamples rewrites relative sample paths so they still resolve when
// the fitted soundbank is written to a different directory.
func relativizeSamples(in []soundbank.SampleFile, fromDir, toDir string) []soundbank.SampleFile {
	out := make([]soundbank.SampleFile, len(in))
	copy(out, in)
	for i := range out {
		p := out[i].Path
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(fromDir, p))
		if err != nil {
			continue
		}
		absTo, err := filepath.Abs(toDir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absTo, abs)
		if err != nil {
			out[i].Path = abs
			continue
		}
		out[i].Path = filepath.ToSlash(rel)
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
