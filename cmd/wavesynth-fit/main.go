package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-wavesynth/analysis"
	"github.com/cwbudde/algo-wavesynth/internal/wavio"
	"github.com/cwbudde/algo-wavesynth/soundbank"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	SoundbankPath   string             `json:"soundbank_path"`
	OutputSoundbank string             `json:"output_soundbank"`
	Instrument      string             `json:"instrument"`
	Zone            int                `json:"zone"`
	SampleRate      int                `json:"sample_rate"`
	Note            int                `json:"note"`
	Velocity        int                `json:"velocity"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
}

// Generator knobs in SoundFont units: timecents, centibels, absolute cents.
var allKnobs = []knobDef{
	{Name: "attackVolEnv", Min: -12000, Max: 2000, IsInt: true},
	{Name: "holdVolEnv", Min: -12000, Max: 2000, IsInt: true},
	{Name: "decayVolEnv", Min: -12000, Max: 4000, IsInt: true},
	{Name: "sustainVolEnv", Min: 0, Max: 1440, IsInt: true},
	{Name: "releaseVolEnv", Min: -12000, Max: 4000, IsInt: true},
	{Name: "initialFilterFc", Min: 1500, Max: 13500, IsInt: true},
	{Name: "initialFilterQ", Min: 0, Max: 400, IsInt: true},
	{Name: "initialAttenuation", Min: 0, Max: 480, IsInt: true},
	{Name: "fineTune", Min: -100, Max: 100, IsInt: true},
}

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	bankPath := flag.String("soundbank", "assets/soundbanks/default.json", "Base soundbank JSON path")
	outputBank := flag.String("output-soundbank", "assets/soundbanks/fitted.json", "Path to write the fitted soundbank JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-soundbank>.report.json)")
	instrument := flag.String("instrument", "", "Instrument to fit (default: first instrument)")
	zoneIndex := flag.Int("zone", -1, "Zone index inside the instrument (default: first zone covering -note)")
	knobList := flag.String("knobs", "", "Comma separated generator names to fit (default: all envelope and filter knobs)")
	program := flag.Int("program", 0, "Program used to play the instrument")
	bankNum := flag.Int("bank", 0, "Bank used to play the instrument")
	note := flag.Int("note", 69, "MIDI note to fit")
	velocity := flag.Int("velocity", 100, "MIDI velocity")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	withEffects := flag.Bool("effects", false, "Render through the default reverb and chorus")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 4000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 1.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum render duration in seconds")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write best candidate render")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workersRaw := flag.String("workers", "auto", "Parallel workers: integer >= 1 or 'auto'")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	workers, err := parseWorkersFlag(*workersRaw)
	if err != nil {
		die("invalid -workers: %v", err)
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	if *reportPath == "" {
		*reportPath = *outputBank + ".report.json"
	}

	base, err := soundbank.ReadFile(*bankPath)
	if err != nil {
		die("failed to load soundbank: %v", err)
	}
	baseDir := filepath.Dir(*bankPath)
	work, err := inlineSamples(base, baseDir)
	if err != nil {
		die("failed to load samples: %v", err)
	}
	target, err := findTarget(work, *instrument, *zoneIndex, *note, *velocity)
	if err != nil {
		die("%v", err)
	}
	defs, err := selectKnobs(*knobList)
	if err != nil {
		die("%v", err)
	}
	initCand := initCandidate(work, target, defs)
	if *resume {
		if resumed, ok, err := loadCandidateFromReport(*reportPath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", *reportPath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", *reportPath)
		}
	}

	ref, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref64, err := wavio.Resample(wavio.To64(ref), refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	render := renderConfig{
		sampleRate:      *sampleRate,
		bank:            *bankNum,
		program:         *program,
		note:            *note,
		velocity:        *velocity,
		releaseAfter:    *releaseAfter,
		effects:         *withEffects,
		decayDBFS:       *decayDBFS,
		decayHoldBlocks: *decayHoldBlocks,
		minDuration:     *minDuration,
		maxDuration:     *maxDuration,
	}
	if _, err := renderCandidate(work, target, defs, initCand, render); err != nil {
		die("base soundbank does not render: %v", err)
	}

	fmt.Printf("Fitting %d knobs of %s zone %d against %s (note %d, %d Hz)\n",
		len(defs), work.Instruments[target.instrument].Name, target.zone, *referencePath, *note, *sampleRate)

	out := outputConfig{
		base:            base,
		work:            work,
		target:          target,
		defs:            defs,
		render:          render,
		outputBank:      *outputBank,
		reportPath:      *reportPath,
		referencePath:   *referencePath,
		bankPath:        *bankPath,
		variant:         strings.ToLower(*mayflyVariant),
		writeCandidate:  *writeBestCandidate,
		checkpointEvery: *checkpointEvery,
	}
	res, err := runOptimization(&optimizationConfig{
		reference:        ref64,
		initCandidate:    initCand,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          workers,
		out:              &out,
	})
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := writeOutputs(&out, res.best, res.bestMetrics, res.elapsed, res.evals, res.checkpoints+1); err != nil {
		die("failed to write outputs: %v", err)
	}
	fmt.Printf("Done evals=%d elapsed=%.1fs best=%.4f sim=%.2f%%\n", res.evals, res.elapsed, res.bestMetrics.Score, res.bestMetrics.Similarity*100.0)
	fmt.Printf("Wrote %s and %s\n", *outputBank, *reportPath)
}
