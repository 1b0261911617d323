// Package analysis measures rendered audio: level envelopes, spectral peaks
// and a combined distance between a reference and a candidate recording.
package analysis

import "math"

const (
	envFrame = 256
	envHop   = 128
)

// Metrics contains distance and similarity measurements between two signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`
	RefAttackS      float64 `json:"ref_attack_s"`
	CandAttackS     float64 `json:"cand_attack_s"`
	RefPeakHz       float64 `json:"ref_peak_hz"`
	CandPeakHz      float64 `json:"cand_peak_hz"`
	PitchDiffCents  float64 `json:"pitch_diff_cents"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare aligns candidate to reference and returns level, spectrum, decay
// and pitch distances plus a combined score in [0,1] (0 = identical).
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 {
		return m
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), 0.1)
	if len(ref) < 2 || len(cand) < 2 {
		return m
	}

	maxLag := max(min(sampleRate/50, len(ref)-1, len(cand)-1), 1)
	m.LagSamples = estimateLag(ref, cand, maxLag)
	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := min(len(refA), len(candA), sampleRate*12)
	if n < 2*envFrame {
		return m
	}
	refA, candA = refA[:n], candA[:n]
	m.AlignedFrames = n

	refEnv := RMSEnvelope(refA, sampleRate, envFrame, envHop)
	candEnv := RMSEnvelope(candA, sampleRate, envFrame, envHop)
	envN := min(len(refEnv.DB), len(candEnv.DB))
	var sum float64
	for i := 0; i < envN; i++ {
		d := refEnv.DB[i] - candEnv.DB[i]
		sum += d * d
	}
	if envN > 0 {
		m.EnvelopeRMSEDB = math.Sqrt(sum / float64(envN))
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)
	m.RefDecayDBPerS = refEnv.DecaySlope()
	m.CandDecayDBPerS = candEnv.DecaySlope()
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}
	m.RefAttackS = refEnv.AttackTime()
	m.CandAttackS = candEnv.AttackTime()

	if f, err := PeakFrequency(refA, sampleRate); err == nil {
		m.RefPeakHz = f
	}
	if f, err := PeakFrequency(candA, sampleRate); err == nil {
		m.CandPeakHz = f
	}
	if c := CentsBetween(m.RefPeakHz, m.CandPeakHz); isFinite(c) {
		m.PitchDiffCents = math.Abs(c)
	}

	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	decNorm := clamp01(m.DecayDiffDBPerS / 40.0)
	attNorm := clamp01(math.Abs(m.RefAttackS-m.CandAttackS) / 0.5)
	pitchNorm := clamp01(m.PitchDiffCents / 100.0)
	m.Score = clamp01(0.35*envNorm + 0.25*specNorm + 0.15*decNorm + 0.10*attNorm + 0.15*pitchNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	r := rms(x)
	if r <= 1e-12 {
		return x
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

// estimateLag returns the shift of cand against ref (positive when ref starts
// later) with the highest correlation within +-maxLag.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	step := 1
	if len(ref) > 200000 || len(cand) > 200000 {
		step = 4
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := dotAtLag(ref, cand, lag, step); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	ai, bi := lag, 0
	if lag < 0 {
		ai, bi = 0, -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
