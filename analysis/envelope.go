package analysis

import "math"

// Envelope is a frame-wise RMS level in dB.
type Envelope struct {
	HopSeconds float64
	DB         []float64
}

// RMSEnvelope frames x (frame and hop in samples) and returns the per-frame
// level in dB.
func RMSEnvelope(x []float64, sampleRate, frame, hop int) Envelope {
	env := Envelope{}
	if sampleRate > 0 {
		env.HopSeconds = float64(hop) / float64(sampleRate)
	}
	for _, v := range rmsFrames(x, frame, hop) {
		env.DB = append(env.DB, linToDB(v))
	}
	return env
}

// Peak returns the loudest frame index and level.
func (e Envelope) Peak() (int, float64) {
	idx, peak := 0, math.Inf(-1)
	for i, v := range e.DB {
		if v > peak {
			idx, peak = i, v
		}
	}
	return idx, peak
}

// AttackTime returns the time in seconds until the envelope first comes
// within 1 dB of its peak.
func (e Envelope) AttackTime() float64 {
	_, peak := e.Peak()
	for i, v := range e.DB {
		if v >= peak-1 {
			return float64(i) * e.HopSeconds
		}
	}
	return 0
}

// DecaySlope fits a line (dB per second) to the envelope from the peak until
// it drops 60 dB below it. It returns NaN when there is too little decay.
func (e Envelope) DecaySlope() float64 {
	if len(e.DB) < 8 || e.HopSeconds <= 0 {
		return math.NaN()
	}
	peakIdx, peak := e.Peak()
	start := peakIdx + 1
	if start >= len(e.DB)-4 {
		return math.NaN()
	}
	end := len(e.DB)
	for i := start; i < len(e.DB); i++ {
		if e.DB[i] < peak-60 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * e.HopSeconds
		y := e.DB[i]
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// LevelAt returns the envelope level at time t, clamped to the ends.
func (e Envelope) LevelAt(t float64) float64 {
	if len(e.DB) == 0 || e.HopSeconds <= 0 {
		return math.Inf(-1)
	}
	i := int(t / e.HopSeconds)
	return e.DB[min(max(i, 0), len(e.DB)-1)]
}

func rmsFrames(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
