package effects

import (
	"math"
	"os"
	"testing"

	"github.com/cwbudde/algo-wavesynth/soundbank"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

func directConvolve(x []float32, h []float32) []float32 {
	y := make([]float32, len(x)+len(h)-1)
	for i := 0; i < len(x); i++ {
		for j := 0; j < len(h); j++ {
			y[i+j] += x[i] * h[j]
		}
	}
	return y
}

func maxAbsDiff(a []float32, b []float32) float64 {
	n := min(len(a), len(b))
	m := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(float64(a[i] - b[i])); d > m {
			m = d
		}
	}
	return m
}

func rms(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func writeTempIRWav(t *testing.T, left []float32, right []float32, sampleRate int) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ir-*.wav")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	numCh := 1
	data := make([]float32, len(left))
	copy(data, left)
	if right != nil {
		numCh = 2
		if len(right) != len(left) {
			t.Fatalf("left/right length mismatch")
		}
		data = make([]float32, len(left)*2)
		for i := range left {
			data[i*2] = left[i]
			data[i*2+1] = right[i]
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, numCh, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("wav write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("wav close: %v", err)
	}
	return f.Name()
}

// loopBank holds one looping sine preset at (0,0).
func loopBank(sampleRate int) *soundbank.Bank {
	data := make([]float32, 2000)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/100))
	}
	s := &soundbank.Sample{Name: "sine", Data: data, LoopEnd: len(data), RootKey: 60, SampleRate: sampleRate}
	inst := &soundbank.Instrument{Name: "sine", Zones: []*soundbank.Zone{{
		KeyRange: soundbank.FullRange,
		VelRange: soundbank.FullRange,
		Generators: []soundbank.Generator{
			{Type: soundbank.GenSampleModes, Value: soundbank.LoopContinuous},
		},
		Sample: s,
	}}}
	return &soundbank.Bank{
		Name: "fx",
		Presets: []*soundbank.Preset{{Name: "sine", Zones: []*soundbank.Zone{{
			KeyRange: soundbank.FullRange, VelRange: soundbank.FullRange, Instrument: inst,
		}}}},
		Instruments: []*soundbank.Instrument{inst},
		Samples:     []*soundbank.Sample{s},
	}
}
