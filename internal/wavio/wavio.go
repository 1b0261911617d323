// Package wavio holds the WAV and resampling helpers shared by the soundbank
// loader, the effects rack and the command line tools.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

func decode(path string) (*audio.Float32Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}
	if len(buf.Data)/buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("empty wav data: %s", path)
	}
	return buf, nil
}

// ReadMono decodes a WAV file and averages its channels.
func ReadMono(path string) ([]float32, int, error) {
	buf, err := decode(path)
	if err != nil {
		return nil, 0, err
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += buf.Data[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out, buf.Format.SampleRate, nil
}

// ReadStereo decodes a WAV file into left/right planes. Mono files are
// duplicated, channels beyond the second are ignored.
func ReadStereo(path string) ([]float32, []float32, int, error) {
	buf, err := decode(path)
	if err != nil {
		return nil, nil, 0, err
	}
	numCh := buf.Format.NumChannels
	frames := len(buf.Data) / numCh
	left := make([]float32, frames)
	right := make([]float32, frames)
	if numCh == 1 {
		copy(left, buf.Data[:frames])
		copy(right, buf.Data[:frames])
	} else {
		for i := range frames {
			left[i] = buf.Data[i*numCh]
			right[i] = buf.Data[i*numCh+1]
		}
	}
	return left, right, buf.Format.SampleRate, nil
}

// Resample converts in from fromRate to toRate. Equal rates return in as is.
func Resample(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// Resample32 is Resample for float32 data.
func Resample32(in []float32, fromRate int, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	out64, err := Resample(To64(in), fromRate, toRate)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}

// To64 widens a float32 slice.
func To64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// WriteStereoLR interleaves left/right and writes a 16-bit stereo WAV.
func WriteStereoLR(path string, left []float32, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := 0; i < len(left); i++ {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return WriteInterleaved(path, data, 2, sampleRate)
}

// WriteMono writes a 16-bit mono WAV.
func WriteMono(path string, data []float32, sampleRate int) error {
	return WriteInterleaved(path, data, 1, sampleRate)
}

// WriteInterleaved writes interleaved samples as a 16-bit WAV, creating the
// parent directory when needed.
func WriteInterleaved(path string, samples []float32, channels int, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("channels must be >= 1")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// StereoToMono64 averages interleaved stereo frames.
func StereoToMono64(st []float32) []float64 {
	if len(st) < 2 {
		return nil
	}
	n := len(st) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(st[i*2]) + float64(st[i*2+1]))
	}
	return out
}

// RMS returns the root mean square of x.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
