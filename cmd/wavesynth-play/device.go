//go:build !headless

package main

import (
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

type otoDevice struct {
	player *oto.Player
}

// openDevice starts playback of src as float32 stereo at sampleRate.
func openDevice(src io.Reader, sampleRate int, buffer time.Duration) (audioDevice, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	d := &otoDevice{player: ctx.NewPlayer(src)}
	d.player.Play()
	return d, nil
}

func (d *otoDevice) Err() error   { return d.player.Err() }
func (d *otoDevice) Close() error { return d.player.Close() }
