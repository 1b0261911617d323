//go:build headless

package main

import (
	"errors"
	"io"
	"time"
)

func openDevice(io.Reader, int, time.Duration) (audioDevice, error) {
	return nil, errors.New("built without audio output (headless)")
}
