package dsp

// DelayLine implements a circular buffer for delay
type DelayLine struct {
	buffer   []float32
	writePos int
	size     int
}

// NewDelayLine creates a new delay line with the given size
func NewDelayLine(size int) *DelayLine {
	if size < 2 {
		size = 2
	}
	return &DelayLine{
		buffer: make([]float32, size),
		size:   size,
	}
}

// Size returns the capacity in samples.
func (d *DelayLine) Size() int {
	return d.size
}

// Write writes a sample to the delay line
func (d *DelayLine) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos = (d.writePos + 1) % d.size
}

// Read reads a sample from the delay line at the given delay (in samples).
// A delay of 1 returns the most recently written sample.
func (d *DelayLine) Read(delay int) float32 {
	if delay < 1 {
		delay = 1
	}
	if delay > d.size {
		delay = d.size
	}
	readPos := (d.writePos - delay + d.size) % d.size
	return d.buffer[readPos]
}

// ReadFractional reads with fractional delay using linear interpolation
func (d *DelayLine) ReadFractional(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)

	sample1 := d.Read(intDelay)
	sample2 := d.Read(intDelay + 1)

	return sample1 + frac*(sample2-sample1)
}

// Reset clears the delay line
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
