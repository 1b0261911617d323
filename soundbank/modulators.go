package soundbank

// ModulatorSource is the SoundFont 2 16-bit source operand encoding.
//
//	bits 0-6   controller index
//	bit 7      CC flag (index is a MIDI controller number)
//	bit 8      direction (1 = max to min)
//	bit 9      polarity (1 = bipolar)
//	bits 10-15 curve type
type ModulatorSource uint16

// General controller indices (CC flag clear).
const (
	SrcNoController    = 0
	SrcNoteOnVelocity  = 2
	SrcNoteOnKeyNum    = 3
	SrcPolyPressure    = 10
	SrcChannelPressure = 13
	SrcPitchWheel      = 14
	SrcPitchWheelRange = 16
	SrcLink            = 127
)

// Curve types.
const (
	CurveLinear  = 0
	CurveConcave = 1
	CurveConvex  = 2
	CurveSwitch  = 3
)

// Transform values.
const (
	TransformLinear   = 0
	TransformAbsolute = 2
)

// NewSource encodes a modulator source operand.
func NewSource(index int, isCC, negative, bipolar bool, curve int) ModulatorSource {
	s := ModulatorSource(index & 0x7f)
	if isCC {
		s |= 1 << 7
	}
	if negative {
		s |= 1 << 8
	}
	if bipolar {
		s |= 1 << 9
	}
	s |= ModulatorSource(curve&0x3f) << 10
	return s
}

func (s ModulatorSource) Index() int       { return int(s & 0x7f) }
func (s ModulatorSource) IsCC() bool       { return s&(1<<7) != 0 }
func (s ModulatorSource) IsNegative() bool { return s&(1<<8) != 0 }
func (s ModulatorSource) IsBipolar() bool  { return s&(1<<9) != 0 }
func (s ModulatorSource) Curve() int       { return int(s>>10) & 0x3f }

// Modulator routes a controller source to a generator destination.
type Modulator struct {
	Source          ModulatorSource
	SecondarySource ModulatorSource
	Destination     GeneratorType
	Amount          int16
	Transform       uint16
}

// IsIdentical compares every field of a and b.
func IsIdentical(a, b Modulator) bool {
	return a.Source == b.Source &&
		a.SecondarySource == b.SecondarySource &&
		a.Destination == b.Destination &&
		a.Amount == b.Amount &&
		a.Transform == b.Transform
}

// SameRouting compares everything except the amount. Zone-level modulators
// with the same routing replace each other.
func SameRouting(a, b Modulator) bool {
	return a.Source == b.Source &&
		a.SecondarySource == b.SecondarySource &&
		a.Destination == b.Destination &&
		a.Transform == b.Transform
}

var defaultModulators = []Modulator{
	// velocity to attenuation
	{
		Source:      NewSource(SrcNoteOnVelocity, false, true, false, CurveConcave),
		Destination: GenInitialAttenuation,
		Amount:      960,
	},
	// velocity to filter cutoff
	{
		Source:      NewSource(SrcNoteOnVelocity, false, true, false, CurveLinear),
		Destination: GenInitialFilterFc,
		Amount:      -2400,
	},
	// channel pressure to vibrato depth
	{
		Source:      NewSource(SrcChannelPressure, false, false, false, CurveLinear),
		Destination: GenVibLfoToPitch,
		Amount:      50,
	},
	// mod wheel to vibrato depth
	{
		Source:      NewSource(1, true, false, false, CurveLinear),
		Destination: GenVibLfoToPitch,
		Amount:      50,
	},
	// main volume to attenuation
	{
		Source:      NewSource(7, true, true, false, CurveConcave),
		Destination: GenInitialAttenuation,
		Amount:      960,
	},
	// pan
	{
		Source:      NewSource(10, true, false, true, CurveLinear),
		Destination: GenPan,
		Amount:      500,
	},
	// expression to attenuation
	{
		Source:      NewSource(11, true, true, false, CurveConcave),
		Destination: GenInitialAttenuation,
		Amount:      960,
	},
	// reverb send
	{
		Source:      NewSource(91, true, false, false, CurveLinear),
		Destination: GenReverbEffectsSend,
		Amount:      200,
	},
	// chorus send
	{
		Source:      NewSource(93, true, false, false, CurveLinear),
		Destination: GenChorusEffectsSend,
		Amount:      200,
	},
	// pitch wheel scaled by the pitch wheel range
	{
		Source:          NewSource(SrcPitchWheel, false, false, true, CurveLinear),
		SecondarySource: NewSource(SrcPitchWheelRange, false, false, false, CurveLinear),
		Destination:     GenFineTune,
		Amount:          12700,
	},
}

// DefaultModulators returns a copy of the process-wide default modulator list.
func DefaultModulators() []Modulator {
	out := make([]Modulator, len(defaultModulators))
	copy(out, defaultModulators)
	return out
}

// MergeDefaultModulators places custom entries first and appends every
// default that is not identical to one of them.
func MergeDefaultModulators(custom []Modulator) []Modulator {
	out := make([]Modulator, 0, len(custom)+len(defaultModulators))
	out = append(out, custom...)
	for _, d := range defaultModulators {
		dup := false
		for _, c := range custom {
			if IsIdentical(c, d) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return out
}
