package synth

import (
	"math"

	"github.com/cwbudde/algo-wavesynth/soundbank"
)

const concaveScale = 400.0 / 960.0

func concave(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	v := -concaveScale * math.Log10(1-x)
	if v > 1 {
		return 1
	}
	return v
}

func convex(x float64) float64 {
	return 1 - concave(1-x)
}

func applyCurve(x float64, curve int) float64 {
	switch curve {
	case soundbank.CurveConcave:
		return concave(x)
	case soundbank.CurveConvex:
		return convex(x)
	case soundbank.CurveSwitch:
		if x >= 0.5 {
			return 1
		}
		return 0
	default:
		return x
	}
}

// transformSource maps a normalized 0..1 controller value through the
// direction, polarity and curve bits of src.
func transformSource(x float64, src soundbank.ModulatorSource) float64 {
	if src.IsNegative() {
		x = 1 - x
	}
	if !src.IsBipolar() {
		return applyCurve(x, src.Curve())
	}
	switch src.Curve() {
	case soundbank.CurveLinear:
		return 2*x - 1
	case soundbank.CurveSwitch:
		if x >= 0.5 {
			return 1
		}
		return -1
	default:
		if x >= 0.5 {
			return applyCurve(2*x-1, src.Curve())
		}
		return -applyCurve(1-2*x, src.Curve())
	}
}

// sourceValue reads the raw controller behind src for this voice.
func (v *Voice) sourceValue(src soundbank.ModulatorSource) float64 {
	ch := v.channel
	if src.IsCC() {
		if ch == nil {
			return 0
		}
		return transformSource(float64(ch.controllers[src.Index()])/127.0, src)
	}
	var x float64
	switch src.Index() {
	case soundbank.SrcNoController:
		return 1
	case soundbank.SrcNoteOnVelocity:
		x = float64(v.velocity) / 127.0
	case soundbank.SrcNoteOnKeyNum:
		x = float64(v.targetKey) / 127.0
	case soundbank.SrcPolyPressure:
		if ch != nil {
			x = float64(ch.polyPressure[v.note]) / 127.0
		}
	case soundbank.SrcChannelPressure:
		if ch != nil {
			x = float64(ch.channelPressure) / 127.0
		}
	case soundbank.SrcPitchWheel:
		x = 0.5
		if ch != nil {
			x = float64(ch.pitchWheel) / 16384.0
		}
	case soundbank.SrcPitchWheelRange:
		if ch != nil {
			x = ch.pitchBendRange / 127.0
		}
	default:
		return 0
	}
	return transformSource(x, src)
}

// computeModulators rebuilds the modulated generator table from the static
// generators plus every modulator contribution.
func (v *Voice) computeModulators() {
	for i := range v.modulated {
		v.modulated[i] = float64(v.generators[i])
	}
	for _, m := range v.modulators {
		if int(m.Destination) < 0 || int(m.Destination) >= soundbank.GeneratorCount {
			continue
		}
		val := float64(m.Amount) * v.sourceValue(m.Source) * v.sourceValue(m.SecondarySource)
		if m.Transform == soundbank.TransformAbsolute {
			val = math.Abs(val)
		}
		v.modulated[m.Destination] += val
	}
	v.modulated[soundbank.GenInitialAttenuation] = clampf(v.modulated[soundbank.GenInitialAttenuation], 0, 1440)
	v.modulated[soundbank.GenPan] = clampf(v.modulated[soundbank.GenPan], -500, 500)
	v.modulated[soundbank.GenReverbEffectsSend] = clampf(v.modulated[soundbank.GenReverbEffectsSend], 0, 1000)
	v.modulated[soundbank.GenChorusEffectsSend] = clampf(v.modulated[soundbank.GenChorusEffectsSend], 0, 1000)
	v.modulated[soundbank.GenInitialFilterFc] = clampf(v.modulated[soundbank.GenInitialFilterFc], 1500, 13500)
	v.modulated[soundbank.GenInitialFilterQ] = clampf(v.modulated[soundbank.GenInitialFilterQ], 0, 960)
}
