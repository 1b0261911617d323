package synth

import "fmt"

// MIDI controller numbers with special handling.
const (
	ccBankSelect       = 0
	ccModulationWheel  = 1
	ccPortamentoTime   = 5
	ccDataEntryMSB     = 6
	ccMainVolume       = 7
	ccBalance          = 8
	ccPan              = 10
	ccExpression       = 11
	ccBankSelectLSB    = 32
	ccDataEntryLSB     = 38
	ccHoldPedal        = 64
	ccPortamentoOnOff  = 65
	ccPortamentoCtrl   = 84
	ccReverbDepth      = 91
	ccChorusDepth      = 93
	ccNRPNLSB          = 98
	ccNRPNMSB          = 99
	ccRPNLSB           = 100
	ccRPNMSB           = 101
	ccAllSoundOff      = 120
	ccResetControllers = 121
	ccAllNotesOff      = 123
	ccOmniOff          = 124
	ccOmniOn           = 125
	ccMonoOn           = 126
	ccPolyOn           = 127
)

// Registered parameter numbers.
const (
	rpnPitchBendRange  = 0x0000
	rpnFineTuning      = 0x0001
	rpnCoarseTuning    = 0x0002
	rpnModulationDepth = 0x0005
	rpnNull            = 0x3fff
)

const maxPortamentoTime = 2.0 // seconds at controller value 127

// controllerChange applies a control change. Locked controllers are only
// changed when force is set.
func (c *Channel) controllerChange(cc, value int, force bool) {
	e := c.engine
	if cc < 0 || cc > 127 || value < 0 || value > 127 {
		e.diagnostic(fmt.Sprintf("channel %d: controller %d=%d out of range", c.number, cc, value))
		return
	}
	if c.locked[cc] && !force {
		return
	}
	c.controllers[cc] = value

	switch cc {
	case ccBankSelect:
		c.bankSelect(value)
	case ccBankSelectLSB:
		c.bankLSB = value
	case ccDataEntryMSB:
		c.dataEntry(value, 0, false)
	case ccDataEntryLSB:
		c.dataEntry(c.dataMSB, value, true)
	case ccRPNLSB:
		c.rpnLSB = value
		c.mode = paramRPN
	case ccRPNMSB:
		c.rpnMSB = value
		c.mode = paramRPN
	case ccNRPNLSB:
		c.nrpnLSB = value
		c.mode = paramNRPN
	case ccNRPNMSB:
		c.nrpnMSB = value
		c.mode = paramNRPN
	case ccHoldPedal:
		c.setHoldPedal(value >= 64)
	case ccPortamentoCtrl:
		c.portaCtrl = value
	case ccAllSoundOff:
		c.stopAll(true)
	case ccResetControllers:
		c.resetControllers(false)
	case ccAllNotesOff, ccOmniOff, ccOmniOn:
		c.stopAll(false)
	case ccMonoOn:
		c.mono = true
		c.stopAll(false)
	case ccPolyOn:
		c.mono = false
		c.stopAll(false)
	default:
		c.updateModulators()
	}
	e.emit(Event{Kind: EventControllerChange, Channel: c.number, Number: cc, Value: value})
}

func (c *Channel) bankSelect(value int) {
	switch c.engine.system {
	case SystemGM:
		return
	case SystemXG:
		if value == 126 || value == 127 {
			c.drums = true
		} else if c.number%16 != DefaultPercussionChannel {
			c.drums = false
		}
	case SystemGM2:
		if value == 120 {
			c.drums = true
		} else if value == 121 {
			c.drums = false
		}
	}
	c.bankMSB = value
}

// dataEntry applies the selected RPN or NRPN.
func (c *Channel) dataEntry(msb, lsb int, isLSB bool) {
	c.dataMSB = msb
	switch c.mode {
	case paramRPN:
		c.registeredParameter(c.rpnMSB<<7|c.rpnLSB, msb, lsb, isLSB)
	case paramNRPN:
		if !isLSB {
			c.nonRegisteredParameter(c.nrpnMSB, c.nrpnLSB, msb)
		}
	}
}

func (c *Channel) registeredParameter(rpn, msb, lsb int, isLSB bool) {
	switch rpn {
	case rpnPitchBendRange:
		c.pitchBendRange = float64(msb) + float64(lsb)/100
		c.updateModulators()
	case rpnFineTuning:
		c.fineCents = float64((msb<<7|lsb)-8192) / 8192 * 100
		c.updateTuning()
	case rpnCoarseTuning:
		if !isLSB {
			c.coarseCents = float64(msb-64) * 100
			c.updateTuning()
		}
	case rpnModulationDepth, rpnNull:
	default:
		c.engine.diagnostic(fmt.Sprintf("channel %d: unsupported RPN %#04x", c.number, rpn))
	}
}

// nonRegisteredParameter handles the GS vibrato NRPNs.
func (c *Channel) nonRegisteredParameter(msb, lsb, value int) {
	if msb != 1 {
		c.engine.diagnostic(fmt.Sprintf("channel %d: unsupported NRPN %d/%d", c.number, msb, lsb))
		return
	}
	switch lsb {
	case 0x08:
		c.vibrato.rate = float64(value) / 64 * 8
	case 0x09:
		c.vibrato.depth = float64(value) / 2
	case 0x0a:
		c.vibrato.delay = float64(value) / 64 / 3
	default:
		c.engine.diagnostic(fmt.Sprintf("channel %d: unsupported NRPN %d/%d", c.number, msb, lsb))
	}
}

// LockController pins a controller so regular controller changes no longer
// modify it.
func (e *Engine) LockController(channel, cc int, locked bool) {
	c := e.channel(channel)
	if c == nil || cc < 0 || cc > 127 {
		return
	}
	c.locked[cc] = locked
}

// LockPreset pins the channel's preset so program changes are ignored.
func (e *Engine) LockPreset(channel int, locked bool) {
	if c := e.channel(channel); c != nil {
		c.lockPreset = locked
	}
}

// SetChannelTranspose shifts a channel by semitones. Fractional values add
// fine tuning.
func (e *Engine) SetChannelTranspose(channel int, semitones float64) {
	if c := e.channel(channel); c != nil {
		c.transpose = semitones
	}
}

// SetVibrato overrides a channel's vibrato (depth in cents, rate in Hz,
// delay in seconds). Zero depth disables it.
func (e *Engine) SetVibrato(channel int, depth, rate, delay float64) {
	if c := e.channel(channel); c != nil {
		c.vibrato = vibratoOverride{depth: depth, rate: rate, delay: delay}
	}
}

// SetDrums switches a channel between melodic and percussion presets.
func (e *Engine) SetDrums(channel int, drums bool) {
	if c := e.channel(channel); c != nil {
		c.setDrums(drums)
	}
}
