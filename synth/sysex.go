package synth

import "fmt"

const (
	sysexNonRealtime = 0x7e
	sysexRealtime    = 0x7f
	sysexRoland      = 0x41
	sysexYamaha      = 0x43
	sysexAllDevices  = 0x7f
)

// systemExclusive handles GM/GS/XG resets, master volume, balance and tuning
// and drum part assignment. data excludes the leading 0xF0; a trailing 0xF7
// is ignored.
func (e *Engine) systemExclusive(data []byte) {
	if n := len(data); n > 0 && data[n-1] == 0xf7 {
		data = data[:n-1]
	}
	if len(data) < 3 {
		e.diagnostic(fmt.Sprintf("sysex: message too short (% x)", data))
		return
	}
	switch data[0] {
	case sysexNonRealtime:
		if e.acceptsDevice(int(data[1])) {
			e.universalNonRealtime(data[2:])
		}
	case sysexRealtime:
		if e.acceptsDevice(int(data[1])) {
			e.universalRealtime(data[2:])
		}
	case sysexRoland:
		if e.acceptsDevice(int(data[1])) {
			e.rolandSysex(data[2:])
		}
	case sysexYamaha:
		if e.acceptsDevice(int(data[1] & 0x0f)) {
			e.yamahaSysex(data[2:])
		}
	default:
		e.diagnostic(fmt.Sprintf("sysex: unknown manufacturer %#02x", data[0]))
	}
}

func (e *Engine) acceptsDevice(id int) bool {
	return e.deviceID < 0 || id == sysexAllDevices || id == e.deviceID
}

func (e *Engine) systemReset(mode SystemMode) {
	e.system = mode
	e.sysexCoarse, e.sysexFine = 0, 0
	e.stopAll(false)
	e.resetAllControllers()
	e.emit(Event{Kind: EventMasterParameterChange, Channel: -1, Parameter: ParamSystem, ParamValue: float64(mode)})
}

func (e *Engine) universalNonRealtime(d []byte) {
	if len(d) < 2 || d[0] != 0x09 {
		e.diagnostic(fmt.Sprintf("sysex: unsupported non-realtime message % x", d))
		return
	}
	switch d[1] {
	case 0x01:
		e.systemReset(SystemGM)
	case 0x02:
		e.systemReset(SystemGS)
	case 0x03:
		e.systemReset(SystemGM2)
	default:
		e.diagnostic(fmt.Sprintf("sysex: unsupported GM message % x", d))
	}
}

func (e *Engine) universalRealtime(d []byte) {
	if len(d) < 4 || d[0] != 0x04 {
		e.diagnostic(fmt.Sprintf("sysex: unsupported realtime message % x", d))
		return
	}
	value := int(d[2]) | int(d[3])<<7
	switch d[1] {
	case 0x01:
		e.setMasterParameter(ParamMIDIVolume, float64(value)/16383)
	case 0x02:
		e.setMasterParameter(ParamMasterPan, float64(value-8192)/8192)
	case 0x03:
		e.sysexFine = float64(value-8192) / 8192 * 100
	case 0x04:
		e.sysexCoarse = float64(int(d[3])-64) * 100
	default:
		e.diagnostic(fmt.Sprintf("sysex: unsupported device control % x", d))
	}
}

// gsPartToChannel maps a GS part nibble to a MIDI channel: part 0 is the
// rhythm part on channel 10.
func gsPartToChannel(part int) int {
	switch {
	case part == 0:
		return 9
	case part <= 9:
		return part - 1
	}
	return part
}

func (e *Engine) rolandSysex(d []byte) {
	// model (0x42 GS), command (0x12 DT1), 3 address bytes, data, checksum
	if len(d) < 7 || d[0] != 0x42 || d[1] != 0x12 {
		e.diagnostic(fmt.Sprintf("sysex: unsupported Roland message % x", d))
		return
	}
	a0, a1, a2 := d[2], d[3], d[4]
	value := int(d[5])
	if a0 != 0x40 {
		e.diagnostic(fmt.Sprintf("sysex: unsupported GS address %02x %02x %02x", a0, a1, a2))
		return
	}
	switch {
	case a1 == 0x00 && a2 == 0x7f:
		e.systemReset(SystemGS)
	case a1 == 0x00 && a2 == 0x04:
		e.setMasterParameter(ParamMIDIVolume, float64(value)/127)
	case a1 == 0x00 && a2 == 0x05:
		e.setMasterParameter(ParamTransposition, float64(value-64))
	case a1 == 0x00 && a2 == 0x06:
		e.setMasterParameter(ParamMasterPan, float64(value-64)/64)
	case a1&0xf0 == 0x10 && a2 == 0x15:
		ch := gsPartToChannel(int(a1 & 0x0f))
		if ch < len(e.channels) {
			e.channels[ch].setDrums(value != 0)
		}
	default:
		e.diagnostic(fmt.Sprintf("sysex: unsupported GS address %02x %02x %02x", a0, a1, a2))
	}
}

func (e *Engine) yamahaSysex(d []byte) {
	// model (0x4C XG), 3 address bytes, data
	if len(d) < 5 || d[0] != 0x4c {
		e.diagnostic(fmt.Sprintf("sysex: unsupported Yamaha message % x", d))
		return
	}
	a0, a1, a2 := d[1], d[2], d[3]
	value := int(d[4])
	switch {
	case a0 == 0x00 && a1 == 0x00 && a2 == 0x7e:
		e.systemReset(SystemXG)
	case a0 == 0x00 && a1 == 0x00 && a2 == 0x04:
		e.setMasterParameter(ParamMIDIVolume, float64(value)/127)
	case a0 == 0x00 && a1 == 0x00 && a2 == 0x06:
		e.setMasterParameter(ParamTransposition, float64(value-64))
	case a0 == 0x08 && a2 == 0x07:
		if ch := int(a1); ch < len(e.channels) {
			e.channels[ch].setDrums(value != 0)
		}
	default:
		e.diagnostic(fmt.Sprintf("sysex: unsupported XG address %02x %02x %02x", a0, a1, a2))
	}
}
