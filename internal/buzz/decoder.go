// Package buzz decodes Buzz dongle HID reports and builds the output reports
// that drive the handset lights.
package buzz

import "buzz-quiz-service/internal/domain"

// Default report layout: three bytes packed little-endian, 5 bits per controller.
//
//	bit 0 red | bit 1 yellow | bit 2 green | bit 3 orange | bit 4 blue
const (
	defaultLongOffset  = 2
	defaultLongMinimum = 5
	bitsPerController  = 5
	controllerMask     = 0x1F
)

var defaultBitOrder = [bitsPerController]domain.Button{
	domain.ButtonRed,
	domain.ButtonYellow,
	domain.ButtonGreen,
	domain.ButtonOrange,
	domain.ButtonBlue,
}

// Decode turns a raw report into the state of all four controllers. An empty
// mapping selects the built-in layout. Short or malformed reports never fail;
// missing bytes decode as unpressed.
func Decode(report []byte, mapping domain.ButtonMapping) domain.ControllerStates {
	if len(mapping) > 0 {
		return decodeMapped(report, mapping)
	}
	return decodeDefault(report)
}

func decodeDefault(report []byte) domain.ControllerStates {
	offset := 0
	if len(report) >= defaultLongMinimum {
		offset = defaultLongOffset
	}

	var packed uint32
	for i := 0; i < 3 && offset+i < len(report); i++ {
		packed |= uint32(report[offset+i]) << (8 * i)
	}

	var states domain.ControllerStates
	for c := 0; c < domain.ControllerCount; c++ {
		field := (packed >> (c * bitsPerController)) & controllerMask
		var s domain.ControllerButtonState
		for bit, button := range defaultBitOrder {
			if field&(1<<bit) != 0 {
				s = s.With(button, true)
			}
		}
		states[c] = s
	}
	return states
}

func decodeMapped(report []byte, mapping domain.ButtonMapping) domain.ControllerStates {
	var states domain.ControllerStates
	for _, e := range mapping {
		if e.ControllerID < 0 || e.ControllerID >= domain.ControllerCount {
			continue
		}
		if e.ByteIndex < 0 || e.ByteIndex >= len(report) {
			continue
		}
		if report[e.ByteIndex]&e.BitMask != 0 {
			states[e.ControllerID] = states[e.ControllerID].With(e.Button, true)
		}
	}
	return states
}

// Press is a single button that went from released to pressed.
type Press struct {
	ControllerID int
	Button       domain.Button
}

// Presses lists every false->true transition between two snapshots, ordered by
// controller and then by calibration button order.
func Presses(prev, next domain.ControllerStates) []Press {
	var out []Press
	for c := 0; c < domain.ControllerCount; c++ {
		for _, b := range domain.Buttons {
			if !prev[c].Pressed(b) && next[c].Pressed(b) {
				out = append(out, Press{ControllerID: c, Button: b})
			}
		}
	}
	return out
}
