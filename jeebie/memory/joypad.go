package memory

import "github.com/valerio/go-jeebie/jeebie/bit"

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad models the P1 (0xFF00) register: a write-only 2-bit line selector
// (bits 4-5) multiplexed onto a read-only 4-bit button state (bits 0-3),
// plus the two always-1 unused bits 6-7. Real hardware wires both button
// groups through the same four input pins, which is why selecting neither
// group reads all 1s and selecting both ANDs the two groups together.
type Joypad struct {
	buttons uint8 // low nibble, 1 = released, matches register polarity
	dpad    uint8
	line    uint8 // raw value last written to bits 4-5
}

// NewJoypad creates a new Joypad instance
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
	}
}

// Register renders the full P1 byte: bits 6-7 fixed high, bits 4-5 echo the
// last selection write, bits 0-3 the selected button group(s).
func (j *Joypad) Register() uint8 {
	result := uint8(0b11000000) | (j.line & 0b00110000)

	selectDpad := !bit.IsSet(4, j.line)
	selectButtons := !bit.IsSet(5, j.line)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// Read returns the current state of the joypad
func (j *Joypad) Read() uint8 {
	return j.Register()
}

// Write sets the joypad line to be read
func (j *Joypad) Write(value uint8) {
	j.line = value & 0x30
}

// Press updates the joypad state when a key is pressed, returning true if
// this transitioned a previously-released key, which is what the caller
// uses to decide whether a joypad interrupt should fire.
func (j *Joypad) Press(key JoypadKey) bool {
	oldButtons, oldDpad := j.buttons, j.dpad

	switch key {
	case JoypadRight:
		j.dpad = bit.Reset(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Reset(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Reset(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Reset(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Reset(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Reset(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Reset(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Reset(3, j.buttons)
	}

	buttonTransitions := oldButtons & ^j.buttons
	dpadTransitions := oldDpad & ^j.dpad
	return buttonTransitions|dpadTransitions != 0
}

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) {
	switch key {
	case JoypadRight:
		j.dpad = bit.Set(0, j.dpad)
	case JoypadLeft:
		j.dpad = bit.Set(1, j.dpad)
	case JoypadUp:
		j.dpad = bit.Set(2, j.dpad)
	case JoypadDown:
		j.dpad = bit.Set(3, j.dpad)
	case JoypadA:
		j.buttons = bit.Set(0, j.buttons)
	case JoypadB:
		j.buttons = bit.Set(1, j.buttons)
	case JoypadSelect:
		j.buttons = bit.Set(2, j.buttons)
	case JoypadStart:
		j.buttons = bit.Set(3, j.buttons)
	}
}
