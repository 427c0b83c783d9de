package cpu

import "github.com/valerio/go-jeebie/jeebie/bit"

// CPU holds the full state of the LR35902: the eight 8-bit registers (paired
// as AF/BC/DE/HL for 16-bit access), the stack pointer, program counter,
// interrupt state and the bus it executes against.
type CPU struct {
	memory memoryBus

	a, f uint8
	b, c uint8
	d, e uint8
	h, l uint8

	sp uint16
	pc uint16

	currentOpcode uint16
	cycles        uint64

	interruptsEnabled bool
	eiPending         int

	halted  bool
	haltBug bool
	stopped bool
}

// memoryBus is the subset of the MMU the CPU needs: byte-addressed reads and
// writes over the full 16-bit space, plus the two side effects STOP
// triggers: the CGB double-speed switch when KEY1 bit 0 has been armed, and
// the divider reset that happens on every STOP regardless of speed switch.
type memoryBus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	TrySpeedSwitch() bool
	ResetDivider()
}

// New returns a CPU wired to the given bus, with registers reset to the
// values the boot ROM leaves behind when the boot sequence is skipped
// (DMG identity; A=0x01).
func New(memory memoryBus) *CPU {
	c := &CPU{memory: memory}
	c.Bootstrap(false)
	return c
}

// Bootstrap resets the register file to the well-known post-boot-ROM state.
// isColor selects the CGB identity (A=0x11) used to signal color mode to
// cartridges that branch on it.
func (c *CPU) Bootstrap(isColor bool) {
	if isColor {
		c.a = 0x11
	} else {
		c.a = 0x01
	}
	c.setFlags(0xB0)
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100

	c.interruptsEnabled = false
	c.eiPending = 0
	c.halted = false
	c.haltBug = false
	c.stopped = false
	c.cycles = 0
}

// GetPC returns the current program counter.
func (c *CPU) GetPC() uint16 {
	return c.pc
}

// GetSP returns the current stack pointer.
func (c *CPU) GetSP() uint16 {
	return c.sp
}

// IsHalted reports whether the CPU is in the HALT low-power state.
func (c *CPU) IsHalted() bool {
	return c.halted
}

// InterruptsEnabled reports the current state of IME.
func (c *CPU) InterruptsEnabled() bool {
	return c.interruptsEnabled
}

// Cycles returns the total number of cycles executed since the last Bootstrap.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// GetA returns the accumulator register.
func (c *CPU) GetA() uint8 { return c.a }

// GetF returns the flags register (low nibble always zero).
func (c *CPU) GetF() uint8 { return c.f }

// GetB returns register B.
func (c *CPU) GetB() uint8 { return c.b }

// GetC returns register C.
func (c *CPU) GetC() uint8 { return c.c }

// GetD returns register D.
func (c *CPU) GetD() uint8 { return c.d }

// GetE returns register E.
func (c *CPU) GetE() uint8 { return c.e }

// GetH returns register H.
func (c *CPU) GetH() uint8 { return c.h }

// GetL returns register L.
func (c *CPU) GetL() uint8 { return c.l }

// GetFlagString renders the Z/N/H/C flags as a 4-character string, using a
// dash wherever the flag is clear, for compact debug display.
func (c *CPU) GetFlagString() string {
	flags := [4]struct {
		flag Flag
		char byte
	}{
		{zeroFlag, 'Z'},
		{subFlag, 'N'},
		{halfCarryFlag, 'H'},
		{carryFlag, 'C'},
	}

	out := make([]byte, 4)
	for i, f := range flags {
		if c.isSetFlag(f.flag) {
			out[i] = f.char
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f&0xF0)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// setFlags overwrites F wholesale; the low nibble is always masked to zero.
func (c *CPU) setFlags(value uint8) {
	c.f = value & 0xF0
}
