package cpu

import "github.com/valerio/go-jeebie/jeebie/addr"

// Flag is one of the 4 flags held in the high nibble of the F register.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the flag is set, 0 otherwise. Used by the rotate
// instructions that fold the carry flag back into bit 0 or bit 7.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

// readImmediate reads the byte at PC and advances PC past it.
func (c *CPU) readImmediate() uint8 {
	value := c.memory.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord reads the little-endian word at PC and advances PC
// past both bytes.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return uint16(high)<<8 | uint16(low)
}

// readSignedImmediate reads a byte at PC, advances PC, and interprets the
// byte as a signed two's complement displacement (used by JR and the SP+e
// family of instructions).
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// Exec fetches, decodes and runs a single instruction (or services a
// pending interrupt), returning the number of clock cycles it took.
//
// Cycle accounting is instruction-granular: the spec this emulator follows
// treats m-cycle-level sub-instruction timing as out of scope, so Exec
// returns the whole instruction's clock cost in one lump, the same way the
// opcode table already does.
func (c *CPU) Exec() int {
	if cycles, handled := c.handleInterrupts(); handled {
		return cycles
	}

	if c.halted {
		return 4
	}

	c.applyPendingImeChanges()

	opcode := Decode(c)

	if c.haltBug {
		// The halt bug replays the byte at PC without advancing it, so the
		// opcode fetched above runs once here, and on the following call
		// Decode fetches the very same byte again.
		c.haltBug = false
	} else if c.currentOpcode > 0xFF {
		c.pc += 2
	} else {
		c.pc++
	}

	cycles := opcode(c)
	c.cycles += uint64(cycles)

	return cycles
}

// applyPendingImeChanges advances the EI delay counter. EI takes effect only
// after the instruction that follows it has executed, so it sets a 2-tick
// countdown: one tick is consumed here before the next opcode runs, and IME
// flips on when it reaches zero. DI has no delay on real hardware and is
// applied immediately by its opcode handler.
func (c *CPU) applyPendingImeChanges() {
	if c.eiPending > 0 {
		c.eiPending--
		if c.eiPending == 0 {
			c.interruptsEnabled = true
		}
	}
}

// requestEI schedules IME to become true after the next instruction.
func (c *CPU) requestEI() {
	c.eiPending = 2
}

// handleInterrupts checks IF & IE for a pending, enabled interrupt. Any such
// interrupt wakes a halted CPU; only if IME is set is it also dispatched to
// its vector. Dispatch
// costs 4 m-cycles (16 clocks): two internal cycles, one push of PC (2
// cycles as 2 bytes), handled here as a single flat cost.
func (c *CPU) handleInterrupts() (int, bool) {
	flags := c.memory.Read(addr.IF)
	enabled := c.memory.Read(addr.IE)
	pending := flags & enabled & 0x1F

	if pending == 0 {
		return 0, false
	}

	if c.halted {
		c.halted = false
	}

	if !c.interruptsEnabled {
		return 0, false
	}

	var bit uint8
	var vector uint16
	switch {
	case pending&uint8(addr.VBlankInterrupt) != 0:
		bit, vector = 0, 0x40
	case pending&uint8(addr.LCDSTATInterrupt) != 0:
		bit, vector = 1, 0x48
	case pending&uint8(addr.TimerInterrupt) != 0:
		bit, vector = 2, 0x50
	case pending&uint8(addr.SerialInterrupt) != 0:
		bit, vector = 3, 0x58
	case pending&uint8(addr.JoypadInterrupt) != 0:
		bit, vector = 4, 0x60
	default:
		return 0, false
	}

	c.interruptsEnabled = false
	c.memory.Write(addr.IF, flags&^(1<<bit))
	c.pushStack(c.pc)
	c.pc = vector

	return 16, true
}
