package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

func TestInterruptHandling(t *testing.T) {
	t.Run("interrupt is not dispatched while IME is off", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		_, handled := cpu.handleInterrupts()
		assert.False(t, handled)
		assert.Equal(t, uint16(0x0100), cpu.pc)
	})

	t.Run("EI enables interrupts only after the next instruction", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)

		opcode0xFB(cpu)
		assert.False(t, cpu.interruptsEnabled)
		assert.Equal(t, 2, cpu.eiPending)

		cpu.applyPendingImeChanges()
		assert.False(t, cpu.interruptsEnabled)
		assert.Equal(t, 1, cpu.eiPending)

		cpu.applyPendingImeChanges()
		assert.True(t, cpu.interruptsEnabled)
		assert.Equal(t, 0, cpu.eiPending)
	})

	t.Run("DI disables interrupts immediately", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true

		opcode0xF3(cpu)
		assert.False(t, cpu.interruptsEnabled)
	})

	t.Run("DI cancels a pending EI", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)

		opcode0xFB(cpu)
		assert.Equal(t, 2, cpu.eiPending)

		opcode0xF3(cpu)
		assert.Equal(t, 0, cpu.eiPending)
		assert.False(t, cpu.interruptsEnabled)

		cpu.applyPendingImeChanges()
		assert.False(t, cpu.interruptsEnabled)
	})

	t.Run("interrupt priority follows bit order", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true
		cpu.sp = 0xFFFE

		mmu.Write(addr.IF, 0x1F)
		mmu.Write(addr.IE, 0x1F)

		cycles, handled := cpu.handleInterrupts()

		assert.True(t, handled)
		assert.Equal(t, 16, cycles)
		assert.Equal(t, uint16(0x40), cpu.pc)
		assert.Equal(t, uint8(0x1E), mmu.Read(addr.IF))
		assert.False(t, cpu.interruptsEnabled)
	})

	t.Run("RETI enables interrupts and returns", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false
		cpu.sp = 0xFFFE
		cpu.pc = 0x0200

		cpu.pushStack(0x0150)

		opcode0xD9(cpu)

		assert.True(t, cpu.interruptsEnabled)
		assert.Equal(t, uint16(0x0150), cpu.pc)
	})
}

func TestHALTBehavior(t *testing.T) {
	t.Run("HALT with IME=1 and pending interrupt wakes and services it", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true
		cpu.sp = 0xFFFE

		opcode0x76(cpu)
		assert.True(t, cpu.halted)

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		_, handled := cpu.handleInterrupts()
		assert.True(t, handled)
		assert.False(t, cpu.halted)
		assert.Equal(t, uint16(0x40), cpu.pc)
	})

	t.Run("HALT with IME=0 and pending interrupt triggers the halt bug", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false
		cpu.pc = 0x0100

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		opcode0x76(cpu)
		assert.False(t, cpu.halted)
		assert.True(t, cpu.haltBug)
	})

	t.Run("HALT with no pending interrupt stays halted", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = false

		mmu.Write(addr.IF, 0x00)
		mmu.Write(addr.IE, 0x01)

		opcode0x76(cpu)
		assert.True(t, cpu.halted)
		assert.False(t, cpu.haltBug)
	})
}

func TestInterruptTiming(t *testing.T) {
	t.Run("interrupt dispatch costs 16 clocks", func(t *testing.T) {
		mmu := memory.New()
		cpu := New(mmu)
		cpu.interruptsEnabled = true
		cpu.sp = 0xFFFE

		mmu.Write(addr.IF, 0x01)
		mmu.Write(addr.IE, 0x01)

		cycles, handled := cpu.handleInterrupts()
		assert.True(t, handled)
		assert.Equal(t, 16, cycles)
	})
}
