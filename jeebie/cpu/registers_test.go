package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

func newTestCPU() *CPU {
	return New(memory.New())
}

func TestRegisterPairs(t *testing.T) {
	c := newTestCPU()

	c.setBC(0xABCD)
	assert.Equal(t, uint8(0xAB), c.b)
	assert.Equal(t, uint8(0xCD), c.c)
	assert.Equal(t, uint16(0xABCD), c.getBC())

	c.setDE(0x1234)
	assert.Equal(t, uint16(0x1234), c.getDE())

	c.setHL(0xBEEF)
	assert.Equal(t, uint16(0xBEEF), c.getHL())
}

func TestAFMasksLowNibble(t *testing.T) {
	c := newTestCPU()

	c.setAF(0x12FF)
	assert.Equal(t, uint8(0x12), c.a)
	assert.Equal(t, uint8(0xF0), c.f, "the low nibble of F is never settable")
	assert.Equal(t, uint16(0x12F0), c.getAF())
}

func TestFlags(t *testing.T) {
	c := newTestCPU()
	c.f = 0

	c.setFlag(zeroFlag)
	assert.True(t, c.isSetFlag(zeroFlag))

	c.resetFlag(zeroFlag)
	assert.False(t, c.isSetFlag(zeroFlag))

	c.setFlagToCondition(carryFlag, true)
	assert.True(t, c.isSetFlag(carryFlag))
	assert.Equal(t, uint8(1), c.flagToBit(carryFlag))

	c.setFlagToCondition(carryFlag, false)
	assert.Equal(t, uint8(0), c.flagToBit(carryFlag))
}

func TestBootstrap(t *testing.T) {
	c := newTestCPU()

	assert.Equal(t, uint8(0x01), c.a)
	assert.Equal(t, uint16(0xFFFE), c.sp)
	assert.Equal(t, uint16(0x0100), c.pc)
	assert.False(t, c.interruptsEnabled)

	c.Bootstrap(true)
	assert.Equal(t, uint8(0x11), c.a)
}

func TestImmediateHelpers(t *testing.T) {
	mmu := memory.New()
	c := New(mmu)
	c.pc = 0xC000

	mmu.Write(0xC000, 0x42)
	assert.Equal(t, uint8(0x42), c.readImmediate())
	assert.Equal(t, uint16(0xC001), c.pc)

	c.pc = 0xC000
	mmu.Write(0xC000, 0xCD)
	mmu.Write(0xC001, 0xAB)
	assert.Equal(t, uint16(0xABCD), c.readImmediateWord())
	assert.Equal(t, uint16(0xC002), c.pc)

	c.pc = 0xC000
	mmu.Write(0xC000, 0xFE) // -2 as signed byte
	assert.Equal(t, int8(-2), c.readSignedImmediate())
}
