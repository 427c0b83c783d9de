package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-jeebie/jeebie/addr"
)

func newCGBTestMMU(t *testing.T) *MMU {
	t.Helper()
	mmu := New()
	mmu.EnableCGB()
	return mmu
}

func TestCGBVRAMBankSwitch(t *testing.T) {
	mmu := newCGBTestMMU(t)

	mmu.Write(addr.VBK, 0x00)
	mmu.Write(0x8000, 0x11)

	mmu.Write(addr.VBK, 0x01)
	mmu.Write(0x8000, 0x22)

	mmu.Write(addr.VBK, 0x00)
	assert.Equal(t, byte(0x11), mmu.Read(0x8000))

	mmu.Write(addr.VBK, 0x01)
	assert.Equal(t, byte(0x22), mmu.Read(0x8000))

	// only bit 0 is meaningful; readback always has the upper bits set
	assert.Equal(t, byte(0xFF), mmu.Read(addr.VBK))
}

func TestCGBWRAMBankSwitch(t *testing.T) {
	mmu := newCGBTestMMU(t)

	mmu.Write(addr.SVBK, 2)
	mmu.Write(0xD000, 0xAA)

	mmu.Write(addr.SVBK, 3)
	mmu.Write(0xD000, 0xBB)

	mmu.Write(addr.SVBK, 2)
	assert.Equal(t, byte(0xAA), mmu.Read(0xD000))

	mmu.Write(addr.SVBK, 3)
	assert.Equal(t, byte(0xBB), mmu.Read(0xD000))

	// bank 0000 is promoted to bank 1
	mmu.Write(addr.SVBK, 0)
	mmu.Write(0xD000, 0xCC)
	mmu.Write(addr.SVBK, 1)
	assert.Equal(t, byte(0xCC), mmu.Read(0xD000))

	// 0xC000-0xCFFF is always fixed bank 0, unaffected by SVBK
	mmu.Write(0xC000, 0x42)
	mmu.Write(addr.SVBK, 5)
	assert.Equal(t, byte(0x42), mmu.Read(0xC000))
}

func TestCGBBackgroundPaletteAutoIncrement(t *testing.T) {
	mmu := newCGBTestMMU(t)

	mmu.Write(addr.BCPS, 0x80) // index 0, auto-increment
	mmu.Write(addr.BCPD, 0x34)
	mmu.Write(addr.BCPD, 0x12)

	mmu.Write(addr.BCPS, 0x00)
	assert.Equal(t, byte(0x34), mmu.Read(addr.BCPD))
	mmu.Write(addr.BCPS, 0x01)
	assert.Equal(t, byte(0x12), mmu.Read(addr.BCPD))
}

func TestCGBDoubleSpeedSwitch(t *testing.T) {
	mmu := newCGBTestMMU(t)

	assert.False(t, mmu.IsDoubleSpeed())
	assert.Equal(t, byte(0x7E), mmu.Read(addr.KEY1), "armed bit and speed bit both clear")

	mmu.Write(addr.KEY1, 0x01)
	assert.Equal(t, byte(0x7F), mmu.Read(addr.KEY1), "armed bit set, still single speed")

	assert.True(t, mmu.TrySpeedSwitch())
	assert.True(t, mmu.IsDoubleSpeed())
	assert.Equal(t, byte(0xFE), mmu.Read(addr.KEY1), "speed bit set, armed bit consumed")

	// not armed: a second STOP without rewriting KEY1 does nothing
	assert.False(t, mmu.TrySpeedSwitch())
	assert.True(t, mmu.IsDoubleSpeed())

	mmu.Write(addr.KEY1, 0x01)
	assert.True(t, mmu.TrySpeedSwitch())
	assert.False(t, mmu.IsDoubleSpeed())
}

func TestCGBGeneralPurposeHDMATransfersImmediately(t *testing.T) {
	mmu := newCGBTestMMU(t)

	for i := 0; i < 16; i++ {
		mmu.Write(0xC100+uint16(i), uint8(i+1))
	}

	mmu.Write(addr.HDMA1, 0xC1)
	mmu.Write(addr.HDMA2, 0x00)
	mmu.Write(addr.HDMA3, 0x80)
	mmu.Write(addr.HDMA4, 0x00)
	mmu.Write(addr.HDMA5, 0x00) // bit 7 clear: general-purpose, 16 bytes

	for i := 0; i < 16; i++ {
		assert.Equal(t, uint8(i+1), mmu.Read(0x8000+uint16(i)))
	}
	assert.Equal(t, byte(0xFF), mmu.Read(addr.HDMA5), "no transfer pending after general DMA completes")
}

func TestCGBHBlankDMAProgressesOneBlockPerTick(t *testing.T) {
	mmu := newCGBTestMMU(t)

	for i := 0; i < 32; i++ {
		mmu.Write(0xC200+uint16(i), uint8(i+1))
	}

	mmu.Write(addr.HDMA1, 0xC2)
	mmu.Write(addr.HDMA2, 0x00)
	mmu.Write(addr.HDMA3, 0x80)
	mmu.Write(addr.HDMA4, 0x00)
	mmu.Write(addr.HDMA5, 0x81) // bit 7 set: H-blank mode, 2 blocks (32 bytes)

	mmu.TickHDMA()
	assert.Equal(t, uint8(1), mmu.Read(0x8000))
	assert.Equal(t, uint8(0), mmu.Read(0x8010), "second block not yet copied")

	mmu.TickHDMA()
	assert.Equal(t, uint8(17), mmu.Read(0x8010))
	assert.Equal(t, byte(0xFF), mmu.Read(addr.HDMA5), "transfer completed after both blocks")
}
