package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-jeebie/jeebie/addr"
)

func TestTimerResetZeroesDivider(t *testing.T) {
	var timer Timer
	timer.SetSeed(0x1234)
	assert.Equal(t, byte(0x12), timer.Read(addr.DIV))

	timer.Reset()
	assert.Equal(t, byte(0x00), timer.Read(addr.DIV))
}

func TestMMUResetDividerOnStop(t *testing.T) {
	mmu := New()
	mmu.SetTimerSeed(0xABCD)
	assert.Equal(t, byte(0xAB), mmu.Read(addr.DIV))

	mmu.ResetDivider()
	assert.Equal(t, byte(0x00), mmu.Read(addr.DIV))
}
