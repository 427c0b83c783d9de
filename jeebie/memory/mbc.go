package memory

import "time"

// MBC represents a Memory Bank Controller interface that all MBC types must implement
type MBC interface {
	// Read reads a byte from the specified address
	Read(addr uint16) uint8
	// Write writes a byte to the specified address, returns the written value
	Write(addr uint16, value uint8) uint8
}

// bankedStore is the piece every banked cartridge controller shares: a ROM
// image plus an optional external RAM image, addressed through a bank
// index and wrapped when a game's declared bank count doesn't divide its
// image evenly (some ROM dumps round up to the next power of two).
type bankedStore struct {
	rom []uint8
	ram []uint8
}

func (s *bankedStore) romAt(bank uint32, offset uint16) uint8 {
	base := bank * 0x4000
	if n := uint32(len(s.rom)); base >= n {
		base %= n
	}
	return s.rom[base+uint32(offset)]
}

func (s *bankedStore) ramAt(bank uint32, offset uint16) uint8 {
	base := bank * 0x2000
	if n := uint32(len(s.ram)); n > 0 && base >= n {
		base %= n
	}
	return s.ram[base+uint32(offset)]
}

func (s *bankedStore) setRamAt(bank uint32, offset uint16, value uint8) {
	base := bank * 0x2000
	if n := uint32(len(s.ram)); n > 0 && base >= n {
		base %= n
	}
	s.ram[base+uint32(offset)] = value
}

// disabledRAMValue is what every banked controller returns from the
// 0xA000-0xBFFF window while its external RAM is gated off. The real
// hardware floats the bus here; this emulator follows the convention used
// across MBC1/MBC2/MBC3/MBC5 of reporting a fixed zero rather than the
// open-bus garbage a physical cartridge would produce.
const disabledRAMValue uint8 = 0x00

// NoMBC represents cartridges with no memory banking capabilities.
// These are typically smaller games (32KB or less) that fit entirely in the
// base memory region. The cartridge ROM is directly mapped to 0x0000-0x7FFF
// and cannot be banked/switched. These cartridges cannot have external RAM.
type NoMBC struct {
	rom []uint8 // ROM data
}

// NewNoMBC creates a new NoMBC controller
func NewNoMBC(romData []uint8) *NoMBC {
	return &NoMBC{rom: romData}
}

func (m *NoMBC) Read(addr uint16) uint8 {
	return m.rom[addr]
}

func (m *NoMBC) Write(addr uint16, value uint8) uint8 {
	return 0
}

// MBC1 is the first and most common MBC chip. Features include:
// - Supports up to 2MB ROM (125 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Bank 0 always mapped to 0x0000-0x3FFF
// - Switchable ROM bank at 0x4000-0x7FFF
// - Optional RAM banking at 0xA000-0xBFFF
// - Two banking modes:
//   - Mode 0 (ROM): Allows access to full ROM but only 8KB RAM
//   - Mode 1 (RAM): Restricts ROM banking but allows full RAM access
//
// - Optional battery backup for RAM persistence
type MBC1 struct {
	bankedStore
	romBank     uint8
	ramBank     uint8
	ramEnabled  bool
	bankingMode uint8
	hasBattery  bool
}

// NewMBC1 creates a new MBC1 controller
func NewMBC1(romData []uint8, hasBattery bool, ramBankCount uint8) *MBC1 {
	return &MBC1{
		bankedStore: bankedStore{rom: romData, ram: make([]uint8, uint32(ramBankCount)*0x2000)},
		romBank:     1,
		hasBattery:  hasBattery,
	}
}

func (m *MBC1) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr <= 0x7FFF:
		return m.romAt(uint32(m.romBank), addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return disabledRAMValue
		}
		return m.ramAt(uint32(m.ramBank), addr-0xA000)
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case addr <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = m.romBank&0x60 | bank
	case addr <= 0x5FFF:
		if m.bankingMode == 0 {
			m.romBank = m.romBank&0x1F | (value&0x03)<<5
		} else {
			m.ramBank = value & 0x03
		}
	case addr <= 0x7FFF:
		m.bankingMode = value & 0x01
		if m.bankingMode == 1 {
			m.romBank &= 0x1F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return disabledRAMValue
		}
		m.setRamAt(uint32(m.ramBank), addr-0xA000, value)
	}
	return value
}

// MBC2 is a simpler MBC chip with built-in RAM. Features include:
// - Supports up to 256KB ROM (16 16KB banks)
// - Built-in 512x4 bits RAM (not external)
// - RAM must be enabled (0x0A in the low nibble) before it can be accessed
// - ROM banking similar to MBC1 but simpler
// - The least significant bit of the upper address byte selects between
//   ROM bank selection and RAM enable
// - RAM is limited to 4-bit values (upper 4 bits are ignored)
// - Optional battery backup for the built-in RAM

const mbc2InternalRAMSize = 512

type MBC2 struct {
	rom        []uint8
	ram        [mbc2InternalRAMSize]uint8 // built-in nibble RAM, not externally swappable
	romBank    uint8
	ramEnabled bool
}

// NewMBC2 creates a new MBC2 controller
func NewMBC2(romData []uint8) *MBC2 {
	return &MBC2{rom: romData, romBank: 1}
}

func (m *MBC2) romOffset(addr uint16) uint32 {
	base := uint32(m.romBank) * 0x4000
	if n := uint32(len(m.rom)); base >= n {
		base %= n
	}
	return base + uint32(addr-0x4000)
}

func (m *MBC2) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr <= 0x7FFF:
		return m.rom[m.romOffset(addr)]
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return disabledRAMValue
		}
		// the built-in RAM is only 512 nibbles, mirrored across the window
		return m.ram[(addr-0xA000)%mbc2InternalRAMSize] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x3FFF:
		// bit 8 of the address distinguishes RAM-enable from ROM-bank writes
		if addr&0x0100 != 0 {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		} else {
			m.ramEnabled = value&0x0F == 0x0A
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if m.ramEnabled {
			m.ram[(addr-0xA000)%mbc2InternalRAMSize] = value & 0x0F
		}
	}
	return value
}

// MBC3 is an advanced MBC chip with RTC support. Features include:
// - Supports up to 2MB ROM (128 16KB banks)
// - Up to 32KB RAM (4 8KB banks)
// - Real-Time Clock (RTC) functionality
// - RTC has 5 registers: Seconds, Minutes, Hours, Days (lower), Days (upper)/Flags
// - Similar banking to MBC1 but with different register layout
// - RAM and RTC can be battery backed
// - Used in games that needed to track real time (e.g. Pokémon Gold/Silver)
type MBC3 struct {
	bankedStore
	romBank    uint8
	ramBank    uint8 // also selects an RTC register when >= 0x08
	ramEnabled bool
	hasRTC     bool

	rtc        rtcClock
	latchState uint8 // tracks the 0x00->0x01 write sequence that latches the clock
}

// NewMBC3 creates a new MBC3 controller
func NewMBC3(romData []uint8, hasRTC bool, ramBankCount uint8) *MBC3 {
	return &MBC3{
		bankedStore: bankedStore{rom: romData, ram: make([]uint8, uint32(ramBankCount)*0x2000)},
		romBank:     1,
		hasRTC:      hasRTC,
		rtc:         newRTCClock(),
		latchState:  0xFF,
	}
}

func (m *MBC3) selectsRTC() bool {
	return m.hasRTC && m.ramBank >= 0x08
}

func (m *MBC3) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr <= 0x7FFF:
		return m.romAt(uint32(m.romBank), addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return disabledRAMValue
		}
		if m.selectsRTC() {
			return m.rtc.read(m.ramBank)
		}
		if len(m.ram) == 0 {
			return disabledRAMValue
		}
		return m.ramAt(uint32(m.ramBank), addr-0xA000)
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case addr <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr <= 0x5FFF:
		m.ramBank = value
	case addr <= 0x7FFF:
		if value == 0x01 && m.latchState == 0x00 {
			m.rtc.latch()
		}
		m.latchState = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return value
		}
		if m.selectsRTC() {
			m.rtc.write(m.ramBank, value)
			return value
		}
		if len(m.ram) == 0 {
			return value
		}
		m.setRamAt(uint32(m.ramBank), addr-0xA000, value)
	}
	return value
}

// rtcClock models MBC3's real-time clock as a wall-clock anchor plus a
// halt-accumulated offset: running time is always derived from
// time.Since(start)+offset, and halting freezes it by folding elapsed time
// into offset and stopping the anchor from advancing further.
type rtcClock struct {
	start      time.Time
	offset     time.Duration
	halted     bool
	dayCarry   bool
	latchedSec uint64
	isLatched  bool
}

func newRTCClock() rtcClock {
	return rtcClock{start: time.Now()}
}

func (r *rtcClock) elapsedSeconds() uint64 {
	d := r.offset
	if !r.halted {
		d += time.Since(r.start)
	}
	return uint64(d / time.Second)
}

// latch freezes a snapshot of the running clock into the register file;
// reads observe the latched value until the next 0x00->0x01 write pulse.
func (r *rtcClock) latch() {
	r.latchedSec = r.elapsedSeconds()
	r.isLatched = true
}

const rtcDayRolloverSeconds = 60 * 60 * 24 * 512

func (r *rtcClock) snapshotSeconds() uint64 {
	if r.isLatched {
		return r.latchedSec
	}
	return r.elapsedSeconds()
}

func (r *rtcClock) read(register uint8) uint8 {
	sec := r.snapshotSeconds() % rtcDayRolloverSeconds
	switch register {
	case 0x08:
		return uint8(sec % 60)
	case 0x09:
		return uint8((sec / 60) % 60)
	case 0x0A:
		return uint8((sec / 3600) % 24)
	case 0x0B:
		return uint8((sec / 86400) & 0xFF)
	case 0x0C:
		flags := uint8((sec / 86400 >> 8) & 0x01)
		if r.halted {
			flags |= 1 << 6
		}
		if r.dayCarry {
			flags |= 1 << 7
		}
		return flags
	default:
		return 0xFF
	}
}

// write updates the halted RTC's register values directly; the real chip
// only lets software rewrite the counters while halt is asserted.
func (r *rtcClock) write(register uint8, value uint8) {
	if register == 0x0C {
		r.writeHaltFlags(value)
		return
	}
	if !r.halted {
		return
	}

	sec := r.elapsedSeconds()
	days := sec / 86400
	rem := sec % 86400
	s, mnt, h := rem%60, (rem/60)%60, (rem/3600)%24

	switch register {
	case 0x08:
		s = uint64(value)
	case 0x09:
		mnt = uint64(value)
	case 0x0A:
		h = uint64(value)
	case 0x0B:
		days = days&^0xFF | uint64(value)
	}

	r.offset = time.Duration(days*86400+h*3600+mnt*60+s) * time.Second
}

func (r *rtcClock) writeHaltFlags(value uint8) {
	wasHalted := r.halted
	halt := value&(1<<6) != 0

	switch {
	case halt && !wasHalted:
		r.offset += time.Since(r.start)
		r.halted = true
	case !halt && wasHalted:
		r.start = time.Now()
		r.halted = false
	}

	if value&(1<<7) == 0 {
		r.dayCarry = false
	}
}

// MBC5 is the most advanced MBC chip. Features include:
// - Supports up to 8MB ROM (512 16KB banks)
// - Up to 128KB RAM (16 8KB banks)
// - Simple ROM/RAM banking with no quirks (unlike MBC1)
// - 9-bit ROM bank number (allows all 512 banks to be directly accessed)
// - Optional rumble motor support
// - Used in Game Boy Color games that needed more ROM/RAM
// - Backwards compatible with Game Boy
type MBC5 struct {
	bankedStore
	romBank    uint16 // MBC5 supports up to 512 ROM banks
	ramBank    uint8
	ramEnabled bool
	hasRumble  bool
}

// NewMBC5 creates a new MBC5 controller
func NewMBC5(romData []uint8, hasRumble bool, ramBankCount uint8) *MBC5 {
	return &MBC5{
		bankedStore: bankedStore{rom: romData, ram: make([]uint8, uint32(ramBankCount)*0x2000)},
		romBank:     1,
		hasRumble:   hasRumble,
	}
}

func (m *MBC5) ramAccessible() bool {
	return m.ramEnabled && len(m.ram) > 0
}

func (m *MBC5) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x3FFF:
		return m.rom[addr]
	case addr <= 0x7FFF:
		return m.romAt(uint32(m.romBank), addr-0x4000)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramAccessible() {
			return disabledRAMValue
		}
		return m.ramAt(uint32(m.ramBank), addr-0xA000)
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value uint8) uint8 {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case addr <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case addr <= 0x3FFF:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case addr <= 0x5FFF:
		// bit 3 drives the rumble motor on cartridges that have one; the
		// remaining bits select the RAM bank.
		if m.hasRumble {
			m.ramBank = value & 0x07
		} else {
			m.ramBank = value & 0x0F
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramAccessible() {
			return value
		}
		m.setRamAt(uint32(m.ramBank), addr-0xA000, value)
	}
	return value
}
