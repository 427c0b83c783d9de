package memory

const titleLength = 15

const (
	titleAddress         = 0x134
	cgbFlagAddress       = 0x143
	cartridgeTypeAddress = 0x147
	romSizeAddress       = 0x148
	ramSizeAddress       = 0x149
)

// MBCType identifies which memory bank controller a cartridge header
// declares via its 0x147 cartridge type byte.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// ramSizesByCode maps the 0x149 RAM size code to a byte count, per the
// handful of values real cartridges use (2, 3 and 4 are the common ones).
var ramSizesByCode = map[uint8]uint32{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

type Cartridge struct {
	data []byte

	title    string
	isCGB    bool
	cartType uint8
	romSize  uint32
	ramSize  uint32

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData parses a raw ROM image's header and returns a
// Cartridge ready to be handed to a matching MBC.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	isCGB := bytes[cgbFlagAddress]&0x80 != 0
	cart := &Cartridge{
		data:     make([]byte, len(bytes)),
		title:    cleanGameboyTitle(bytes[titleAddress:titleAddress+titleLength], isCGB),
		isCGB:    isCGB,
		cartType: bytes[cartridgeTypeAddress],
		romSize:  romSizeFromCode(bytes[romSizeAddress]),
		ramSize:  ramSizesByCode[bytes[ramSizeAddress]],
	}
	copy(cart.data, bytes)

	cart.mbcType, cart.hasBattery, cart.hasRTC, cart.hasRumble = classifyCartType(cart.cartType)
	cart.ramBankCount = ramBankCountFor(cart.mbcType, cart.ramSize)

	return cart
}

// romSizeFromCode turns the 0x148 header byte into a byte count: 32KiB
// times 2^code, the formula the header uses for every code 0-8.
func romSizeFromCode(code uint8) uint32 {
	return (32 * 1024) << code
}

// ramBankCountFor derives the number of 8KiB RAM banks a controller should
// allocate. MBC2 ignores this entirely since its RAM is a fixed 512 nibbles
// built into the chip, not external.
func ramBankCountFor(mbcType MBCType, ramSize uint32) uint8 {
	if mbcType == MBC2Type {
		return 0
	}
	banks := ramSize / 0x2000
	if banks == 0 && ramSize > 0 {
		banks = 1
	}
	return uint8(banks)
}

// classifyCartType maps the 0x147 cartridge type byte to an MBC variant and
// the optional capabilities (battery, RTC, rumble) some of its codes carry.
func classifyCartType(cartType uint8) (mbcType MBCType, hasBattery, hasRTC, hasRumble bool) {
	switch cartType {
	case 0x00, 0x08, 0x09:
		mbcType = NoMBCType
		hasBattery = cartType == 0x09
	case 0x01, 0x02, 0x03:
		mbcType = MBC1Type
		hasBattery = cartType == 0x03
	case 0x05, 0x06:
		mbcType = MBC2Type
		hasBattery = cartType == 0x06
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		mbcType = MBC3Type
		hasRTC = cartType == 0x0F || cartType == 0x10
		hasBattery = cartType == 0x0F || cartType == 0x10 || cartType == 0x13
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		mbcType = MBC5Type
		hasBattery = cartType == 0x1B || cartType == 0x1E
		hasRumble = cartType == 0x1C || cartType == 0x1D || cartType == 0x1E
	default:
		mbcType = MBCUnknownType
	}
	return
}

// Title returns the cartridge's cleaned, printable title.
func (c *Cartridge) Title() string {
	return c.title
}

// IsCGB reports whether the cartridge declares CGB (or CGB-enhanced) support.
func (c *Cartridge) IsCGB() bool {
	return c.isCGB
}

// RAMSize returns the external RAM size in bytes this cartridge declares.
func (c *Cartridge) RAMSize() uint32 {
	return c.ramSize
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte attempts a write to the specified address. Writing to a cartridge has sense if the cartridge
// has extra RAM or for some special operations, like switching ROM banks.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	c.data[addr] = value
	return value
}
