package memory

import (
	"strings"
	"unicode"
)

// cgbTitleLength is the title field width on carts that declare CGB
// support: the header repurposes bytes 0x13B-0x13E (the tail of the DMG
// title field) for a 4-byte manufacturer code, so only the first 11 bytes
// are the actual title (Pan Docs "The Cartridge Header").
const cgbTitleLength = 11

// cleanGameboyTitle decodes the ASCII title field of a ROM header, which on
// real hardware is padded with 0x00 rather than spaces and occasionally
// carries stray high-bit-set bytes from non-conforming dumps. isCGB
// narrows the field to the 11 bytes that remain title on CGB-flagged carts,
// excluding the manufacturer code and CGB flag bytes that follow it.
func cleanGameboyTitle(titleBytes []byte, isCGB bool) string {
	if isCGB && len(titleBytes) > cgbTitleLength {
		titleBytes = titleBytes[:cgbTitleLength]
	}

	runes := make([]rune, 0, len(titleBytes))
	for _, b := range titleBytes {
		switch r := rune(b); {
		case r == 0:
			runes = append(runes, ' ')
		case unicode.IsPrint(r) && r < 0x80:
			runes = append(runes, r)
		default:
			runes = append(runes, '?')
		}
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
