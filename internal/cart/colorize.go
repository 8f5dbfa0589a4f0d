package cart

// The color boot ROM picks a palette for monochrome cartridges by summing the
// title bytes and looking the sum up in a table. Sums found past index 0x40
// are shared by several titles and are told apart by the fourth title
// character.

// title checksums recognised by the boot ROM
var colChecksum = [79]byte{
	0x00, 0x88, 0x16, 0x36, 0xD1, 0xDB, 0xF2, 0x3C, 0x8C, 0x92, 0x3D, 0x5C,
	0x58, 0xC9, 0x3E, 0x70, 0x1D, 0x59, 0x69, 0x19, 0x35, 0xA8, 0x14, 0xAA,
	0x75, 0x95, 0x99, 0x34, 0x6F, 0x15, 0xFF, 0x97, 0x4B, 0x90, 0x17, 0x10,
	0x39, 0xF7, 0xF6, 0xA2, 0x49, 0x4E, 0x43, 0x68, 0xE0, 0x8B, 0xF0, 0xCE,
	0x0C, 0x29, 0xE8, 0xB7, 0x86, 0x9A, 0x52, 0x01, 0x9D, 0x71, 0x9C, 0xBD,
	0x5D, 0x6D, 0x67, 0x3F, 0x6B, 0xB3, 0x46, 0x28, 0xA5, 0xC6, 0xD3, 0x27,
	0x61, 0x18, 0x66, 0x6A, 0xBF, 0x0D, 0xF4,
}

// fourth title character for entries that collide
var colDisambig = [29]byte{
	'B', 'E', 'F', 'A', 'A', 'R', 'B', 'E',
	'K', 'E', 'K', ' ', 'R', '-', 'U', 'R',
	'A', 'R', ' ', 'I', 'N', 'A', 'I', 'L',
	'I', 'C', 'E', ' ', 'R',
}

// palette ID | (flags << 5)
var colPaletteInfo = [94]byte{
	0x7C, 0x08, 0x12, 0xA3, 0xA2, 0x07, 0x87, 0x4B, 0x20, 0x12, 0x65, 0xA8,
	0x16, 0xA9, 0x86, 0xB1, 0x68, 0xA0, 0x87, 0x66, 0x12, 0xA1, 0x30, 0x3C,
	0x12, 0x85, 0x12, 0x64, 0x1B, 0x07, 0x06, 0x6F, 0x6E, 0x6E, 0xAE, 0xAF,
	0x6F, 0xB2, 0xAF, 0xB2, 0xA8, 0xAB, 0x6F, 0xAF, 0x86, 0xAE, 0xA2, 0xA2,
	0x12, 0xAF, 0x13, 0x12, 0xA1, 0x6E, 0xAF, 0xAF, 0xAD, 0x06, 0x4C, 0x6E,
	0xAF, 0xAF, 0x12, 0x7C, 0xAC, 0xA8, 0x6A, 0x6E, 0x13, 0xA0, 0x2D, 0xA8,
	0x2B, 0xAC, 0x64, 0xAC, 0x6D, 0x87, 0xBC, 0x60, 0xB4, 0x13, 0x72, 0x7C,
	0xB5, 0xAE, 0xAE, 0x7C, 0x7C, 0x65, 0xA2, 0x6C, 0x64, 0x85,
}

const disambigThreshold = 0x40

// TitleChecksum sums the 16 title bytes.
func TitleChecksum(header []byte) byte {
	var sum byte
	for _, b := range header[offTitle : offTitle+16] {
		sum += b
	}
	return sum
}

// PaletteIndex returns the index into the palette-info table for a header.
// Unknown checksums resolve to index 0, the default palette.
func PaletteIndex(header []byte) int {
	sum := TitleChecksum(header)

	for idx, c := range colChecksum {
		if c != sum {
			continue
		}
		if idx <= disambigThreshold {
			return idx
		}
		fourth := header[offTitle+3]
		for i, j := idx-disambigThreshold-1, 0; i < len(colDisambig); i, j = i+14, j+14 {
			if fourth == colDisambig[i] {
				return idx + j
			}
		}
		return idx
	}
	return 0
}

// Colorize returns the palette-info byte for a header.
func Colorize(header []byte) byte {
	return colPaletteInfo[PaletteIndex(header)]
}
