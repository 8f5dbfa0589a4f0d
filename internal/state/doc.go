// Package state persists an emulation session.
//
// Two independent mechanisms live here. Battery RAM files hold the cartridge
// RAM banks, 8 KiB each, optionally followed by a 48 byte clock record. They
// can be saved incrementally: only banks that are dirty or have never been
// saved are written.
//
// Save-state files hold a snapshot of the whole machine. The first 4096
// bytes are a header of (tag, value) pairs, each a four character tag and a
// little-endian uint32, terminated by a zero tag. The header also carries
// four memory regions at fixed offsets:
//
//	0x0CF0  wave table (16 bytes)
//	0x0D00  I/O registers (256 bytes)
//	0x0E00  palette memory (128 bytes)
//	0x0F00  object attribute memory (256 bytes)
//
// The header is followed by the work RAM, video RAM and cartridge RAM, each
// in 4096 byte units. The number of units depends on the hardware type and
// on the size of the cartridge RAM.
package state
