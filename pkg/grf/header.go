package grf

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
)

const (
	// grfMagic is the exact 15-byte signature; the field carries no
	// terminator.
	grfMagic     = "Master of Magic"
	headerSize   = 46
	versionV200  = 0x200
	versionV300  = 0x300
	dataOffsetOf = 46 // payload offset is stored offset + 46
)

// Header is the parsed 46-byte GRF header.
type Header struct {
	// Reserved carries bytes 15..30 through unexamined. Historical GRF
	// v1.x used it as a DES key; the v0x200/v0x300 client never
	// consults it, so neither do we.
	Reserved [15]byte

	Version         uint32
	FileTableOffset uint64
	FileCount       int64
}

// parseHeader reads and validates the 46-byte header at the start of src.
func parseHeader(ctx context.Context, src Source, maxEntries uint32) (Header, error) {
	var buf [headerSize]byte
	if err := src.ReadAt(ctx, buf[:], 0); err != nil {
		return Header{}, newError(InvalidMagic, "reading header").wrap(err)
	}

	if !bytes.Equal(buf[0:15], []byte(grfMagic)) {
		return Header{}, newError(InvalidMagic, "invalid signature")
	}

	var h Header
	copy(h.Reserved[:], buf[15:30])
	h.Version = binary.LittleEndian.Uint32(buf[42:46])

	switch h.Version {
	case versionV200:
		parseV200Payload(buf[:], &h)
	case versionV300:
		low := binary.LittleEndian.Uint32(buf[30:34])
		high := binary.LittleEndian.Uint32(buf[34:38])
		if (high >> 8) != 0 {
			// Mis-tagged 0x200 archive: the "high" word overlaps the
			// 0x200 reserved field and typically has nonzero upper
			// bytes. Fall back to the 0x200 layout.
			parseV200Payload(buf[:], &h)
		} else {
			h.FileTableOffset = uint64(high)<<32 + uint64(low) + dataOffsetOf
			h.FileCount = int64(binary.LittleEndian.Uint32(buf[38:42]))
		}
	default:
		return Header{}, newError(UnsupportedVersion, fmt.Sprintf("0x%x", h.Version))
	}

	if h.FileCount < 0 {
		return Header{}, newError(CorruptTable, fmt.Sprintf("negative file count %d", h.FileCount))
	}
	if h.FileCount > int64(maxEntries) {
		return Header{}, newError(LimitExceeded, fmt.Sprintf("declared file count %d exceeds max entries %d", h.FileCount, maxEntries))
	}

	return h, nil
}

func parseV200Payload(buf []byte, h *Header) {
	tableOffsetStored := binary.LittleEndian.Uint32(buf[30:34])
	reserved := binary.LittleEndian.Uint32(buf[34:38])
	rawCount := binary.LittleEndian.Uint32(buf[38:42])

	h.Version = versionV200
	h.FileTableOffset = uint64(tableOffsetStored) + dataOffsetOf
	// Intentional: the archive reserves seven pseudo-entries internally.
	h.FileCount = int64(rawCount) - int64(reserved) - 7
}
