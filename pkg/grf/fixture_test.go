package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
)

// fixtureEntry describes one central-directory record to bake into a
// synthetic archive built by buildFixture. cipher selects which type bits
// to set; store forces real_size == compressed_size (no inflate).
type fixtureEntry struct {
	name   string
	data   []byte
	cipher uint8 // 0, typeMixed, or typeHeaderOnly
	store  bool

	// badCompressed, if set, is written verbatim as the compressed
	// payload instead of a real zlib stream, to exercise DecompressFail.
	badCompressed []byte
}

const (
	typeIsFile     = 0x01
	typeMixed      = 0x02
	typeHeaderOnly = 0x04
)

// buildFixture assembles a complete, in-memory GRF archive (header +
// payloads + compressed central directory) for the given version
// (versionV200 or versionV300), with one trailing filtered directory
// sentinel so the declared count is len(entries)+1.
func buildFixture(version uint32, entries []fixtureEntry) []byte {
	type built struct {
		name           string
		compressedSize int32
		lengthAligned  int32
		realSize       int32
		typ            uint8
		offset         uint32
	}

	var payloads bytes.Buffer
	var records []built

	for _, e := range entries {
		var compressed []byte
		var realSize int32
		switch {
		case e.badCompressed != nil:
			compressed = e.badCompressed
			realSize = int32(len(e.data)) // != len(compressed): forces an inflate attempt
		case e.store:
			compressed = e.data
			realSize = int32(len(e.data))
		default:
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			zw.Write(e.data)
			zw.Close()
			compressed = buf.Bytes()
			realSize = int32(len(e.data))
		}

		lengthAligned := len(compressed)
		typ := uint8(typeIsFile) | e.cipher
		if e.cipher != 0 {
			lengthAligned = ((lengthAligned + 7) / 8) * 8
		}
		padded := make([]byte, lengthAligned)
		copy(padded, compressed)

		if e.cipher != 0 {
			decrypt(padded, typ, int32(len(compressed)))
		}

		offset := uint32(payloads.Len())
		payloads.Write(padded)

		records = append(records, built{
			name:           e.name,
			compressedSize: int32(len(compressed)),
			lengthAligned:  int32(lengthAligned),
			realSize:       realSize,
			typ:            typ,
			offset:         offset,
		})
	}

	// One filtered directory sentinel: type bit 0 clear, excluded from
	// every index.
	records = append(records, built{name: "data\\", typ: 0x00})

	var table bytes.Buffer
	for _, r := range records {
		table.WriteString(r.name)
		table.WriteByte(0)

		var sizes [12]byte
		binary.LittleEndian.PutUint32(sizes[0:4], uint32(r.compressedSize))
		binary.LittleEndian.PutUint32(sizes[4:8], uint32(r.lengthAligned))
		binary.LittleEndian.PutUint32(sizes[8:12], uint32(r.realSize))
		table.Write(sizes[:])
		table.WriteByte(r.typ)

		if version == versionV300 {
			var off [8]byte
			binary.LittleEndian.PutUint32(off[0:4], r.offset)
			table.Write(off[:])
		} else {
			var off [4]byte
			binary.LittleEndian.PutUint32(off[0:4], r.offset)
			table.Write(off[:])
		}
	}

	var compressedTable bytes.Buffer
	zw := zlib.NewWriter(&compressedTable)
	zw.Write(table.Bytes())
	zw.Close()

	var out bytes.Buffer
	out.Write(make([]byte, headerSize))
	out.Write(payloads.Bytes())

	tableOffsetAbsolute := out.Len()
	if version == versionV300 {
		out.Write(make([]byte, 4)) // skipped field before the size pair
	}
	var tableHeader [8]byte
	binary.LittleEndian.PutUint32(tableHeader[0:4], uint32(compressedTable.Len()))
	binary.LittleEndian.PutUint32(tableHeader[4:8], uint32(table.Len()))
	out.Write(tableHeader[:])
	out.Write(compressedTable.Bytes())

	buf := out.Bytes()
	copy(buf[0:15], []byte(grfMagic))

	tableOffsetStored := uint32(tableOffsetAbsolute) - dataOffsetOf
	fileCount := uint32(len(records))

	switch version {
	case versionV200:
		binary.LittleEndian.PutUint32(buf[30:34], tableOffsetStored)
		binary.LittleEndian.PutUint32(buf[34:38], 0) // reserved
		binary.LittleEndian.PutUint32(buf[38:42], fileCount+7)
		binary.LittleEndian.PutUint32(buf[42:46], versionV200)
	case versionV300:
		binary.LittleEndian.PutUint32(buf[30:34], tableOffsetStored)
		binary.LittleEndian.PutUint32(buf[34:38], 0) // high word
		binary.LittleEndian.PutUint32(buf[38:42], fileCount)
		binary.LittleEndian.PutUint32(buf[42:46], versionV300)
	}

	return buf
}
