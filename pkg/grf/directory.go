package grf

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	grfenc "github.com/Faultbox/grfpack/pkg/encoding"
)

const (
	trailerSizeV200 = 17
	trailerSizeV300 = 21
)

// rawRecord is one not-yet-decoded central-directory record.
type rawRecord struct {
	rawName        []byte
	compressedSize int32
	lengthAligned  int32
	realSize       int32
	typ            uint8
	offset         uint64
}

// index holds the populated lookup structures for a loaded archive.
type index struct {
	entries          []*Entry // central-directory order
	byExactName      map[string]*Entry
	byNormalizedName map[string][]string
	byExtension      map[string][]string
}

func newIndex() *index {
	return &index{
		byExactName:      make(map[string]*Entry),
		byNormalizedName: make(map[string][]string),
		byExtension:      make(map[string][]string),
	}
}

// loadCentralDirectory reads, inflates, and walks the central directory,
// returning populated indices and load statistics.
func loadCentralDirectory(ctx context.Context, src Source, h Header, opts Options) (*index, Stats, error) {
	tableData, err := readAndInflateTable(ctx, src, h)
	if err != nil {
		return nil, Stats{}, err
	}

	records, err := parseRecords(tableData, h.Version, h.FileCount)
	if err != nil {
		return nil, Stats{}, err
	}

	detected := resolveEncoding(records, opts)

	idx := newIndex()
	stats := Stats{
		DeclaredFileCount: h.FileCount,
		ExtensionCounts:   make(map[string]int),
		DetectedEncoding:  detected,
	}

	for _, rec := range records {
		if int64(rec.realSize) > opts.MaxFileUncompressedBytes {
			continue // silently skipped per spec
		}
		if rec.typ&0x01 == 0 {
			continue // directory sentinel
		}

		name := decodeName(rec.rawName, detected)
		if containsBadChar(name) {
			stats.BadNameCount++
		}

		entry := &Entry{
			Name:           name,
			Type:           rec.typ,
			Offset:         rec.offset,
			CompressedSize: rec.compressedSize,
			LengthAligned:  rec.lengthAligned,
			RealSize:       rec.realSize,
		}

		idx.entries = append(idx.entries, entry)
		idx.byExactName[name] = entry

		norm := normalizeName(name)
		if len(idx.byNormalizedName[norm]) > 0 {
			stats.CollisionCount++
		}
		idx.byNormalizedName[norm] = append(idx.byNormalizedName[norm], name)

		if ext := extensionOf(name); ext != "" {
			idx.byExtension[ext] = append(idx.byExtension[ext], name)
			stats.ExtensionCounts[ext]++
		}
	}

	stats.RetainedFileCount = len(idx.entries)
	return idx, stats, nil
}

func readAndInflateTable(ctx context.Context, src Source, h Header) ([]byte, error) {
	headerBuf := make([]byte, 8)
	off := int64(h.FileTableOffset)
	if h.Version == versionV300 {
		off += 4 // skip the extra 0x300 field before the size pair
	}

	if err := src.ReadAt(ctx, headerBuf, off); err != nil {
		return nil, newError(CorruptTable, "reading table header").wrap(err)
	}
	compressedSize := binary.LittleEndian.Uint32(headerBuf[0:4])
	realSize := binary.LittleEndian.Uint32(headerBuf[4:8])

	compressed := make([]byte, compressedSize)
	if err := src.ReadAt(ctx, compressed, off+8); err != nil {
		return nil, newError(CorruptTable, "reading compressed table").wrap(err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, newError(CorruptTable, "inflating table").wrap(err)
	}
	defer zr.Close()

	out := make([]byte, realSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, newError(CorruptTable, "table inflate length mismatch").wrap(err)
	}

	return out, nil
}

func parseRecords(tableData []byte, version uint32, count int64) ([]rawRecord, error) {
	trailerSize := trailerSizeV200
	if version == versionV300 {
		trailerSize = trailerSizeV300
	}

	records := make([]rawRecord, 0, count)
	offset := 0
	for i := int64(0); i < count; i++ {
		if offset >= len(tableData) {
			return nil, newError(CorruptTable, fmt.Sprintf("entry %d: ran out of table data", i)).withContext("index", i)
		}
		nameEnd := bytes.IndexByte(tableData[offset:], 0)
		if nameEnd < 0 {
			return nil, newError(CorruptTable, fmt.Sprintf("entry %d: missing name terminator", i)).withContext("index", i)
		}
		name := make([]byte, nameEnd)
		copy(name, tableData[offset:offset+nameEnd])
		offset += nameEnd + 1

		if offset+trailerSize > len(tableData) {
			return nil, newError(CorruptTable, fmt.Sprintf("entry %d: truncated record", i)).withContext("index", i)
		}

		compressedSize := int32(binary.LittleEndian.Uint32(tableData[offset:]))
		lengthAligned := int32(binary.LittleEndian.Uint32(tableData[offset+4:]))
		realSize := int32(binary.LittleEndian.Uint32(tableData[offset+8:]))
		typ := tableData[offset+12]

		if compressedSize < 0 || lengthAligned < 0 || realSize < 0 {
			return nil, newError(CorruptTable, fmt.Sprintf("entry %d: negative size field", i)).withContext("index", i)
		}

		var entryOffset uint64
		if version == versionV300 {
			low := binary.LittleEndian.Uint32(tableData[offset+13:])
			high := binary.LittleEndian.Uint32(tableData[offset+17:])
			entryOffset = uint64(high)<<32 + uint64(low)
		} else {
			entryOffset = uint64(binary.LittleEndian.Uint32(tableData[offset+13:]))
		}
		entryOffset += dataOffsetOf

		offset += trailerSize

		records = append(records, rawRecord{
			rawName:        name,
			compressedSize: compressedSize,
			lengthAligned:  lengthAligned,
			realSize:       realSize,
			typ:            typ,
			offset:         entryOffset,
		})
	}

	return records, nil
}

// resolveEncoding decides which FilenameEncoding to use for this
// archive, honoring an explicit Options override or running
// auto-detection (pkg/encoding.DetectFilenameEncoding) over the sampled
// raw names.
func resolveEncoding(records []rawRecord, opts Options) FilenameEncoding {
	if opts.FilenameEncoding != "" && opts.FilenameEncoding != EncodingAuto {
		return opts.FilenameEncoding
	}

	samples := make([][]byte, len(records))
	for i, r := range records {
		samples[i] = r.rawName
	}

	switch grfenc.DetectFilenameEncoding(samples, opts.AutoDetectThreshold) {
	case grfenc.DetectedCP949:
		return EncodingCP949
	default:
		return EncodingUTF8
	}
}

func decodeCP949(raw []byte) string {
	name := grfenc.EUCKRToUTF8(raw)
	// Repair any residual mojibake left by a handful of individually
	// misdecoded names even when the archive-wide encoding choice is
	// correct overall.
	if grfenc.IsMojibake(name) {
		name = grfenc.FixMojibake(name)
	}
	return name
}

func decodeWindows1252(raw []byte) string {
	decoder := charmap.Windows1252.NewDecoder()
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil && len(out) == 0 {
		return string(raw)
	}
	return string(out)
}

func decodeName(raw []byte, enc FilenameEncoding) string {
	switch enc {
	case EncodingCP949, EncodingEUCKR:
		return decodeCP949(raw)
	case EncodingLatin1:
		return decodeWindows1252(raw)
	default:
		return string(raw)
	}
}

func containsBadChar(s string) bool {
	for _, r := range s {
		if r == 0xFFFD || (r >= 0x80 && r <= 0x9F) {
			return true
		}
	}
	return false
}
