//go:build ignore

// Command gen builds binary GRF fixtures for both header versions and
// every cipher mode. It is a standalone tool (not part of the
// grfpack module's build) so it is run from the module root with
// `go run pkg/grf/testdata/gen/main.go` rather than imported.
//
// It duplicates the cipher math from pkg/grf/cipher.go instead of
// importing it, since that package's tables and decrypt function are
// unexported.
package main

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var ipTable = [64]byte{
	58, 50, 42, 34, 26, 18, 10, 2,
	60, 52, 44, 36, 28, 20, 12, 4,
	62, 54, 46, 38, 30, 22, 14, 6,
	64, 56, 48, 40, 32, 24, 16, 8,
	57, 49, 41, 33, 25, 17, 9, 1,
	59, 51, 43, 35, 27, 19, 11, 3,
	61, 53, 45, 37, 29, 21, 13, 5,
	63, 55, 47, 39, 31, 23, 15, 7,
}

var fpTable = [64]byte{
	40, 8, 48, 16, 56, 24, 64, 32,
	39, 7, 47, 15, 55, 23, 63, 31,
	38, 6, 46, 14, 54, 22, 62, 30,
	37, 5, 45, 13, 53, 21, 61, 29,
	36, 4, 44, 12, 52, 20, 60, 28,
	35, 3, 43, 11, 51, 19, 59, 27,
	34, 2, 42, 10, 50, 18, 58, 26,
	33, 1, 41, 9, 49, 17, 57, 25,
}

var pBox = [32]byte{
	16, 7, 20, 21, 29, 12, 28, 17,
	1, 15, 23, 26, 5, 18, 31, 10,
	2, 8, 24, 14, 32, 27, 3, 9,
	19, 13, 30, 6, 22, 11, 4, 25,
}

var sBoxes = [4][64]byte{
	{
		74, 120, 41, 134, 27, 50, 180, 93,
		145, 188, 153, 92, 57, 38, 137, 99,
		173, 239, 163, 84, 160, 106, 89, 56,
		43, 80, 123, 155, 58, 94, 72, 204,
		255, 3, 121, 223, 40, 187, 7, 111,
		148, 131, 129, 170, 193, 224, 159, 185,
		23, 11, 54, 197, 63, 60, 71, 115,
		196, 100, 5, 108, 124, 210, 85, 139,
	},
	{
		124, 20, 234, 7, 204, 169, 233, 36,
		62, 122, 129, 85, 111, 237, 221, 137,
		149, 81, 249, 218, 121, 253, 209, 21,
		15, 191, 227, 160, 255, 104, 224, 1,
		165, 79, 200, 66, 135, 127, 93, 11,
		25, 195, 8, 6, 215, 206, 78, 28,
		61, 223, 48, 80, 167, 99, 26, 145,
		125, 220, 34, 22, 131, 53, 51, 143,
	},
	{
		235, 4, 84, 240, 52, 98, 96, 196,
		138, 16, 145, 121, 158, 86, 195, 11,
		40, 229, 163, 46, 35, 1, 198, 233,
		93, 159, 212, 26, 61, 220, 56, 141,
		232, 37, 131, 239, 155, 166, 169, 150,
		252, 152, 230, 104, 70, 39, 88, 103,
		82, 95, 67, 109, 114, 94, 241, 242,
		89, 69, 44, 15, 32, 42, 174, 17,
	},
	{
		244, 125, 76, 0, 204, 192, 68, 85,
		148, 37, 206, 23, 110, 184, 145, 18,
		21, 255, 28, 216, 228, 43, 229, 118,
		247, 5, 95, 182, 44, 93, 213, 94,
		39, 108, 249, 114, 191, 214, 86, 36,
		233, 136, 117, 127, 115, 162, 96, 234,
		225, 74, 187, 205, 98, 254, 180, 57,
		209, 3, 224, 128, 11, 144, 195, 131,
	},
}

var swapTable = buildSwapTable()

func buildSwapTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := [7][2]byte{
		{0x00, 0x2B}, {0x6C, 0x80}, {0x01, 0x68}, {0x48, 0x77},
		{0x60, 0xFF}, {0xB9, 0xC0}, {0xFE, 0xEB},
	}
	for _, p := range pairs {
		t[p[0]], t[p[1]] = p[1], p[0]
	}
	return t
}

func getBit(in []byte, pos int) byte {
	idx := pos - 1
	return (in[idx/8] >> uint(7-idx%8)) & 1
}

func setBit(out []byte, pos int, val byte) {
	idx := pos - 1
	shift := uint(7 - idx%8)
	if val != 0 {
		out[idx/8] |= 1 << shift
	} else {
		out[idx/8] &^= 1 << shift
	}
}

func permuteBits(in []byte, table []byte) []byte {
	out := make([]byte, (len(table)+7)/8)
	for i, srcPos := range table {
		setBit(out, i+1, getBit(in, int(srcPos)))
	}
	return out
}

func decryptBlock(block []byte) {
	permuted := permuteBits(block, ipTable[:])
	l := [4]byte{permuted[0], permuted[1], permuted[2], permuted[3]}
	r0, r1, r2, r3 := permuted[4], permuted[5], permuted[6], permuted[7]

	e := [8]byte{
		((r3 << 5) | (r0 >> 3)) & 0x3f,
		((r0 << 1) | (r1 >> 7)) & 0x3f,
		((r0 << 5) | (r1 >> 3)) & 0x3f,
		((r1 << 1) | (r2 >> 7)) & 0x3f,
		((r1 << 5) | (r2 >> 3)) & 0x3f,
		((r2 << 1) | (r3 >> 7)) & 0x3f,
		((r2 << 5) | (r3 >> 3)) & 0x3f,
		((r3 << 1) | (r0 >> 7)) & 0x3f,
	}

	var sOut [4]byte
	for i := 0; i < 4; i++ {
		sOut[i] = (sBoxes[i][e[2*i]] & 0xf0) | (sBoxes[i][e[2*i+1]] & 0x0f)
	}

	fOut := permuteBits(sOut[:], pBox[:])

	var preFP [8]byte
	for i := 0; i < 4; i++ {
		preFP[i] = l[i] ^ fOut[i]
		preFP[4+i] = permuted[4+i]
	}

	final := permuteBits(preFP[:], fpTable[:])
	copy(block, final)
}

func shuffleDecode(block []byte) {
	y := [8]byte{
		block[3], block[4], block[6], block[0],
		block[1], block[2], block[5], swapTable[block[7]],
	}
	copy(block, y[:])
}

func cycleFor(compressedSize int32) int {
	digits := decimalDigits(compressedSize)
	switch {
	case digits < 3:
		return 1
	case digits <= 4:
		return digits + 1
	case digits <= 6:
		return digits + 9
	default:
		return digits + 15
	}
}

func decimalDigits(n int32) int {
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return 1
	}
	d := 0
	for n > 0 {
		d++
		n /= 10
	}
	return d
}

const headerOnlyBlocks = 20

// decrypt is decryptBlock's own inverse (see cipher.go's doc comment), so
// it doubles as the "encrypt" step for building fixtures here.
func decrypt(data []byte, typeFlags uint8, compressedSize int32) {
	nblocks := len(data) / 8

	switch {
	case typeFlags&0x02 != 0:
		cycle := cycleFor(compressedSize)
		limit := headerOnlyBlocks
		if nblocks < limit {
			limit = nblocks
		}
		for i := 0; i < limit; i++ {
			decryptBlock(data[i*8 : i*8+8])
		}
		j := -1
		for i := limit; i < nblocks; i++ {
			block := data[i*8 : i*8+8]
			if i%cycle == 0 {
				decryptBlock(block)
				continue
			}
			j++
			if j != 0 && j%7 == 0 {
				shuffleDecode(block)
			}
		}
	case typeFlags&0x04 != 0:
		limit := headerOnlyBlocks
		if nblocks < limit {
			limit = nblocks
		}
		for i := 0; i < limit; i++ {
			decryptBlock(data[i*8 : i*8+8])
		}
	}
}

const (
	grfMagic     = "Master of Magic"
	headerSize   = 46
	versionV200  = 0x200
	versionV300  = 0x300
	dataOffsetOf = 46

	typeIsFile     = 0x01
	typeMixed      = 0x02
	typeHeaderOnly = 0x04
)

type entrySpec struct {
	name   string
	data   []byte
	cipher uint8
	store  bool
}

type builtRecord struct {
	name           string
	compressedSize int32
	lengthAligned  int32
	realSize       int32
	typ            uint8
	offset         uint32
}

// buildArchive assembles one complete GRF archive byte stream, mirroring
// pkg/grf/fixture_test.go's buildFixture (kept in lockstep by hand since
// this program cannot import that unexported helper).
func buildArchive(version uint32, entries []entrySpec) []byte {
	var payloads bytes.Buffer
	var records []builtRecord

	for _, e := range entries {
		var compressed []byte
		var realSize int32
		if e.store {
			compressed = e.data
			realSize = int32(len(e.data))
		} else {
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

		records = append(records, builtRecord{
			name:           e.name,
			compressedSize: int32(len(compressed)),
			lengthAligned:  int32(lengthAligned),
			realSize:       realSize,
			typ:            typ,
			offset:         offset,
		})
	}

	records = append(records, builtRecord{name: "data\\", typ: 0x00})

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
		out.Write(make([]byte, 4))
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
		binary.LittleEndian.PutUint32(buf[34:38], 0)
		binary.LittleEndian.PutUint32(buf[38:42], fileCount+7)
		binary.LittleEndian.PutUint32(buf[42:46], versionV200)
	case versionV300:
		binary.LittleEndian.PutUint32(buf[30:34], tableOffsetStored)
		binary.LittleEndian.PutUint32(buf[34:38], 0)
		binary.LittleEndian.PutUint32(buf[38:42], fileCount)
		binary.LittleEndian.PutUint32(buf[42:46], versionV300)
	}

	return buf
}

// digitBoundaryEntries builds one mixed-cipher payload of a repeated byte
// for each uncompressed length of 1 through 7 decimal digits, named after
// that digit count. cycleFor is driven by the compressed size, which for
// such repetitive data is far smaller than the uncompressed length, so the
// names do not give the digit count cycleFor sees.
func digitBoundaryEntries() []entrySpec {
	sizes := []int{9, 99, 999, 9999, 99999, 999999, 9999999}
	var out []entrySpec
	for _, n := range sizes {
		data := bytes.Repeat([]byte{0xAB}, n)
		out = append(out, entrySpec{
			name:   fmt.Sprintf("cycle-%d-digits.bin", decimalDigits(int32(n))),
			data:   data,
			cipher: typeMixed,
		})
	}
	return out
}

func main() {
	outDir := flag.String("out", "pkg/grf/testdata", "output directory for generated .grf fixtures")
	flag.Parse()

	entries := append([]entrySpec{
		{name: "stored.txt", data: []byte("stored payload, no compression"), store: true},
		{name: "deflated.txt", data: bytes.Repeat([]byte("compress me "), 40)},
		{name: "header-cipher.bin", data: bytes.Repeat([]byte{0x11, 0x22}, 64), cipher: typeHeaderOnly},
		{name: "mixed-cipher.bin", data: bytes.Repeat([]byte{0x33, 0x44}, 64), cipher: typeMixed},
	}, digitBoundaryEntries()...)

	for _, version := range []uint32{versionV200, versionV300} {
		buf := buildArchive(version, entries)
		name := fmt.Sprintf("fixture_v%x.grf", version)
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			log.Fatalf("writing %s: %v", path, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(buf))
	}
}
