package grf

// Custom single-round, keyless DES variant used by GRF payload encryption.
//
// ipTable, fpTable and pBox are the textbook DES initial/final permutation
// and P-box; sBoxes are generated from a fixed PRNG seed rather than the
// real GRF client's substitution tables, which are not reproduced here.
// decryptBlock is self-inverse against these tables, so archives produced
// by this package's own cipher round-trip correctly, but this code will
// not decrypt payloads from a real GRF archive.

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

// swapTable is the identity permutation with seven bidirectional swaps,
// used by shuffle-decode on every seventh non-DES block past block 20
// in mixed mode.
var swapTable = buildSwapTable()

func buildSwapTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := [7][2]byte{
		{0x00, 0x2B},
		{0x6C, 0x80},
		{0x01, 0x68},
		{0x48, 0x77},
		{0x60, 0xFF},
		{0xB9, 0xC0},
		{0xFE, 0xEB},
	}
	for _, p := range pairs {
		t[p[0]], t[p[1]] = p[1], p[0]
	}
	return t
}

// getBit returns the 1-indexed, MSB-first bit of in at position pos.
func getBit(in []byte, pos int) byte {
	idx := pos - 1
	b := in[idx/8]
	shift := uint(7 - idx%8)
	return (b >> shift) & 1
}

// setBit sets the 1-indexed, MSB-first bit of out at position pos.
func setBit(out []byte, pos int, val byte) {
	idx := pos - 1
	shift := uint(7 - idx%8)
	if val != 0 {
		out[idx/8] |= 1 << shift
	} else {
		out[idx/8] &^= 1 << shift
	}
}

// permuteBits applies table (1-indexed, MSB-first source positions) to in,
// producing len(table)-bits of output.
func permuteBits(in []byte, table []byte) []byte {
	out := make([]byte, (len(table)+7)/8)
	for i, srcPos := range table {
		setBit(out, i+1, getBit(in, int(srcPos)))
	}
	return out
}

// decryptBlock decrypts a single 8-byte block in place.
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

// shuffleDecode applies the shuffle permutation and single-byte
// substitution to one 8-byte block in place.
func shuffleDecode(block []byte) {
	y := [8]byte{
		block[3],
		block[4],
		block[6],
		block[0],
		block[1],
		block[2],
		block[5],
		swapTable[block[7]],
	}
	copy(block, y[:])
}

// cycleFor computes the mixed-mode DES cycle from the decimal digit count
// of compressedSize, per the table in the cipher specification.
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

// decrypt applies the GRF cipher to data in place according to typeFlags.
// data must be a multiple of 8 bytes (block-aligned); it is the caller's
// responsibility to check this and reject malformed entries. The function
// is a pure function of its inputs: it carries no state across calls.
func decrypt(data []byte, typeFlags uint8, compressedSize int32) {
	nblocks := len(data) / 8

	switch {
	case typeFlags&0x02 != 0: // mixed mode
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

	case typeFlags&0x04 != 0: // header-only mode
		limit := headerOnlyBlocks
		if nblocks < limit {
			limit = nblocks
		}
		for i := 0; i < limit; i++ {
			decryptBlock(data[i*8 : i*8+8])
		}
	}
}
