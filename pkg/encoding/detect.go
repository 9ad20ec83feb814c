package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// maxDetectSamples caps how many filenames auto-detection inspects.
const maxDetectSamples = 200

// Detected identifies the encoding auto-detection settled on.
type Detected string

const (
	DetectedUTF8  Detected = "utf-8"
	DetectedCP949 Detected = "cp949"
)

// DetectFilenameEncoding samples up to 200 filenames containing at least
// one byte above 0x7F, scores a UTF-8 and a CP949 decoding of each by
// counting "bad characters" (U+FFFD replacements plus C1 control
// characters U+0080..U+009F — the common failure mode when an EUC-KR
// decoder misreads an extended CP949 lead byte). UTF-8 is picked when its
// bad-character ratio is below threshold; otherwise CP949 is picked only
// if its ratio is strictly lower than UTF-8's. A pure-ASCII sample set
// deterministically picks UTF-8.
func DetectFilenameEncoding(samples [][]byte, threshold float64) Detected {
	var utf8Bad, cp949Bad, totalBytes int
	sampled := 0

	for _, raw := range samples {
		if sampled >= maxDetectSamples {
			break
		}
		if !hasHighByte(raw) {
			continue
		}
		sampled++
		totalBytes += len(raw)
		utf8Bad += countBad(decodeUTF8Lossy(raw))
		cp949Bad += countBad(decodeCP949Lossy(raw))
	}

	if totalBytes == 0 {
		return DetectedUTF8
	}

	utf8Ratio := float64(utf8Bad) / float64(totalBytes)
	cp949Ratio := float64(cp949Bad) / float64(totalBytes)

	if utf8Ratio < threshold {
		return DetectedUTF8
	}
	if cp949Ratio < utf8Ratio {
		return DetectedCP949
	}
	return DetectedUTF8
}

// EUCKRToUTF8 decodes raw as EUC-KR (CP949's base range) and returns the
// UTF-8 result, or the bytes reinterpreted as a string unchanged if
// decoding fails.
func EUCKRToUTF8(raw []byte) string {
	decoder := korean.EUCKR.NewDecoder()
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func hasHighByte(raw []byte) bool {
	for _, b := range raw {
		if b > 0x7F {
			return true
		}
	}
	return false
}

// decodeUTF8Lossy returns raw as a string unchanged; ranging over the
// result (as countBad does) yields U+FFFD for each invalid byte.
func decodeUTF8Lossy(raw []byte) string {
	return string(raw)
}

// decodeCP949Lossy decodes raw with the EUC-KR codec (CP949's base
// range), falling back to the raw bytes as a string when decoding fails
// with no output, so the bad-character scoring still applies to
// something rather than silently skipping the sample.
func decodeCP949Lossy(raw []byte) string {
	decoder := korean.EUCKR.NewDecoder()
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil && len(out) == 0 {
		return string(raw)
	}
	return string(out)
}

// countBad counts U+FFFD replacement characters and C1 control
// characters (U+0080..U+009F) in s.
func countBad(s string) int {
	bad := 0
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			bad++
		case r >= 0x80 && r <= 0x9F:
			bad++
		}
	}
	return bad
}
