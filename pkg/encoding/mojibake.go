package encoding

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// mojibakeSignatures are raw CP949 byte pairs of common Hangul syllables.
// They are matched byte-wise, so they only match a string that still
// carries undecoded CP949 bytes, not one already decoded as Windows-1252.
var mojibakeSignatures = []string{
	"\xc0\xcc", "\xc7\xd1", "\xb1\xdb", "\xb0\xa1", "\xb4\xd9",
}

// IsMojibake reports whether s looks like CP949 bytes that were decoded
// as Windows-1252: it contains no Hangul syllables, and either matches a
// known signature or has more than 30% of its characters in the
// U+0080..U+00FF range.
func IsMojibake(s string) bool {
	if containsHangul(s) {
		return false
	}
	for _, sig := range mojibakeSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return latin1SupplementRatio(s) > 0.30
}

// FixMojibake re-encodes s as Windows-1252 and decodes the result as
// CP949. The fix is kept only if it introduces Hangul syllables and does
// not increase the bad-character count; otherwise s is returned unchanged.
func FixMojibake(s string) string {
	win1252, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s
	}

	decoder := korean.EUCKR.NewDecoder()
	fixed, _, err := transform.Bytes(decoder, []byte(win1252))
	if err != nil {
		return s
	}

	candidate := string(fixed)
	if !containsHangul(candidate) {
		return s
	}
	if countBad(candidate) > countBad(s) {
		return s
	}
	return candidate
}

func containsHangul(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}

func latin1SupplementRatio(s string) float64 {
	total := 0
	inRange := 0
	for _, r := range s {
		total++
		if r >= 0x80 && r <= 0xFF {
			inRange++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(inRange) / float64(total)
}
