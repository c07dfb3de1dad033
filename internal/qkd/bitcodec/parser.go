package bitcodec

import (
	"unicode"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

// IsValidBinaryText reports whether s contains only '0', '1' and whitespace.
// The empty string is valid; callers reject empty input themselves.
func IsValidBinaryText(s string) bool {
	for _, r := range s {
		if r != '0' && r != '1' && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// ParseBinaryText strips whitespace from s and parses the remaining digits.
// Callers are expected to check IsValidBinaryText first.
func ParseBinaryText(s string) ([]quantum.Bit, error) {
	bits := make([]quantum.Bit, 0, len(s))
	for pos, r := range []rune(s) {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '0':
			bits = append(bits, quantum.Zero)
		case r == '1':
			bits = append(bits, quantum.One)
		default:
			return nil, &qkd.FormatError{Char: r, Position: pos}
		}
	}
	return bits, nil
}
