// Package bitcodec converts between bytes, bit sequences and their display text.
//
// Bits are always MSB first within a byte. BitsToBytes is strict: a trailing
// partial byte is dropped rather than zero-padded, so the result contains
// exactly the full bytes present in the input.
package bitcodec

import (
	"strings"

	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

const groupSize = 8

// BytesToBits expands each byte into 8 bits, MSB first
func BytesToBits(data []byte) []quantum.Bit {
	bits := make([]quantum.Bit, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, quantum.Bit((b>>uint(shift))&1))
		}
	}
	return bits
}

// BitsToBytes packs bits into bytes, MSB first, dropping a trailing partial byte
func BitsToBytes(bits []quantum.Bit) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for _, bit := range bits[i*8 : i*8+8] {
			b = b<<1 | byte(bit&1)
		}
		out[i] = b
	}
	return out
}

// FullBytes truncates bits to the last full byte boundary
func FullBytes(bits []quantum.Bit) []quantum.Bit {
	return bits[:len(bits)/8*8]
}

// GroupInEights renders bits as 0/1 with a space after every 8 characters
func GroupInEights(bits []quantum.Bit) string {
	var sb strings.Builder
	sb.Grow(len(bits) + len(bits)/groupSize)
	for i, bit := range bits {
		if i > 0 && i%groupSize == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(bit.Char())
	}
	return sb.String()
}

// GroupFullBytesOnly is GroupInEights after discarding a trailing partial byte
func GroupFullBytesOnly(bits []quantum.Bit) string {
	return GroupInEights(FullBytes(bits))
}

// FormatBits renders bits as an ungrouped 0/1 string
func FormatBits(bits []quantum.Bit) string {
	buf := make([]byte, len(bits))
	for i, bit := range bits {
		buf[i] = bit.Char()
	}
	return string(buf)
}

// FormatBases renders bases as an ungrouped +/× string
func FormatBases(bases []quantum.Basis) string {
	var sb strings.Builder
	for _, b := range bases {
		sb.WriteString(b.Symbol())
	}
	return sb.String()
}
