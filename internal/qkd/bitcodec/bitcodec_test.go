package bitcodec

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

var (
	zero = quantum.Zero
	one  = quantum.One
)

// TestBitsToBytes tests bit-to-byte conversion
func TestBitsToBytes(t *testing.T) {
	tests := []struct {
		name     string
		bits     []quantum.Bit
		expected []byte
	}{
		{
			name:     "Empty",
			bits:     []quantum.Bit{},
			expected: []byte{},
		},
		{
			name:     "Single bit is dropped",
			bits:     []quantum.Bit{one},
			expected: []byte{},
		},
		{
			name:     "8 bits all zero",
			bits:     []quantum.Bit{zero, zero, zero, zero, zero, zero, zero, zero},
			expected: []byte{0x00},
		},
		{
			name:     "8 bits all one",
			bits:     []quantum.Bit{one, one, one, one, one, one, one, one},
			expected: []byte{0xFF},
		},
		{
			name:     "Pattern 10110001",
			bits:     []quantum.Bit{one, zero, one, one, zero, zero, zero, one},
			expected: []byte{0xB1},
		},
		{
			name:     "16 bits",
			bits:     []quantum.Bit{one, zero, one, zero, one, zero, one, zero, zero, one, zero, one, zero, one, zero, one},
			expected: []byte{0xAA, 0x55},
		},
		{
			name:     "Trailing partial byte dropped (13 bits)",
			bits:     []quantum.Bit{one, zero, one, one, zero, zero, zero, one, one, one, one, one, one},
			expected: []byte{0xB1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BitsToBytes(tt.bits)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("expected %X, got %X", tt.expected, result)
			}
		})
	}
}

// TestBytesToBits tests byte-to-bit conversion
func TestBytesToBits(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []quantum.Bit
	}{
		{"Empty", []byte{}, []quantum.Bit{}},
		{"Single byte 0x00", []byte{0x00}, []quantum.Bit{zero, zero, zero, zero, zero, zero, zero, zero}},
		{"Single byte 0xFF", []byte{0xFF}, []quantum.Bit{one, one, one, one, one, one, one, one}},
		{"Pattern 0xB1", []byte{0xB1}, []quantum.Bit{one, zero, one, one, zero, zero, zero, one}},
		{"ASCII H", []byte("H"), []quantum.Bit{zero, one, zero, zero, one, zero, zero, zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BytesToBits(tt.data)

			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d bits, got %d", len(tt.expected), len(result))
			}

			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("bit %d: expected %d, got %d", i, tt.expected[i], result[i])
				}
			}
		})
	}
}

// TestBytesRoundTrip tests bitsToBytes(bytesToBits(B)) == B
func TestBytesRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 32, 256} {
		t.Run(fmt.Sprintf("%d bytes", n), func(t *testing.T) {
			original := make([]byte, n)
			if _, err := rand.Read(original); err != nil {
				t.Fatal(err)
			}

			bits := BytesToBits(original)
			if len(bits) != 8*n {
				t.Fatalf("expected %d bits, got %d", 8*n, len(bits))
			}

			if recovered := BitsToBytes(bits); !bytes.Equal(recovered, original) {
				t.Errorf("round trip mismatch: %X != %X", recovered, original)
			}
		})
	}

	utf8 := []byte("héllo wörld ✓")
	if recovered := BitsToBytes(BytesToBits(utf8)); !bytes.Equal(recovered, utf8) {
		t.Error("UTF-8 round trip mismatch")
	}
}

func TestGrouping(t *testing.T) {
	bits := BytesToBits([]byte{0xB1, 0x0F})
	tail := append(append([]quantum.Bit{}, bits...), one, zero, one)

	tests := []struct {
		name     string
		render   func([]quantum.Bit) string
		bits     []quantum.Bit
		expected string
	}{
		{"Empty", GroupInEights, nil, ""},
		{"Under one group", GroupInEights, []quantum.Bit{one, zero, one}, "101"},
		{"Exactly one group", GroupInEights, bits[:8], "10110001"},
		{"Two groups", GroupInEights, bits, "10110001 00001111"},
		{"Partial trailing group kept", GroupInEights, tail, "10110001 00001111 101"},
		{"Full bytes only drops tail", GroupFullBytesOnly, tail, "10110001 00001111"},
		{"Full bytes only under one byte", GroupFullBytesOnly, []quantum.Bit{one, one}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.render(tt.bits); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatDebugStrings(t *testing.T) {
	if got := FormatBits([]quantum.Bit{one, zero, zero, one}); got != "1001" {
		t.Errorf("expected 1001, got %s", got)
	}

	bases := []quantum.Basis{quantum.RectilinearBasis, quantum.DiagonalBasis, quantum.RectilinearBasis}
	if got := FormatBases(bases); got != "+×+" {
		t.Errorf("expected +×+, got %s", got)
	}
}

func TestIsValidBinaryText(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"   ", true},
		{"0101", true},
		{"0101 1100\n0000\t1111", true},
		{"01 01a", false},
		{"0102", false},
		{"0x01", false},
		{"01 01", true},
		{"１0", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			if result := IsValidBinaryText(tt.input); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestParseBinaryText(t *testing.T) {
	bits, err := ParseBinaryText(" 1011 0001\n01 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := FormatBits(bits); got != "1011000101" {
		t.Errorf("expected 1011000101, got %s", got)
	}

	bits, err = ParseBinaryText("")
	if err != nil || len(bits) != 0 {
		t.Errorf("expected empty result, got %v, %v", bits, err)
	}
}

func TestParseBinaryTextFormatError(t *testing.T) {
	_, err := ParseBinaryText("01 01a")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var formatErr *qkd.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %T", err)
	}
	if formatErr.Char != 'a' || formatErr.Position != 5 {
		t.Errorf("unexpected error details: %+v", formatErr)
	}
}

func BenchmarkGroupInEights(b *testing.B) {
	bits := BytesToBits(make([]byte, 512))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GroupInEights(bits)
	}
}
