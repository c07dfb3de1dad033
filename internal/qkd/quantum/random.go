package quantum

import (
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand/v2"
)

// RandomSource produces the random material consumed by a BB84 exchange
type RandomSource interface {
	// Bits returns n independent, uniformly distributed bits
	Bits(n int) ([]Bit, error)

	// Bases returns n independent, uniformly distributed basis choices
	Bases(n int) ([]Basis, error)
}

// ReaderSource draws bits and bases from a byte stream, one bit per output value
type ReaderSource struct {
	reader io.Reader
}

// NewCryptoSource returns a RandomSource backed by crypto/rand.
// This is the only source used outside of tests.
func NewCryptoSource() *ReaderSource {
	return &ReaderSource{reader: rand.Reader}
}

// NewReaderSource returns a RandomSource reading from r
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{reader: r}
}

// Bits generates n random bits
func (s *ReaderSource) Bits(n int) ([]Bit, error) {
	raw, err := s.read(n)
	if err != nil {
		return nil, err
	}
	return unpackBits(raw, n), nil
}

// Bases generates n random bases
func (s *ReaderSource) Bases(n int) ([]Basis, error) {
	raw, err := s.read(n)
	if err != nil {
		return nil, err
	}

	bits := unpackBits(raw, n)
	bases := make([]Basis, n)
	for i, b := range bits {
		bases[i] = Basis(b)
	}
	return bases, nil
}

func (s *ReaderSource) read(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("length must be non-negative, got %d", n)
	}

	buf := make([]byte, (n+7)/8)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// unpackBits expands the first n bits of buf, MSB first
func unpackBits(buf []byte, n int) []Bit {
	bits := make([]Bit, n)
	for i := 0; i < n; i++ {
		if buf[i/8]&(1<<uint(7-i%8)) != 0 {
			bits[i] = One
		}
	}
	return bits
}

// SeededSource is a deterministic RandomSource for reproducible test vectors.
// It is not cryptographically secure.
type SeededSource struct {
	rng *mrand.Rand
}

// NewSeededSource creates a deterministic source from seed
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{
		rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Bits generates n pseudo-random bits
func (s *SeededSource) Bits(n int) ([]Bit, error) {
	if n < 0 {
		return nil, fmt.Errorf("length must be non-negative, got %d", n)
	}

	bits := make([]Bit, n)
	for i := range bits {
		bits[i] = Bit(s.rng.IntN(2))
	}
	return bits, nil
}

// Bases generates n pseudo-random bases
func (s *SeededSource) Bases(n int) ([]Basis, error) {
	if n < 0 {
		return nil, fmt.Errorf("length must be non-negative, got %d", n)
	}

	bases := make([]Basis, n)
	for i := range bases {
		bases[i] = Basis(s.rng.IntN(2))
	}
	return bases, nil
}
