package qkd

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

// scriptedSource returns fixed bits and a scripted series of basis sequences
type scriptedSource struct {
	bit   quantum.Bit
	bases []quantum.Basis // one entry per Bases call, repeated n times
	calls int
	err   error
}

func (s *scriptedSource) Bits(n int) ([]quantum.Bit, error) {
	if s.err != nil {
		return nil, s.err
	}
	bits := make([]quantum.Bit, n)
	for i := range bits {
		bits[i] = s.bit
	}
	return bits, nil
}

func (s *scriptedSource) Bases(n int) ([]quantum.Basis, error) {
	basis := s.bases[s.calls%len(s.bases)]
	s.calls++
	bases := make([]quantum.Basis, n)
	for i := range bases {
		bases[i] = basis
	}
	return bases, nil
}

func TestDeriveKey(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	result, err := bb84.DeriveKey(256)
	if err != nil {
		t.Fatalf("Key derivation failed: %v", err)
	}

	if len(result.Key) != 256 {
		t.Errorf("Expected key length of 256, got %d", len(result.Key))
	}

	if result.Stats.RawCount != 256*8 {
		t.Errorf("Expected raw count %d, got %d", 256*8, result.Stats.RawCount)
	}

	if result.Stats.SiftedCount != len(result.Sifted) {
		t.Errorf("Sifted count %d does not match sifted key length %d",
			result.Stats.SiftedCount, len(result.Sifted))
	}

	expectedPercent := float64(result.Stats.SiftedCount) / float64(result.Stats.RawCount)
	if result.Stats.PercentKept != expectedPercent {
		t.Errorf("Expected percent kept %.4f, got %.4f", expectedPercent, result.Stats.PercentKept)
	}

	// Key must be a prefix of the sifted key
	for i := range result.Key {
		if result.Key[i] != result.Sifted[i] {
			t.Fatalf("Key differs from sifted key at index %d", i)
		}
	}

	// Raw exchange sequences all have length n
	if len(result.Alice.Bits) != result.Stats.RawCount ||
		len(result.Alice.Bases) != result.Stats.RawCount ||
		len(result.Bob.Bases) != result.Stats.RawCount {
		t.Error("Alice bits, Alice bases and Bob bases should all have the raw length")
	}
}

func TestDeriveKeyDefaultOversample(t *testing.T) {
	for _, factor := range []int{0, -3} {
		bb84 := NewBB84Protocol(quantum.NewCryptoSource(), factor)
		if bb84.OversampleFactor() != DefaultOversampleFactor {
			t.Errorf("factor %d: expected default %d, got %d", factor, DefaultOversampleFactor, bb84.OversampleFactor())
		}
	}

	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 3)
	bb84.SetOversampleFactor(0)
	if bb84.OversampleFactor() != 3 {
		t.Errorf("non-positive factor should be ignored, got %d", bb84.OversampleFactor())
	}
}

func TestDeriveKeyInvalidTarget(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	for _, target := range []int{0, -8} {
		if _, err := bb84.DeriveKey(target); err == nil {
			t.Errorf("expected error for target %d", target)
		}
	}
}

func TestRawCount(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	raw, err := bb84.RawCount(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != 128 {
		t.Errorf("Expected raw count 128, got %d", raw)
	}

	raw, err = bb84.RawCount(MaxRawBits / 8)
	if err != nil {
		t.Fatalf("unexpected error at the limit: %v", err)
	}
	if raw != MaxRawBits {
		t.Errorf("Expected raw count %d, got %d", MaxRawBits, raw)
	}
}

func TestDeriveKeyExchangeTooLarge(t *testing.T) {
	tests := []struct {
		name       string
		factor     int
		targetBits int
	}{
		{"product overflows int", math.MaxInt/8 + 1, 16},
		{"huge factor", 1 << 30, 16},
		{"just over the raw limit", MaxOversampleFactor, MaxRawBits/MaxOversampleFactor + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Any draw from the source means the size check was skipped
			source := &scriptedSource{err: errors.New("source should not be used")}
			bb84 := NewBB84Protocol(source, tt.factor)

			_, err := bb84.DeriveKey(tt.targetBits)

			var tooLarge *qkd.ExchangeTooLargeError
			if !errors.As(err, &tooLarge) {
				t.Fatalf("Expected ExchangeTooLargeError, got %v", err)
			}
			if tooLarge.TargetBits != tt.targetBits || tooLarge.OversampleFactor != tt.factor {
				t.Errorf("Expected target %d at factor %d, got %+v", tt.targetBits, tt.factor, tooLarge)
			}
			if qkd.ErrorCode(err) != qkd.CodeExchangeTooLarge {
				t.Errorf("Expected code %s, got %s", qkd.CodeExchangeTooLarge, qkd.ErrorCode(err))
			}
		})
	}
}

func TestDeriveKeyTooShort(t *testing.T) {
	// Alice always rectilinear, Bob always diagonal: nothing survives sifting
	source := &scriptedSource{
		bit:   quantum.One,
		bases: []quantum.Basis{quantum.RectilinearBasis, quantum.DiagonalBasis},
	}
	bb84 := NewBB84Protocol(source, 8)

	result, err := bb84.DeriveKey(16)
	if result != nil {
		t.Error("expected no result on shortfall")
	}

	var tooShort *qkd.KeyTooShortError
	if !errors.As(err, &tooShort) {
		t.Fatalf("expected KeyTooShortError, got %v", err)
	}

	if tooShort.NeededBits != 16 || tooShort.GotBits != 0 {
		t.Errorf("unexpected diagnostics: %+v", tooShort)
	}
}

func TestDeriveKeySourceError(t *testing.T) {
	source := &scriptedSource{err: errors.New("entropy unavailable")}
	bb84 := NewBB84Protocol(source, 8)

	if _, err := bb84.DeriveKey(8); err == nil {
		t.Error("expected error from failing source")
	}
}

// TestDeriveKeyNeverShort checks the result is exactly targetBits or an
// error reporting fewer bits, with a factor small enough to hit both
func TestDeriveKeyNeverShort(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewSeededSource(11), 2)

	successes, shortfalls := 0, 0
	for i := 0; i < 500; i++ {
		result, err := bb84.DeriveKey(8)
		if err != nil {
			var tooShort *qkd.KeyTooShortError
			if !errors.As(err, &tooShort) {
				t.Fatalf("unexpected error: %v", err)
			}
			if tooShort.GotBits >= tooShort.NeededBits {
				t.Fatalf("shortfall reported with got %d >= needed %d", tooShort.GotBits, tooShort.NeededBits)
			}
			shortfalls++
			continue
		}

		if len(result.Key) != 8 {
			t.Fatalf("expected 8 key bits, got %d", len(result.Key))
		}
		successes++
	}

	if successes == 0 || shortfalls == 0 {
		t.Errorf("expected both outcomes, got %d successes and %d shortfalls", successes, shortfalls)
	}
}

// TestSift tests the deterministic sifting step
func TestSift(t *testing.T) {
	R, D := quantum.RectilinearBasis, quantum.DiagonalBasis

	tests := []struct {
		name          string
		bits          []quantum.Bit
		senderBases   []quantum.Basis
		receiverBases []quantum.Basis
		expected      []quantum.Bit
	}{
		{"Empty", nil, nil, nil, []quantum.Bit{}},
		{"All match", []quantum.Bit{1, 0, 1}, []quantum.Basis{R, D, R}, []quantum.Basis{R, D, R}, []quantum.Bit{1, 0, 1}},
		{"None match", []quantum.Bit{1, 0, 1}, []quantum.Basis{R, D, R}, []quantum.Basis{D, R, D}, []quantum.Bit{}},
		{"Order preserved", []quantum.Bit{1, 1, 0, 0, 1}, []quantum.Basis{R, D, D, R, D}, []quantum.Basis{R, R, D, D, D}, []quantum.Bit{1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Sift(tt.bits, tt.senderBases, tt.receiverBases)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

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

func TestSiftLengthMismatch(t *testing.T) {
	R := quantum.RectilinearBasis

	_, err := Sift([]quantum.Bit{1, 0}, []quantum.Basis{R, R}, []quantum.Basis{R})

	var invariant *qkd.InvariantError
	if !errors.As(err, &invariant) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

// TestBasisReconciliation checks reconciliation agrees with Sift and records indices
func TestBasisReconciliation(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewSeededSource(3), 8)

	alice, err := bb84.AliceGenerate(512)
	if err != nil {
		t.Fatalf("Alice generation failed: %v", err)
	}
	bob, err := bb84.BobChooseBases(512)
	if err != nil {
		t.Fatalf("Bob basis selection failed: %v", err)
	}

	sifted, err := bb84.BasisReconciliation(alice, bob)
	if err != nil {
		t.Fatalf("Basis reconciliation failed: %v", err)
	}

	plain, _ := Sift(alice.Bits, alice.Bases, bob.Bases)
	if len(plain) != len(sifted.Key) || len(sifted.Indices) != len(sifted.Key) {
		t.Fatalf("length mismatch: sift %d, reconciliation %d, indices %d",
			len(plain), len(sifted.Key), len(sifted.Indices))
	}

	if len(sifted.Key) != quantum.CountMatchingBases(alice.Bases, bob.Bases) {
		t.Error("sifted length should equal number of matching bases")
	}

	for i, idx := range sifted.Indices {
		if i > 0 && idx <= sifted.Indices[i-1] {
			t.Fatalf("indices not strictly increasing at %d", i)
		}
		if alice.Bases[idx] != bob.Bases[idx] {
			t.Errorf("index %d kept with mismatched bases", idx)
		}
		if sifted.Key[i] != alice.Bits[idx] || plain[i] != sifted.Key[i] {
			t.Errorf("bit %d does not match Alice's bit at index %d", i, idx)
		}
	}

	_, err = bb84.BasisReconciliation(alice, &BobSession{Bases: bob.Bases[:10]})
	if err == nil {
		t.Error("expected error for mismatched session lengths")
	}
}

// TestBB84SiftingEfficiency checks the sifted ratio converges to 1/2
func TestBB84SiftingEfficiency(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	const trials = 50
	const rawCount = 4000

	total := 0
	for i := 0; i < trials; i++ {
		alice, _ := bb84.AliceGenerate(rawCount)
		bob, _ := bb84.BobChooseBases(rawCount)
		sifted, err := Sift(alice.Bits, alice.Bases, bob.Bases)
		if err != nil {
			t.Fatalf("sift failed: %v", err)
		}
		total += len(sifted)
	}

	// Standard deviation of the pooled ratio is 0.5/sqrt(trials*rawCount) ≈ 0.0011
	efficiency := float64(total) / float64(trials*rawCount)
	if math.Abs(efficiency-0.5) > 0.01 {
		t.Errorf("Sifting efficiency %.4f too far from 0.5", efficiency)
	}

	t.Logf("Sifting efficiency: %.2f%% (%d/%d bits)", efficiency*100, total, trials*rawCount)
}

// TestBB84KeyUniqueness tests that different runs produce different keys
func TestBB84KeyUniqueness(t *testing.T) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	keys := make([]string, 5)
	for i := range keys {
		result, err := bb84.DeriveKey(256)
		if err != nil {
			t.Fatalf("Key derivation %d failed: %v", i, err)
		}
		keys[i] = fmt.Sprint(result.Key)
	}

	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == keys[j] {
				t.Errorf("Keys %d and %d are identical (very unlikely)", i, j)
			}
		}
	}
}

func TestShortfallProbability(t *testing.T) {
	tests := []struct {
		name       string
		rawCount   int
		targetBits int
		min, max   float64
	}{
		{"Zero target", 100, 0, 0, 0},
		{"Raw below target", 10, 16, 1, 1},
		{"Coin flip", 2, 1, 0.25, 0.25},
		{"Median", 100, 51, 0.5, 0.62},
		{"Default oversample", 16 * 8, 16, 0, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ShortfallProbability(tt.rawCount, tt.targetBits)
			if p < tt.min-1e-9 || p > tt.max+1e-9 {
				t.Errorf("expected probability in [%g, %g], got %g", tt.min, tt.max, p)
			}
		})
	}

	if mean := ExpectedSiftedCount(128); mean != 64 {
		t.Errorf("expected mean 64, got %g", mean)
	}
}

func BenchmarkDeriveKey(b *testing.B) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bb84.DeriveKey(256)
	}
}

func BenchmarkSift(b *testing.B) {
	bb84 := NewBB84Protocol(quantum.NewCryptoSource(), 8)
	alice, _ := bb84.AliceGenerate(2048)
	bob, _ := bb84.BobChooseBases(2048)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Sift(alice.Bits, alice.Bases, bob.Bases)
	}
}
