package qkd

import (
	"fmt"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

// DefaultOversampleFactor is the raw-to-target multiplier used when none is configured.
// Sifting keeps about half the raw bits, so 8x leaves a wide margin.
const DefaultOversampleFactor = 8

const (
	// MaxOversampleFactor bounds the configurable raw-to-target multiplier
	MaxOversampleFactor = 64

	// MaxRawBits bounds the raw bits drawn for a single exchange
	MaxRawBits = 1 << 24
)

// BB84Protocol simulates the classical bookkeeping of BB84: random bits and
// bases for Alice, random bases for Bob, and basis sifting
type BB84Protocol struct {
	source           quantum.RandomSource
	oversampleFactor int
}

// NewBB84Protocol creates a new BB84 protocol instance.
// A non-positive oversampleFactor selects DefaultOversampleFactor.
func NewBB84Protocol(source quantum.RandomSource, oversampleFactor int) *BB84Protocol {
	bb := &BB84Protocol{
		source:           source,
		oversampleFactor: DefaultOversampleFactor,
	}
	bb.SetOversampleFactor(oversampleFactor)
	return bb
}

// SetOversampleFactor sets the raw-to-target multiplier
func (bb *BB84Protocol) SetOversampleFactor(factor int) {
	if factor > 0 {
		bb.oversampleFactor = factor
	}
}

// OversampleFactor returns the raw-to-target multiplier
func (bb *BB84Protocol) OversampleFactor() int {
	return bb.oversampleFactor
}

// RawCount returns targetBits times the oversample factor, or a
// *qkd.ExchangeTooLargeError when that would exceed MaxRawBits
func (bb *BB84Protocol) RawCount(targetBits int) (int, error) {
	if targetBits <= 0 {
		return 0, fmt.Errorf("target key length must be positive, got %d", targetBits)
	}

	// compare by division so the product never overflows
	if targetBits > MaxRawBits/bb.oversampleFactor {
		return 0, &qkd.ExchangeTooLargeError{
			TargetBits:       targetBits,
			OversampleFactor: bb.oversampleFactor,
			MaxRawBits:       MaxRawBits,
		}
	}

	return targetBits * bb.oversampleFactor, nil
}

// AliceSession represents the sender's side of the exchange
type AliceSession struct {
	Bits  []quantum.Bit
	Bases []quantum.Basis
}

// BobSession represents the receiver's side of the exchange
type BobSession struct {
	Bases []quantum.Basis
}

// KeyExchangeResult contains the result of a simulated BB84 exchange
type KeyExchangeResult struct {
	Alice  *AliceSession
	Bob    *BobSession
	Sifted []quantum.Bit
	Key    []quantum.Bit
	Stats  qkd.SiftingStats
}

// AliceGenerate - Step 1: Alice draws n random bits and n random bases
func (bb *BB84Protocol) AliceGenerate(n int) (*AliceSession, error) {
	bits, err := bb.source.Bits(n)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bits: %w", err)
	}

	bases, err := bb.GenerateBases(n)
	if err != nil {
		return nil, err
	}

	return &AliceSession{Bits: bits, Bases: bases}, nil
}

// BobChooseBases - Step 2: Bob draws his own n random bases
func (bb *BB84Protocol) BobChooseBases(n int) (*BobSession, error) {
	bases, err := bb.GenerateBases(n)
	if err != nil {
		return nil, err
	}
	return &BobSession{Bases: bases}, nil
}

// GenerateBases draws n uniformly distributed bases from the protocol's source
func (bb *BB84Protocol) GenerateBases(n int) ([]quantum.Basis, error) {
	bases, err := bb.source.Bases(n)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bases: %w", err)
	}
	return bases, nil
}

// SiftedKey represents the result of basis reconciliation
type SiftedKey struct {
	Key     []quantum.Bit
	Indices []int // Indices where bases matched
}

// BasisReconciliation - Step 3: Alice and Bob compare bases (public channel)
// and keep Alice's bits where the bases agree
func (bb *BB84Protocol) BasisReconciliation(alice *AliceSession, bob *BobSession) (*SiftedKey, error) {
	if err := checkExchangeLengths(alice.Bits, alice.Bases, bob.Bases); err != nil {
		return nil, err
	}

	sifted := &SiftedKey{
		Key:     make([]quantum.Bit, 0, len(alice.Bits)/2),
		Indices: make([]int, 0, len(alice.Bits)/2),
	}

	for i := range alice.Bases {
		if alice.Bases[i].Matches(bob.Bases[i]) {
			sifted.Key = append(sifted.Key, alice.Bits[i])
			sifted.Indices = append(sifted.Indices, i)
		}
	}

	return sifted, nil
}

// Sift returns senderBits at every index where the two bases match, in order.
// All three sequences must have the same length.
func Sift(senderBits []quantum.Bit, senderBases, receiverBases []quantum.Basis) ([]quantum.Bit, error) {
	if err := checkExchangeLengths(senderBits, senderBases, receiverBases); err != nil {
		return nil, err
	}

	sifted := make([]quantum.Bit, 0, len(senderBits)/2)
	for i := range senderBits {
		if senderBases[i].Matches(receiverBases[i]) {
			sifted = append(sifted, senderBits[i])
		}
	}
	return sifted, nil
}

func checkExchangeLengths(bits []quantum.Bit, senderBases, receiverBases []quantum.Basis) error {
	if len(bits) != len(senderBases) || len(bits) != len(receiverBases) {
		return &qkd.InvariantError{Message: fmt.Sprintf(
			"exchange sequences differ in length: bits=%d sender bases=%d receiver bases=%d",
			len(bits), len(senderBases), len(receiverBases))}
	}
	return nil
}

// DeriveKey runs a full exchange sized for targetBits and returns exactly
// targetBits of sifted key, or a *qkd.KeyTooShortError when sifting left fewer.
// Exchanges larger than MaxRawBits fail with *qkd.ExchangeTooLargeError.
func (bb *BB84Protocol) DeriveKey(targetBits int) (*KeyExchangeResult, error) {
	rawCount, err := bb.RawCount(targetBits)
	if err != nil {
		return nil, err
	}

	// Step 1: Alice prepares bits and bases
	alice, err := bb.AliceGenerate(rawCount)
	if err != nil {
		return nil, fmt.Errorf("alice generation failed: %w", err)
	}

	// Step 2: Bob picks bases
	bob, err := bb.BobChooseBases(rawCount)
	if err != nil {
		return nil, fmt.Errorf("bob basis selection failed: %w", err)
	}

	// Step 3: Sifting
	sifted, err := Sift(alice.Bits, alice.Bases, bob.Bases)
	if err != nil {
		return nil, fmt.Errorf("sifting failed: %w", err)
	}

	// Step 4: Check there is enough key material
	if len(sifted) < targetBits {
		return nil, &qkd.KeyTooShortError{NeededBits: targetBits, GotBits: len(sifted)}
	}

	return &KeyExchangeResult{
		Alice:  alice,
		Bob:    bob,
		Sifted: sifted,
		Key:    sifted[:targetBits],
		Stats: qkd.SiftingStats{
			RawCount:             rawCount,
			SiftedCount:          len(sifted),
			PercentKept:          float64(len(sifted)) / float64(rawCount),
			ShortfallProbability: ShortfallProbability(rawCount, targetBits),
		},
	}, nil
}
