package qkd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/bitcodec"
	"github.com/jaskrrish/qkd-otp/internal/qkd/crypto"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
)

// Service runs the encrypt and decrypt pipelines. It keeps no state between
// calls and is safe for concurrent use when its RandomSource is.
type Service struct {
	protocol        *BB84Protocol
	maxMessageBytes int
}

// NewService creates a service drawing randomness from source
func NewService(source quantum.RandomSource, oversampleFactor int) *Service {
	return &Service{
		protocol: NewBB84Protocol(source, oversampleFactor),
	}
}

// SetMaxMessageBytes limits the encoded message size; zero means unlimited
func (s *Service) SetMaxMessageBytes(n int) {
	if n >= 0 {
		s.maxMessageBytes = n
	}
}

// Protocol returns the underlying BB84 protocol
func (s *Service) Protocol() *BB84Protocol {
	return s.protocol
}

// Encrypt derives a fresh sifted key covering message and XORs the two.
// An empty or whitespace-only message yields qkd.ErrEmptyInput.
func (s *Service) Encrypt(message string) (*qkd.EncryptResult, error) {
	req := qkd.EncryptRequest{Message: message}
	if req.IsEmpty() {
		return nil, qkd.ErrEmptyInput
	}

	data := []byte(message)
	if s.maxMessageBytes > 0 && len(data) > s.maxMessageBytes {
		return nil, &qkd.MessageTooLongError{Bytes: len(data), MaxBytes: s.maxMessageBytes}
	}

	messageBits := bitcodec.BytesToBits(data)

	exchange, err := s.protocol.DeriveKey(len(messageBits))
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	cipherBits, err := crypto.Encrypt(messageBits, exchange.Key)
	if err != nil {
		return nil, &qkd.InvariantError{Message: err.Error()}
	}

	usable := bitcodec.FullBytes(exchange.Sifted)

	return &qkd.EncryptResult{
		ExchangeID:         uuid.New(),
		SiftingStats:       exchange.Stats,
		UsableKeyBytes:     len(usable) / 8,
		KeyUsedBits:        bitcodec.GroupInEights(exchange.Key),
		CiphertextBits:     bitcodec.GroupInEights(cipherBits),
		FullSiftedKeyBits:  bitcodec.GroupInEights(usable),
		KeyFingerprint:     crypto.Fingerprint(bitcodec.BitsToBytes(exchange.Key)),
		SenderBitsDebug:    bitcodec.FormatBits(exchange.Alice.Bits),
		SenderBasesDebug:   bitcodec.FormatBases(exchange.Alice.Bases),
		ReceiverBasesDebug: bitcodec.FormatBases(exchange.Bob.Bases),
	}, nil
}

// Decrypt parses ciphertext and key from 0/1 text and reverses the XOR.
// Checks run in order: empty input, invalid characters (ciphertext first),
// length mismatch, byte alignment, text encoding.
func (s *Service) Decrypt(ciphertextText, keyText string) (*qkd.DecryptResult, error) {
	req := qkd.DecryptRequest{Ciphertext: ciphertextText, Key: keyText}
	if req.IsEmpty() {
		return nil, qkd.ErrEmptyInput
	}

	if !bitcodec.IsValidBinaryText(req.Ciphertext) {
		return nil, &qkd.InvalidCharactersError{Which: qkd.FieldCiphertext}
	}
	if !bitcodec.IsValidBinaryText(req.Key) {
		return nil, &qkd.InvalidCharactersError{Which: qkd.FieldKey}
	}

	cipherBits, err := bitcodec.ParseBinaryText(req.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ciphertext: %w", err)
	}

	keyBits, err := bitcodec.ParseBinaryText(req.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key: %w", err)
	}

	if len(cipherBits) != len(keyBits) {
		return nil, &qkd.LengthMismatchError{CiphertextBits: len(cipherBits), KeyBits: len(keyBits)}
	}

	if len(cipherBits)%8 != 0 {
		return nil, &qkd.NotByteAlignedError{BitLength: len(cipherBits)}
	}

	plainBits, err := crypto.Decrypt(cipherBits, keyBits)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.DecodeText(bitcodec.BitsToBytes(plainBits))
	if err != nil {
		return nil, err
	}

	return &qkd.DecryptResult{Plaintext: plaintext}, nil
}

// Sift runs a standalone exchange of rawCount raw bits and reports sifting
// statistics without deriving a key
func (s *Service) Sift(rawCount, targetBits int) (*qkd.SiftingStats, error) {
	if rawCount <= 0 {
		return nil, fmt.Errorf("raw bit count must be positive, got %d", rawCount)
	}
	if rawCount > MaxRawBits {
		return nil, &qkd.ExchangeTooLargeError{TargetBits: rawCount, OversampleFactor: 1, MaxRawBits: MaxRawBits}
	}

	alice, err := s.protocol.AliceGenerate(rawCount)
	if err != nil {
		return nil, err
	}

	bob, err := s.protocol.BobChooseBases(rawCount)
	if err != nil {
		return nil, err
	}

	sifted, err := s.protocol.BasisReconciliation(alice, bob)
	if err != nil {
		return nil, err
	}

	return &qkd.SiftingStats{
		RawCount:             rawCount,
		SiftedCount:          len(sifted.Key),
		PercentKept:          float64(len(sifted.Key)) / float64(rawCount),
		ShortfallProbability: ShortfallProbability(rawCount, targetBits),
	}, nil
}
