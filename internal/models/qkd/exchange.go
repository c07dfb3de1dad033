package qkd

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// SiftingStats summarises one simulated BB84 exchange
type SiftingStats struct {
	RawCount             int     `json:"raw_count" yaml:"raw_count"`
	SiftedCount          int     `json:"sifted_count" yaml:"sifted_count"`
	PercentKept          float64 `json:"percent_kept" yaml:"percent_kept"`
	ShortfallProbability float64 `json:"shortfall_probability" yaml:"shortfall_probability"`
}

// EncryptRequest represents a request to encrypt a message with a fresh BB84 key
type EncryptRequest struct {
	Message string `json:"message"`
}

// DecryptRequest carries ciphertext and key as free-form 0/1 text
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext"`
	Key        string `json:"key"`
}

// EncryptResult is the display-ready outcome of a successful encryption
type EncryptResult struct {
	ExchangeID uuid.UUID `json:"exchange_id" yaml:"exchange_id"`

	SiftingStats `yaml:",inline"`

	UsableKeyBytes    int    `json:"usable_key_bytes" yaml:"usable_key_bytes"`
	KeyUsedBits       string `json:"key_used_bits" yaml:"key_used_bits"`
	CiphertextBits    string `json:"ciphertext_bits" yaml:"ciphertext_bits"`
	FullSiftedKeyBits string `json:"full_sifted_key_bits" yaml:"full_sifted_key_bits"`
	KeyFingerprint    string `json:"key_fingerprint" yaml:"key_fingerprint"`

	SenderBitsDebug    string `json:"sender_bits_debug" yaml:"sender_bits_debug"`
	SenderBasesDebug   string `json:"sender_bases_debug" yaml:"sender_bases_debug"`
	ReceiverBasesDebug string `json:"receiver_bases_debug" yaml:"receiver_bases_debug"`
}

// DecryptResult is the outcome of a successful decryption
type DecryptResult struct {
	Plaintext string `json:"plaintext" yaml:"plaintext"`
}

// ErrorResponse is the JSON body returned for any error result.
// Diagnostic fields are only set for the matching error code.
type ErrorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	NeededBits     *int   `json:"needed_bits,omitempty"`
	GotBits        *int   `json:"got_bits,omitempty"`
	Which          Field  `json:"which,omitempty"`
	CiphertextBits *int   `json:"ciphertext_bits,omitempty"`
	KeyBits        *int   `json:"key_bits,omitempty"`
	BitLength      *int   `json:"bit_length,omitempty"`
}

// IsEmpty reports whether the message is empty or whitespace-only
func (r *EncryptRequest) IsEmpty() bool {
	return strings.TrimSpace(r.Message) == ""
}

// IsEmpty reports whether either field is empty or whitespace-only
func (r *DecryptRequest) IsEmpty() bool {
	return strings.TrimSpace(r.Ciphertext) == "" || strings.TrimSpace(r.Key) == ""
}

// NewErrorResponse builds an ErrorResponse carrying err's diagnostics
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  ErrorCode(err),
	}

	var (
		tooShort   *KeyTooShortError
		invalid    *InvalidCharactersError
		mismatch   *LengthMismatchError
		notAligned *NotByteAlignedError
	)
	switch {
	case errors.As(err, &tooShort):
		resp.NeededBits = &tooShort.NeededBits
		resp.GotBits = &tooShort.GotBits
	case errors.As(err, &invalid):
		resp.Which = invalid.Which
	case errors.As(err, &mismatch):
		resp.CiphertextBits = &mismatch.CiphertextBits
		resp.KeyBits = &mismatch.KeyBits
	case errors.As(err, &notAligned):
		resp.BitLength = &notAligned.BitLength
	}

	return resp
}
