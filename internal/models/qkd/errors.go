package qkd

import (
	"errors"
	"fmt"
)

// Error codes reported to API and CLI clients
const (
	CodeEmptyInput        = "empty_input"
	CodeKeyTooShort       = "key_too_short"
	CodeInvalidCharacters = "invalid_characters"
	CodeLengthMismatch    = "length_mismatch"
	CodeNotByteAligned    = "not_byte_aligned"
	CodeInvalidEncoding   = "invalid_encoding"
	CodeFormat            = "format_error"
	CodeMessageTooLong    = "message_too_long"
	CodeExchangeTooLarge  = "exchange_too_large"
	CodeInternal          = "internal_error"
)

// Field names a user-supplied bit string
type Field string

const (
	FieldCiphertext Field = "ciphertext"
	FieldKey        Field = "key"
)

// Coder is implemented by every error in this package
type Coder interface {
	Code() string
}

// QKDError is a sentinel error with a stable code
type QKDError struct {
	code    string
	Message string
}

func (e *QKDError) Error() string {
	return e.Message
}

// Code returns the machine-readable error code
func (e *QKDError) Code() string {
	return e.code
}

var (
	ErrEmptyInput      = &QKDError{CodeEmptyInput, "input is empty"}
	ErrInvalidEncoding = &QKDError{CodeInvalidEncoding, "decrypted bytes are not valid UTF-8 text"}
)

// KeyTooShortError reports a sifted key that cannot cover the message.
// It is a probabilistic shortfall: retry with a shorter message or a larger
// oversample factor.
type KeyTooShortError struct {
	NeededBits int `json:"needed_bits"`
	GotBits    int `json:"got_bits"`
}

func (e *KeyTooShortError) Error() string {
	return fmt.Sprintf("sifted key too short: need %d bits, got %d bits", e.NeededBits, e.GotBits)
}

func (e *KeyTooShortError) Code() string { return CodeKeyTooShort }

// InvalidCharactersError reports a bit string containing anything other
// than '0', '1' or whitespace
type InvalidCharactersError struct {
	Which Field `json:"which"`
}

func (e *InvalidCharactersError) Error() string {
	return fmt.Sprintf("%s may only contain 0, 1 and whitespace", e.Which)
}

func (e *InvalidCharactersError) Code() string { return CodeInvalidCharacters }

// LengthMismatchError reports operands of different bit lengths.
// CiphertextBits is the length of the data operand (message or ciphertext).
type LengthMismatchError struct {
	CiphertextBits int `json:"ciphertext_bits"`
	KeyBits        int `json:"key_bits"`
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch: ciphertext has %d bits, key has %d bits", e.CiphertextBits, e.KeyBits)
}

func (e *LengthMismatchError) Code() string { return CodeLengthMismatch }

// NotByteAlignedError reports a bit length that is not a multiple of 8
type NotByteAlignedError struct {
	BitLength int `json:"bit_length"`
}

func (e *NotByteAlignedError) Error() string {
	return fmt.Sprintf("bit length %d is not a multiple of 8", e.BitLength)
}

func (e *NotByteAlignedError) Code() string { return CodeNotByteAligned }

// FormatError reports a non-binary character reaching the parser
type FormatError struct {
	Char     rune `json:"char"`
	Position int  `json:"position"`
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid binary digit %q at position %d", e.Char, e.Position)
}

func (e *FormatError) Code() string { return CodeFormat }

// MessageTooLongError reports a message exceeding the configured limit
type MessageTooLongError struct {
	Bytes    int `json:"bytes"`
	MaxBytes int `json:"max_bytes"`
}

func (e *MessageTooLongError) Error() string {
	return fmt.Sprintf("message is %d bytes, maximum is %d", e.Bytes, e.MaxBytes)
}

func (e *MessageTooLongError) Code() string { return CodeMessageTooLong }

// ExchangeTooLargeError reports a raw exchange that would exceed MaxRawBits.
// TargetBits times OversampleFactor is the raw count that was asked for.
type ExchangeTooLargeError struct {
	TargetBits       int `json:"target_bits"`
	OversampleFactor int `json:"oversample_factor"`
	MaxRawBits       int `json:"max_raw_bits"`
}

func (e *ExchangeTooLargeError) Error() string {
	return fmt.Sprintf("exchange of %d bits at oversample factor %d exceeds %d raw bits",
		e.TargetBits, e.OversampleFactor, e.MaxRawBits)
}

func (e *ExchangeTooLargeError) Code() string { return CodeExchangeTooLarge }

// InvariantError signals a broken contract between internal components.
// It is a defect, not a user-facing condition.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Message
}

func (e *InvariantError) Code() string { return CodeInternal }

// ErrorCode returns the code of the first Coder in err's chain,
// or CodeInternal
func ErrorCode(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeInternal
}
