package crypto

import (
	"encoding/hex"

	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	"github.com/jaskrrish/qkd-otp/internal/qkd/quantum"
	"golang.org/x/crypto/sha3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// fingerprintBytes is the number of SHA3-256 digest bytes shown as a key fingerprint
const fingerprintBytes = 8

// Encrypt XORs message bits with an equally long key (one-time pad)
func Encrypt(message, key []quantum.Bit) ([]quantum.Bit, error) {
	return xorBits(message, key)
}

// Decrypt reverses Encrypt; XOR is its own inverse
func Decrypt(ciphertext, key []quantum.Bit) ([]quantum.Bit, error) {
	return xorBits(ciphertext, key)
}

func xorBits(data, key []quantum.Bit) ([]quantum.Bit, error) {
	if len(data) != len(key) {
		return nil, &qkd.LengthMismatchError{CiphertextBits: len(data), KeyBits: len(key)}
	}

	out := make([]quantum.Bit, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i]
	}
	return out, nil
}

// DecodeText decodes UTF-8 bytes, failing on any malformed sequence instead
// of substituting replacement characters
func DecodeText(data []byte) (string, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, data)
	if err != nil {
		return "", qkd.ErrInvalidEncoding
	}
	return string(out), nil
}

// Fingerprint returns a short hex SHA3-256 digest of key material so two
// parties can compare keys without reading them out
func Fingerprint(keyBytes []byte) string {
	sum := sha3.Sum256(keyBytes)
	return hex.EncodeToString(sum[:fingerprintBytes])
}
