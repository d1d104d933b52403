package address

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
)

const (
	// AddressSize is the length of the public key an address wraps.
	AddressSize = ed25519.PublicKeySize
	// ChecksumSize is the number of trailing hash bytes appended before encoding.
	ChecksumSize = 4
	// EncodedLength is the length of the base32 text form: 36 bytes -> 58 chars.
	EncodedLength = 58
	// Bech32HRP is the human-readable part of the alternate bech32 form.
	Bech32HRP = "algo"
)

// Address is an ed25519 public key identifying an account.
type Address [AddressSize]byte

// FromPublicKey wraps a raw ed25519 public key.
func FromPublicKey(pk ed25519.PublicKey) (Address, error) {
	var a Address
	if len(pk) != AddressSize {
		return a, fmt.Errorf("%w: public key should be %d bytes, got %d", shared.ErrInvalidFormat, AddressSize, len(pk))
	}
	copy(a[:], pk)
	return a, nil
}

// ZeroAddress is the all-zero address; in asset params it means "unset".
func ZeroAddress() Address {
	return Address{}
}

func checksum(pk []byte) []byte {
	h := hash.Sum(pk)
	return h[hash.DigestSize-ChecksumSize:]
}

// FromString parses the checksummed base32 text form.
func FromString(addr string) (Address, error) {
	var a Address
	if len(addr) != EncodedLength {
		return a, fmt.Errorf("%w: address should be %d characters, got %d", shared.ErrInvalidFormat, EncodedLength, len(addr))
	}

	decoded, err := hash.Base32.DecodeString(addr)
	if err != nil {
		return a, fmt.Errorf("%w: address is not base32: %v", shared.ErrInvalidFormat, err)
	}
	if len(decoded) != AddressSize+ChecksumSize {
		return a, fmt.Errorf("%w: decoded address has %d bytes", shared.ErrInvalidFormat, len(decoded))
	}

	pk, sum := decoded[:AddressSize], decoded[AddressSize:]
	if !bytes.Equal(checksum(pk), sum) {
		return a, fmt.Errorf("%w: address checksum mismatch", shared.ErrInvalidFormat)
	}
	copy(a[:], pk)

	// base32 ignores the unused low bits of the last character.
	if a.String() != addr {
		return Address{}, fmt.Errorf("%w: address is not canonically encoded", shared.ErrInvalidFormat)
	}
	return a, nil
}

// Validate reports whether addr parses.
func Validate(addr string) bool {
	_, err := FromString(addr)
	return err == nil
}

// String encodes the key and its checksum as unpadded base32.
func (a Address) String() string {
	buf := make([]byte, 0, AddressSize+ChecksumSize)
	buf = append(buf, a[:]...)
	buf = append(buf, checksum(a[:])...)
	return hash.Base32.EncodeToString(buf)
}

// Bech32 returns the alternate bech32 encoding with the "algo" prefix.
func (a Address) Bech32() (string, error) {
	words, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address to 5-bit words: %v", err)
	}
	return bech32.Encode(Bech32HRP, words)
}

// FromBech32 parses the alternate bech32 form.
func FromBech32(addr string) (Address, error) {
	var a Address
	hrp, words, err := bech32.Decode(addr)
	if err != nil {
		return a, fmt.Errorf("%w: failed to decode bech32 address: %v", shared.ErrInvalidFormat, err)
	}
	if hrp != Bech32HRP {
		return a, fmt.Errorf("%w: invalid address HRP: expected '%s', got '%s'", shared.ErrInvalidFormat, Bech32HRP, hrp)
	}
	raw, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		return a, fmt.Errorf("%w: failed to convert bech32 words: %v", shared.ErrInvalidFormat, err)
	}
	if len(raw) != AddressSize {
		return a, fmt.Errorf("%w: bech32 address should carry %d bytes, got %d", shared.ErrInvalidFormat, AddressSize, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// ParseAny accepts either the base32 or the bech32 form.
func ParseAny(addr string) (Address, error) {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(strings.ToLower(addr), Bech32HRP+"1") {
		return FromBech32(addr)
	}
	return FromString(addr)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) PublicKey() ed25519.PublicKey {
	pk := make([]byte, AddressSize)
	copy(pk, a[:])
	return pk
}

func (a Address) IsZero() bool {
	return a == Address{}
}
