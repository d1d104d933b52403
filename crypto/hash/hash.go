package hash

import (
	"crypto/sha512"
	"encoding/base32"
	"encoding/base64"
	"fmt"
)

const DigestSize = sha512.Size256

// Digest is a sha512/256 hash, the ledger's hash function for ids and checksums.
type Digest [DigestSize]byte

// Base32 encoding without padding, used for transaction ids and addresses.
var Base32 = base32.StdEncoding.WithPadding(base32.NoPadding)

func Sum(data []byte) Digest {
	return Digest(sha512.Sum512_256(data))
}

// SumWithPrefix hashes prefix ‖ data, the domain separation used for signed objects.
func SumWithPrefix(prefix string, data []byte) Digest {
	msg := make([]byte, 0, len(prefix)+len(data))
	msg = append(msg, prefix...)
	msg = append(msg, data...)
	return Sum(msg)
}

func FromBytes(data []byte) (Digest, error) {
	if len(data) != DigestSize {
		return Digest{}, fmt.Errorf("digest should be %d bytes, but it is %d bytes", DigestSize, len(data))
	}
	var d Digest
	copy(d[:], data)
	return d, nil
}

// FromBase64 decodes the form the ledger node uses for genesis hashes.
func FromBase64(str string) (Digest, error) {
	data, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return Digest{}, err
	}
	return FromBytes(data)
}

// FromString decodes the unpadded base32 form used for transaction ids.
func FromString(str string) (Digest, error) {
	data, err := Base32.DecodeString(str)
	if err != nil {
		return Digest{}, err
	}
	return FromBytes(data)
}

func (d Digest) String() string {
	return Base32.EncodeToString(d[:])
}

func (d Digest) Base64() string {
	return base64.StdEncoding.EncodeToString(d[:])
}

func (d Digest) Bytes() []byte {
	return d[:]
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}
