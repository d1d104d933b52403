package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/tyler-smith/go-bip39"
)

// Account is an ed25519 key pair and the address it controls.
type Account struct {
	Address    address.Address
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewMnemonic returns a fresh 24-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %v", err)
	}
	return bip39.NewMnemonic(entropy)
}

// AccountFromMnemonic derives the account at index from a bip39 mnemonic.
// The ed25519 seed is the first 32 bytes of the bip39 seed salted with the index.
func AccountFromMnemonic(mnemonic string, index uint32) (Account, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, fmt.Sprintf("sandnet/%d", index))
	if err != nil {
		return Account{}, fmt.Errorf("invalid mnemonic: %v", err)
	}
	return AccountFromSeed(seed[:ed25519.SeedSize])
}

// AccountFromSeed builds an account from a 32-byte ed25519 seed.
func AccountFromSeed(seed []byte) (Account, error) {
	if len(seed) != ed25519.SeedSize {
		return Account{}, fmt.Errorf("seed should be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	sk := ed25519.NewKeyFromSeed(seed)
	pk := sk.Public().(ed25519.PublicKey)
	addr, err := address.FromPublicKey(pk)
	if err != nil {
		return Account{}, err
	}
	return Account{Address: addr, PublicKey: pk, PrivateKey: sk}, nil
}

// GenerateAccount creates a random account.
func GenerateAccount() (Account, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return Account{}, fmt.Errorf("failed to read random seed: %v", err)
	}
	return AccountFromSeed(seed)
}
