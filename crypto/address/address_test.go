package address

import (
	"crypto/ed25519"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/shared"
)

const zeroAddress = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"

func TestZeroAddressString(t *testing.T) {
	require.Equal(t, zeroAddress, ZeroAddress().String())

	a, err := FromString(zeroAddress)
	require.NoError(t, err)
	require.True(t, a.IsZero())
}

func TestFromStringKnownAddress(t *testing.T) {
	const receiver = "2FMLYJHYQWRHMFKRHKTKX5UNB5DGO65U57O3YVLWUJWKRE4YYJYC2CWWBY"
	a, err := FromString(receiver)
	require.NoError(t, err)
	require.Equal(t, receiver, a.String())
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	for i := 0; i < 64; i++ {
		pk, _, err := ed25519.GenerateKey(rng)
		require.NoError(t, err)

		a, err := FromPublicKey(pk)
		require.NoError(t, err)

		text := a.String()
		require.Len(t, text, EncodedLength)

		back, err := FromString(text)
		require.NoError(t, err)
		require.Equal(t, a, back)
		require.Equal(t, []byte(pk), back.Bytes())
	}
}

func TestMalformedAddresses(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"too short":      zeroAddress[:57],
		"too long":       zeroAddress + "A",
		"bad checksum":   zeroAddress[:57] + "A",
		"changed key":    "B" + zeroAddress[1:],
		"not base32":     strings.Repeat("1", EncodedLength),
		"lowercase":      strings.ToLower(zeroAddress),
		"non canonical":  zeroAddress[:57] + "R",
		"hex public key": strings.Repeat("ab", 29),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := FromString(input)
			require.Error(t, err)
			require.ErrorIs(t, err, shared.ErrInvalidFormat)
			require.True(t, a.IsZero(), "a failed parse must not return a partial address")
			require.False(t, Validate(input))
		})
	}
}

func TestBech32RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	pk, _, err := ed25519.GenerateKey(rng)
	require.NoError(t, err)
	a, err := FromPublicKey(pk)
	require.NoError(t, err)

	text, err := a.Bech32()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "algo1"))

	back, err := FromBech32(text)
	require.NoError(t, err)
	require.Equal(t, a, back)

	viaAny, err := ParseAny(text)
	require.NoError(t, err)
	require.Equal(t, a, viaAny)

	viaAny, err = ParseAny(a.String())
	require.NoError(t, err)
	require.Equal(t, a, viaAny)
}

func TestFromBech32WrongPrefix(t *testing.T) {
	_, err := FromBech32("tl1rn5evt8jyynflgzq32plvrrgtve6zmu8ze4dvh")
	require.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestFromPublicKeyLength(t *testing.T) {
	_, err := FromPublicKey(make([]byte, 31))
	require.ErrorIs(t, err, shared.ErrInvalidFormat)
}
