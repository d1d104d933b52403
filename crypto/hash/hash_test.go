package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestStringRoundTrip(t *testing.T) {
	d := Sum([]byte("sandnet"))
	require.Len(t, d.String(), 52)

	back, err := FromString(d.String())
	require.NoError(t, err)
	require.Equal(t, d, back)

	back, err = FromBase64(d.Base64())
	require.NoError(t, err)
	require.Equal(t, d, back)
}

func TestSumWithPrefix(t *testing.T) {
	require.Equal(t, Sum([]byte("TXabc")), SumWithPrefix("TX", []byte("abc")))
	require.NotEqual(t, Sum([]byte("abc")), SumWithPrefix("TX", []byte("abc")))
}

func TestFromBytesLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 31))
	require.Error(t, err)

	_, err = FromString("AAAA")
	require.Error(t, err)
}
