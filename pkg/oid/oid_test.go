package oid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// Scenario 7: "800eff40" -> 16 bytes (12 leading zeros, then 80 0e ff 40) -> "800eff40".
	encoded, err := Encode("800eff40")
	require.NoError(t, err)

	want := [16]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x80, 0x0e, 0xff, 0x40}
	assert.Equal(t, want, encoded)

	decoded, err := Decode(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, "800eff40", decoded)
}

func TestEncodeRejectsOverlong(t *testing.T) {
	_, err := Encode("0123456789abcdef0123456789abcdef0")
	assert.Error(t, err)
}

func TestEncodeRejectsOddLength(t *testing.T) {
	_, err := Encode("abc")
	assert.Error(t, err)
}

func TestEncodeRejectsNonHex(t *testing.T) {
	_, err := Encode("zz")
	assert.Error(t, err)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeFullWidthNoLeadingZero(t *testing.T) {
	full := make([]byte, 16)
	for i := range full {
		full[i] = byte(i + 1)
	}
	decoded, err := Decode(full)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestRoundTripProperty(t *testing.T) {
	cases := []string{"01", "ff", "deadbeef", "0123456789abcdef0123456789abcd"}
	for _, c := range cases {
		enc, err := Encode(c)
		require.NoError(t, err)
		dec, err := Decode(enc[:])
		require.NoError(t, err)
		assert.Equal(t, c, dec)
	}
}
