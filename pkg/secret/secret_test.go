package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encoded, err := Encrypt("correct horse battery staple", "sk_live_merchant_secret")
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	plain, err := Decrypt("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.Equal(t, "sk_live_merchant_secret", plain)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	encoded, err := Encrypt("passphrase-a", "top-secret")
	require.NoError(t, err)

	_, err = Decrypt("passphrase-b", encoded)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestDecryptMalformedBlob(t *testing.T) {
	_, err := Decrypt("anything", "not-base64!!")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}
