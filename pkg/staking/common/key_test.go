package common

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_PublicAndPrivate(t *testing.T) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	for _, tc := range []struct {
		value    []byte
		isPublic bool
	}{
		{publicKey, true},
		{privateKey, false},
	} {
		fromBytes, err := NewKeyFromBytes(tc.value)
		require.NoError(t, err)

		fromString, err := NewKeyFromString(base58.Encode(tc.value))
		require.NoError(t, err)

		for _, key := range []*Key{fromBytes, fromString} {
			assert.Equal(t, tc.isPublic, key.IsPublic())
			assert.EqualValues(t, tc.value, key.ToBytes())
			assert.Equal(t, base58.Encode(tc.value), key.ToBase58())
		}
		assert.True(t, fromBytes.Equals(fromString))
	}
}

func TestKey_Invalid(t *testing.T) {
	_, err := NewKeyFromString("invalid-key")
	assert.Error(t, err)

	_, err = NewKeyFromBytes([]byte("invalid-key"))
	assert.Error(t, err)

	var nilKey *Key
	assert.Error(t, nilKey.Validate())
	assert.True(t, nilKey.Equals(nil))
}
