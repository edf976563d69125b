package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	return key
}

func TestNewVault_InvalidKey(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 16, 64} {
		v, err := NewVault(make([]byte, n))
		assert.Nil(t, v)
		assert.ErrorIs(t, err, ErrInvalidKey, "len %d", n)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key := validKey(t)

	got, err := ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = ParseKey("too-short")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple string", plaintext: "hello world"},
		{name: "empty string", plaintext: ""},
		{name: "access token", plaintext: "APP_USR-1234567890-XXXXXXXX"},
		{name: "long value", plaintext: string(make([]byte, 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sealed, err := v.Seal("owner", tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, sealed)

			opened, err := v.Open("owner", sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, opened)
		})
	}
}

func TestSeal_RandomNonce(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	a, err := v.Seal("owner", "same")
	require.NoError(t, err)
	b, err := v.Seal("owner", "same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_WrongOwnerFails(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	sealed, err := v.Seal(GatewayOwner(uuid.New(), "stripe"), "secret")
	require.NoError(t, err)

	_, err = v.Open(GatewayOwner(uuid.New(), "stripe"), sealed)
	assert.Error(t, err)
}

func TestOpen_InvalidCiphertext(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	for _, in := range []string{
		"!!!not-base64!!!",
		base64.StdEncoding.EncodeToString([]byte{}),
		base64.StdEncoding.EncodeToString([]byte("short")),
	} {
		got, err := v.Open("owner", in)
		require.Error(t, err)
		assert.Empty(t, got)
	}
}

func TestOpen_Tampered(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	sealed, err := v.Seal("owner", "original secret")
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	data[13] ^= 0xFF

	_, err = v.Open("owner", base64.StdEncoding.EncodeToString(data))
	assert.Error(t, err)
}

func TestCredentials_RoundTrip(t *testing.T) {
	t.Parallel()

	v, err := NewVault(validKey(t))
	require.NoError(t, err)

	companyID := uuid.New()
	creds := map[string]string{"access_token": "tok", "public_key": "pk"}

	sealed, err := v.SealCredentials(companyID, "mercadopago", creds)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "tok")

	got, err := v.OpenCredentials(companyID, "mercadopago", sealed)
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	_, err = v.OpenCredentials(companyID, "stripe", sealed)
	assert.Error(t, err, "credentials are bound to their provider")
}
