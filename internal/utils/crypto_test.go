package utils

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	e, err := NewEncryptor(strings.Repeat("s", 32))
	require.NoError(t, err)
	return e
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := newTestEncryptor(t)

	for _, plain := range []string{"203.0.113.7", "", "ação çãõ 🎉", strings.Repeat("x", 4096)} {
		sealed, err := e.Encrypt(plain)
		require.NoError(t, err)
		assert.Len(t, strings.Split(sealed, ":"), 4)

		opened, err := e.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plain, opened)
	}
}

func TestEncryptUsesFreshSaltAndIV(t *testing.T) {
	e := newTestEncryptor(t)

	a, err := e.Encrypt("same input")
	require.NoError(t, err)
	b, err := e.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTampering(t *testing.T) {
	e := newTestEncryptor(t)
	sealed, err := e.Encrypt("192.168.0.10")
	require.NoError(t, err)
	parts := strings.Split(sealed, ":")

	flip := func(s string) string {
		last := s[len(s)-1]
		replacement := byte('0')
		if last == '0' {
			replacement = '1'
		}
		return s[:len(s)-1] + string(replacement)
	}

	cases := map[string]string{
		"ciphertext": strings.Join([]string{parts[0], parts[1], parts[2], flip(parts[3])}, ":"),
		"tag":        strings.Join([]string{parts[0], parts[1], flip(parts[2]), parts[3]}, ":"),
		"salt":       strings.Join([]string{flip(parts[0]), parts[1], parts[2], parts[3]}, ":"),
		"too few":    strings.Join(parts[:3], ":"),
		"too many":   sealed + ":00",
		"not hex":    strings.Join([]string{parts[0], parts[1], parts[2], "zz"}, ":"),
		"empty":      "",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Decrypt(input)
			assert.True(t, errors.Is(err, ErrDecrypt))
		})
	}
}

func TestDecryptWithDifferentSecretFails(t *testing.T) {
	sealed, err := newTestEncryptor(t).Encrypt("secret")
	require.NoError(t, err)

	other, err := NewEncryptor(strings.Repeat("o", 32))
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewEncryptorRejectsShortSecret(t *testing.T) {
	_, err := NewEncryptor("short")
	assert.ErrorIs(t, err, ErrEncryptionKeyTooShort)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("whsec_abc", "whsec_abc"))
	assert.False(t, SecureCompare("whsec_abc", "whsec_abd"))
	assert.False(t, SecureCompare("whsec_abc", "whsec_ab"))
	assert.False(t, SecureCompare("", "whsec_abc"))
	assert.True(t, SecureCompare("", ""))
}

func TestGenerateLicenseKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key := GenerateLicenseKey()
		assert.NoError(t, ValidateLicenseKey(key), key)
		seen[key] = true
	}
	assert.Len(t, seen, 200)
}

func TestGenerateLicenseKeyFallsBackToClock(t *testing.T) {
	original := randReader
	randReader = iotest.ErrReader(errors.New("entropy unavailable"))
	t.Cleanup(func() { randReader = original })

	key := GenerateLicenseKey()
	assert.NoError(t, ValidateLicenseKey(key), key)
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Len(t, Hash("abc"), 64)
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(16)
	require.NoError(t, err)
	b, err := GenerateSecureToken(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
