// internal/utils/crypto.go
package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 64
	ivLength         = 16
	keyLength        = 32
	kdfIterations    = 100000
	minSecretLength  = 32
	licenseKeyGroups = 4
	licenseKeyGroup  = 4
	licenseCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrEncryptionKeyTooShort = fmt.Errorf("encryption key must be at least %d characters", minSecretLength)
	ErrDecrypt               = errors.New("failed to decrypt data")
)

// randReader is swapped in tests to exercise fallbacks.
var randReader io.Reader = rand.Reader

// Encryptor seals strings with AES-256-GCM under a key derived per call from a
// shared secret and a fresh salt. Output: hex(salt):hex(iv):hex(tag):hex(ciphertext).
type Encryptor struct {
	secret []byte
}

func NewEncryptor(secret string) (*Encryptor, error) {
	if len(secret) < minSecretLength {
		return nil, ErrEncryptionKeyTooShort
	}
	return &Encryptor{secret: []byte(secret)}, nil
}

func (e *Encryptor) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(e.secret, salt, kdfIterations, keyLength, sha512.New)
}

func (e *Encryptor) Encrypt(text string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	gcm, err := newGCM(e.deriveKey(salt))
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(text), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt fails closed: malformed input and failed tag checks both return ErrDecrypt.
func (e *Encryptor) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 4 {
		return "", ErrDecrypt
	}

	decoded := make([][]byte, len(parts))
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil {
			return "", ErrDecrypt
		}
		decoded[i] = b
	}
	salt, iv, tag, ciphertext := decoded[0], decoded[1], decoded[2], decoded[3]
	if len(salt) == 0 || len(iv) != ivLength {
		return "", ErrDecrypt
	}

	gcm, err := newGCM(e.deriveKey(salt))
	if err != nil {
		return "", ErrDecrypt
	}
	if len(tag) != gcm.Overhead() {
		return "", ErrDecrypt
	}

	plain, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return gcm, nil
}

// SecureCompare compares secrets in constant time. Unequal lengths return early,
// which only reveals the length.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func Hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func GenerateRandomString(length int, charset string) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(randReader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateLicenseKey returns XXXX-XXXX-XXXX-XXXX over [A-Z0-9]. If the random
// source fails it derives the key from the clock instead.
func GenerateLicenseKey() string {
	raw, err := GenerateRandomString(licenseKeyGroups*licenseKeyGroup, licenseCharset)
	if err != nil {
		raw = timestampLicenseChars(time.Now())
	}
	return formatLicenseKey(raw)
}

func timestampLicenseChars(now time.Time) string {
	raw := strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
	width := licenseKeyGroups * licenseKeyGroup
	if len(raw) > width {
		return raw[len(raw)-width:]
	}
	return strings.Repeat("0", width-len(raw)) + raw
}

func formatLicenseKey(raw string) string {
	groups := make([]string, 0, licenseKeyGroups)
	for i := 0; i < licenseKeyGroups; i++ {
		groups = append(groups, raw[i*licenseKeyGroup:(i+1)*licenseKeyGroup])
	}
	return strings.Join(groups, "-")
}
