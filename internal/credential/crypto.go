package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// encPrefix tags encrypted values so plaintext legacy rows can be
	// told apart and passed through.
	encPrefix = "enc:v1"

	gcmNonceSize = 12
	gcmTagSize   = 16
)

// ErrMalformedCiphertext means a stored value carries the encryption prefix
// but does not parse.
var ErrMalformedCiphertext = errors.New("encrypted credential has an invalid format")

// Cipher encrypts and decrypts credential secrets with AES-256-GCM. The key
// is derived from a configured passphrase by SHA-256.
type Cipher struct {
	key []byte
}

// NewCipher derives a cipher from the passphrase. Short passphrases are
// rejected outright rather than silently weakening the key.
func NewCipher(passphrase string) (*Cipher, error) {
	if len(strings.TrimSpace(passphrase)) < 16 {
		return nil, errors.New("credential passphrase must be at least 16 characters")
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Cipher{key: sum[:]}, nil
}

// Encrypt seals a secret as "enc:v1:<nonce>:<tag>:<ciphertext>" with each
// part hex-encoded. Empty input is returned as-is.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating gcm: %w", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	return fmt.Sprintf("%s:%s:%s:%s",
		encPrefix,
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// Decrypt opens a value produced by Encrypt. Values without the encryption
// prefix are legacy plaintext and pass through unchanged.
func (c *Cipher) Decrypt(stored string) (string, error) {
	if stored == "" || !strings.HasPrefix(stored, encPrefix+":") {
		return stored, nil
	}

	parts := strings.Split(stored, ":")
	if len(parts) != 5 {
		return "", ErrMalformedCiphertext
	}

	nonce, err := hex.DecodeString(parts[2])
	if err != nil || len(nonce) != gcmNonceSize {
		return "", ErrMalformedCiphertext
	}
	tag, err := hex.DecodeString(parts[3])
	if err != nil || len(tag) != gcmTagSize {
		return "", ErrMalformedCiphertext
	}
	ciphertext, err := hex.DecodeString(parts[4])
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	return string(plaintext), nil
}
