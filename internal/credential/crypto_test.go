package credential_test

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusbot/tusbot/internal/credential"
)

const testPassphrase = "a-test-passphrase-long-enough"

func TestNewCipherRejectsShortPassphrases(t *testing.T) {
	_, err := credential.NewCipher("short")
	assert.Error(t, err)

	_, err = credential.NewCipher("                    ")
	assert.Error(t, err)

	_, err = credential.NewCipher(testPassphrase)
	assert.NoError(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt("s3cr3t-password")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encrypted, "enc:v1:"))
	assert.NotContains(t, encrypted, "s3cr3t-password")

	decrypted, err := cipher.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-password", decrypted)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	a, err := cipher.Encrypt("same-secret")
	require.NoError(t, err)
	b, err := cipher.Encrypt("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptPassesThroughLegacyPlaintext(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	got, err := cipher.Decrypt("legacy-plaintext")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext", got)

	got, err = cipher.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestDecryptRejectsMalformedCiphertext(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	_, err = cipher.Decrypt("enc:v1:only-three-parts")
	assert.ErrorIs(t, err, credential.ErrMalformedCiphertext)

	_, err = cipher.Decrypt("enc:v1:zz:zz:zz")
	assert.ErrorIs(t, err, credential.ErrMalformedCiphertext)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt("secret")
	require.NoError(t, err)

	// Flip the trailing ciphertext character.
	tampered := encrypted[:len(encrypted)-1]
	if strings.HasSuffix(encrypted, "0") {
		tampered += "1"
	} else {
		tampered += "0"
	}

	_, err = cipher.Decrypt(tampered)
	assert.Error(t, err)
}

func TestServiceEncryptsAtRest(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	repo := credential.NewMemoryRepository()
	svc := credential.NewService(repo, cipher, zerolog.Nop())
	ctx := t.Context()

	require.NoError(t, svc.Save(ctx, "U1", "maria", "plaintext-secret"))

	// The repository row never sees the plaintext.
	stored, err := repo.Get(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Secret, "enc:v1:"))
	assert.NotContains(t, stored.Secret, "plaintext-secret")

	// The service hands back plaintext only on demand.
	cred, err := svc.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "maria", cred.Username)
	assert.Equal(t, "plaintext-secret", cred.Secret)
}

func TestServiceGetMissing(t *testing.T) {
	cipher, err := credential.NewCipher(testPassphrase)
	require.NoError(t, err)

	svc := credential.NewService(credential.NewMemoryRepository(), cipher, zerolog.Nop())

	_, err = svc.Get(t.Context(), "nobody")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}
