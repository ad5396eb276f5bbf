package accounts

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

const (
	vaultSaltLength  = 16
	vaultNonceLength = 12
	vaultKeyLength   = 32
)

// Vault seals marketplace passwords at rest. The login flow needs the
// plaintext password back to fill the credential form, so this is symmetric
// sealing with a key derived from the configured secret, not hashing.
// Sealed format: salt || nonce || ciphertext.
type Vault struct {
	secret []byte
}

// NewVault creates a Vault from the configured secret.
func NewVault(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("[NewVault] vault secret is required")
	}
	return &Vault{secret: []byte(secret)}, nil
}

// Seal encrypts a plaintext password with a fresh salt and nonce.
func (v *Vault) Seal(password string) ([]byte, error) {
	salt := make([]byte, vaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "[Vault.Seal] rand.Read salt")
	}

	aead, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, vaultNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "[Vault.Seal] rand.Read nonce")
	}

	sealed := make([]byte, 0, vaultSaltLength+vaultNonceLength+len(password)+aead.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = aead.Seal(sealed, nonce, []byte(password), nil)
	return sealed, nil
}

// Open decrypts a sealed password.
func (v *Vault) Open(sealed []byte) (string, error) {
	if len(sealed) < vaultSaltLength+vaultNonceLength {
		return "", errors.New("[Vault.Open] sealed record too short")
	}

	salt := sealed[:vaultSaltLength]
	nonce := sealed[vaultSaltLength : vaultSaltLength+vaultNonceLength]
	ciphertext := sealed[vaultSaltLength+vaultNonceLength:]

	aead, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Wrap(err, "[Vault.Open] aead.Open")
	}
	return string(plaintext), nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(v.secret, salt, 1, 64*1024, 4, vaultKeyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "[Vault.aead] aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "[Vault.aead] cipher.NewGCM")
	}
	return aead, nil
}
