// Package cryptox implements the client-side envelope encryption used for
// uploaded files: a fresh 256-bit AES-GCM key per file, a random 12-byte IV
// per encryption, and RSA-OAEP (SHA-256) wrapping of the raw key under the
// KMS public key.
//
// The sealed payload layout is iv || ciphertext+tag, matching what the
// download path expects: the first 12 bytes are the IV, the rest is the
// GCM output including the authentication tag. Callers transport-encode
// sealed payloads and wrapped keys with base64.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/mayankramina/secure-file-share/internal/common"
)

const (
	// KeySize is the file key length in bytes (AES-256).
	KeySize = 32
	// IVSize is the GCM IV length in bytes.
	IVSize = 12
)

// GenerateFileKey returns a fresh random 256-bit symmetric key. One key is
// generated per file, which also guarantees (key, IV) pairs are never reused.
// The caller owns the key and must Wipe it when done.
func GenerateFileKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating file key: %w", err)
	}
	return key, nil
}

// EncryptPayload encrypts plaintext with AES-256-GCM under key, using a
// random 12-byte IV generated per call. The result is iv || ciphertext+tag.
func EncryptPayload(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generating iv: %w", err)
	}

	// Seal appends to iv, producing the iv-prefixed layout directly.
	return aesgcm.Seal(iv, iv, plaintext, nil), nil
}

// DecryptPayload opens a sealed payload produced by EncryptPayload. It fails
// with common.ErrIntegrity when the tag does not verify (tampered data or a
// wrong key) and never returns partial plaintext.
func DecryptPayload(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < IVSize {
		return nil, fmt.Errorf("%w: payload shorter than iv", common.ErrIntegrity)
	}
	iv, ciphertext := sealed[:IVSize], sealed[IVSize:]

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	return plaintext, nil
}

// WrapKey encrypts the raw key bytes under the recipient's RSA public key
// with OAEP/SHA-256 and returns the result base64-encoded, ready for storage
// alongside the ciphertext.
func WrapKey(key []byte, pub *rsa.PublicKey) (string, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return "", fmt.Errorf("wrapping key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapKey decrypts a base64 wrapped key with the given RSA private key.
// It is used by the KMS, which custodies the private key; clients never call
// it directly. Malformed input yields common.ErrKeyFormat.
func UnwrapKey(wrappedB64 string, priv *rsa.PrivateKey) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(wrappedB64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64", common.ErrKeyFormat)
	}
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: oaep decrypt failed", common.ErrKeyFormat)
	}
	return key, nil
}

// ParsePublicKey parses a PEM-encoded PKIX RSA public key as served by the
// KMS. Garbage input yields common.ErrKeyFormat.
func ParsePublicKey(pemKey []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block", common.ErrKeyFormat)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyFormat, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an rsa key", common.ErrKeyFormat)
	}
	return rsaPub, nil
}

// RandHex returns a random hex string built from size random bytes, so the
// result carries size*8 bits of entropy and is 2*size characters long.
// Used for share-link tokens.
func RandHex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Wipe overwrites the byte slice with zeros. Callers use it to clear key
// material from memory on every exit path. A nil slice is a no-op.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyFormat, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyFormat, err)
	}
	return aesgcm, nil
}
