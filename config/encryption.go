package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/ssh"
)

// sealedMagic prefixes every file written by a Sealer.
var sealedMagic = []byte("LKR1")

const keyDerivationMessage = "llmkeyring-credential-key-derivation-v1"

// ErrNotSealed is returned by Open when the input lacks the sealed file header.
var ErrNotSealed = errors.New("data is not an llmkeyring sealed file")

// Sealer encrypts the credential file with AES-256-GCM under a key derived
// from an SSH signature. The same SSH key always yields the same AES key.
type Sealer struct {
	aesKey []byte
}

// NewSealer loads the SSH key and derives the AES key from it.
// ErrPassphraseRequired is returned for protected keys opened without a passphrase.
func NewSealer(keyPath, passphrase string) (*Sealer, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("ssh_key security method needs [security] ssh_key_path")
	}

	signer, err := LoadSSHSigner(keyPath, passphrase)
	if err != nil {
		return nil, err
	}

	key, err := DeriveAESKeyFromSSH(signer)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}
	DebugLog.Debug("credential sealer ready", "key_type", signer.PublicKey().Type())
	return &Sealer{aesKey: key}, nil
}

// Seal returns magic || nonce || ciphertext+tag.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(s.aesKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealedMagic)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, sealedMagic) {
		return nil, ErrNotSealed
	}
	sealed = sealed[len(sealedMagic):]

	gcm, err := newGCM(s.aesKey)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (different SSH key?): %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// DeriveAESKeyFromSSH hashes the signature of a fixed message into a 32-byte key.
// ECDSA signatures are randomized, so ECDSA keys are rejected.
func DeriveAESKeyFromSSH(signer ssh.Signer) ([]byte, error) {
	if keyType := signer.PublicKey().Type(); strings.HasPrefix(keyType, "ecdsa-") {
		return nil, fmt.Errorf("%s keys produce non-deterministic signatures; use ed25519 or rsa", keyType)
	}

	signature, err := signer.Sign(rand.Reader, []byte(keyDerivationMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	hash := sha256.Sum256(signature.Blob)
	return hash[:], nil
}
