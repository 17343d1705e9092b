package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrPassphraseRequired is returned when the configured SSH key is
// passphrase-protected and no passphrase was supplied.
var ErrPassphraseRequired = errors.New("SSH key is encrypted - passphrase required")

// IsSSHKeyEncrypted checks if an SSH private key is encrypted without attempting to decrypt it
func IsSSHKeyEncrypted(keyPath string) (bool, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return false, fmt.Errorf("failed to read SSH key: %w", err)
	}

	_, err = ssh.ParsePrivateKey(keyData)
	if err == nil {
		return false, nil
	}

	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return true, nil
	}
	return false, fmt.Errorf("invalid SSH key: %w", err)
}

// LoadSSHSigner parses the private key at keyPath, decrypting it with
// passphrase when the key is protected.
func LoadSSHSigner(keyPath, passphrase string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err == nil {
		return signer, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key (wrong passphrase?): %w", err)
	}
	return signer, nil
}

// FindSSHKeys scans ~/.ssh for private keys usable for credential encryption,
// in preference order.
func FindSSHKeys() []string {
	sshDir := filepath.Join(GetHomeDir(), ".ssh")

	keyNames := []string{
		"llmkeyring_ed25519",
		"id_ed25519",
		"id_rsa",
	}

	var found []string
	for _, name := range keyNames {
		path := filepath.Join(sshDir, name)
		if isPrivateKey(path) {
			found = append(found, path)
		}
	}
	return found
}

func isPrivateKey(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	content := string(data)
	return strings.Contains(content, "BEGIN") && strings.Contains(content, "PRIVATE KEY")
}
