package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines the credential storage method
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// ParseSecurityMethod accepts the [security] method values. Empty means plaintext.
func ParseSecurityMethod(s string) (SecurityMethod, error) {
	switch SecurityMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", SecurityPlainText:
		return SecurityPlainText, nil
	case SecuritySSHKey:
		return SecuritySSHKey, nil
	default:
		return "", fmt.Errorf("unknown security method: %q", s)
	}
}

const (
	// PrimaryService names the namespace new secrets are written to.
	PrimaryService = "LLMKeyring"
	// LegacyService names the namespace written under the previous product name.
	// It is read as a fallback and cleaned up on delete.
	LegacyService = "LLMManager"
)

// CredentialStore keeps API keys by reference in two namespaces on disk.
// The primary namespace is stored according to the security method; the
// legacy namespace is a plaintext TOML file that is only read and pruned.
// Every mutation is written through immediately.
type CredentialStore struct {
	mu         sync.Mutex
	method     SecurityMethod
	dataDir    string
	sshKeyPath string
	passphrase string
	sealer     *Sealer

	primary *namespace
	legacy  *namespace
}

// NewCredentialStore creates a credential store rooted at dataDir.
// Nothing is read until the first operation.
func NewCredentialStore(method SecurityMethod, dataDir, sshKeyPath string) *CredentialStore {
	c := &CredentialStore{
		method:     method,
		dataDir:    dataDir,
		sshKeyPath: sshKeyPath,
	}

	var primaryFile secretFile
	switch method {
	case SecuritySSHKey:
		primaryFile = &sealedFile{path: encryptedCredentialsPath(dataDir), sealer: c.getSealer}
	default:
		primaryFile = &tomlFile{path: credentialsPath(dataDir), table: PrimaryService}
	}

	c.primary = &namespace{service: PrimaryService, file: primaryFile}
	c.legacy = &namespace{
		service: LegacyService,
		file:    &tomlFile{path: legacyCredentialsPath(dataDir), table: LegacyService},
	}
	return c
}

// Method returns the configured security method
func (c *CredentialStore) Method() SecurityMethod {
	return c.method
}

// SetPassphrase sets the passphrase for decrypting the SSH key and forces
// the sealer to be rebuilt on next use.
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passphrase = passphrase
	c.sealer = nil
}

// Unlock loads the primary namespace eagerly, surfacing ErrPassphraseRequired
// or decryption failures before any command runs.
func (c *CredentialStore) Unlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primary.ensure()
}

// SaveSecret stores secret under ref in the primary namespace, replacing any
// previous value.
func (c *CredentialStore) SaveSecret(ref, secret string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref == "" {
		return fmt.Errorf("secret reference cannot be empty")
	}
	if err := c.primary.ensure(); err != nil {
		return err
	}

	prev, had := c.primary.secrets[ref]
	delete(c.primary.secrets, ref)
	c.primary.secrets[ref] = secret

	if err := c.primary.persist(); err != nil {
		if had {
			c.primary.secrets[ref] = prev
		} else {
			delete(c.primary.secrets, ref)
		}
		return err
	}

	DebugLog.Debug("secret saved", "key_ref", ref, "service", PrimaryService)
	return nil
}

// ReadSecret looks ref up in the primary namespace, then in the legacy one.
// A miss in both is ("", false, nil).
func (c *CredentialStore) ReadSecret(ref string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.primary.ensure(); err != nil {
		return "", false, err
	}
	if v, ok := c.primary.secrets[ref]; ok {
		return v, true, nil
	}

	c.loadLegacy()
	if v, ok := c.legacy.secrets[ref]; ok {
		DebugLog.Debug("secret found in legacy namespace", "key_ref", ref, "service", LegacyService)
		return v, true, nil
	}
	return "", false, nil
}

// DeleteSecret removes ref from both namespaces. A missing ref is not an
// error. Failures in the legacy namespace are logged and ignored.
func (c *CredentialStore) DeleteSecret(ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.primary.ensure(); err != nil {
		return err
	}
	if prev, ok := c.primary.secrets[ref]; ok {
		delete(c.primary.secrets, ref)
		if err := c.primary.persist(); err != nil {
			c.primary.secrets[ref] = prev
			return err
		}
		DebugLog.Debug("secret deleted", "key_ref", ref, "service", PrimaryService)
	}

	c.loadLegacy()
	if prev, ok := c.legacy.secrets[ref]; ok && !c.legacy.readOnly {
		delete(c.legacy.secrets, ref)
		if err := c.legacy.persist(); err != nil {
			c.legacy.secrets[ref] = prev
			DebugLog.Warn("failed to delete legacy secret", "key_ref", ref, "error", err)
		}
	}
	return nil
}

// DeleteAllSecrets empties both namespaces under the same error policy as DeleteSecret.
func (c *CredentialStore) DeleteAllSecrets() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.primary.ensure(); err != nil {
		return err
	}
	if len(c.primary.secrets) > 0 {
		prev := c.primary.secrets
		c.primary.secrets = make(map[string]string)
		if err := c.primary.persist(); err != nil {
			c.primary.secrets = prev
			return err
		}
		DebugLog.Debug("all secrets deleted", "count", len(prev), "service", PrimaryService)
	}

	c.loadLegacy()
	if len(c.legacy.secrets) > 0 && !c.legacy.readOnly {
		prev := c.legacy.secrets
		c.legacy.secrets = make(map[string]string)
		if err := c.legacy.persist(); err != nil {
			c.legacy.secrets = prev
			DebugLog.Warn("failed to clear legacy secrets", "error", err)
		}
	}
	return nil
}

// loadLegacy never fails. An unreadable legacy file is treated as empty and
// left untouched on disk.
func (c *CredentialStore) loadLegacy() {
	if c.legacy.loaded {
		return
	}
	if err := c.legacy.ensure(); err != nil {
		DebugLog.Warn("ignoring unreadable legacy credentials", "error", err)
		c.legacy.secrets = make(map[string]string)
		c.legacy.loaded = true
		c.legacy.readOnly = true
	}
}

func (c *CredentialStore) getSealer() (*Sealer, error) {
	if c.sealer != nil {
		return c.sealer, nil
	}
	s, err := NewSealer(c.sshKeyPath, c.passphrase)
	if err != nil {
		return nil, err
	}
	c.sealer = s
	return s, nil
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func encryptedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

func legacyCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "llmmanager-credentials.toml")
}

// namespace is one service's ref → secret map plus its backing file.
type namespace struct {
	service  string
	file     secretFile
	secrets  map[string]string
	loaded   bool
	readOnly bool
}

func (n *namespace) ensure() error {
	if n.loaded {
		return nil
	}
	secrets, err := n.file.load()
	if err != nil {
		return fmt.Errorf("failed to load %s credentials: %w", n.service, err)
	}
	if secrets == nil {
		secrets = make(map[string]string)
	}
	n.secrets = secrets
	n.loaded = true
	return nil
}

func (n *namespace) persist() error {
	if err := n.file.save(n.secrets); err != nil {
		return fmt.Errorf("failed to save %s credentials: %w", n.service, err)
	}
	return nil
}

type secretFile interface {
	load() (map[string]string, error)
	save(map[string]string) error
}

// ===== Plain Text Storage =====

// tomlFile stores one table of ref = "secret" pairs, created 0600.
type tomlFile struct {
	path  string
	table string
}

func (f *tomlFile) load() (map[string]string, error) {
	if !FileExists(f.path) {
		return nil, nil
	}

	var doc map[string]map[string]string
	if _, err := toml.DecodeFile(f.path, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(f.path), err)
	}
	return doc[f.table], nil
}

func (f *tomlFile) save(secrets map[string]string) error {
	doc := map[string]map[string]string{f.table: secrets}
	if err := encodeTOMLFile(f.path, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

// ===== SSH Key Encrypted Storage =====

type sealedDocument struct {
	Service string            `json:"service"`
	Secrets map[string]string `json:"secrets"`
}

// sealedFile stores a JSON document encrypted by a Sealer.
type sealedFile struct {
	path   string
	sealer func() (*Sealer, error)
}

func (f *sealedFile) load() (map[string]string, error) {
	if !FileExists(f.path) {
		return nil, nil
	}

	s, err := f.sealer()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted credentials: %w", err)
	}
	plain, err := s.Open(data)
	if err != nil {
		return nil, err
	}

	var doc sealedDocument
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	return doc.Secrets, nil
}

func (f *sealedFile) save(secrets map[string]string) error {
	s, err := f.sealer()
	if err != nil {
		return err
	}

	plain, err := json.Marshal(sealedDocument{Service: PrimaryService, Secrets: secrets})
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	sealed, err := s.Seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return writeFile0600(f.path, sealed)
}
