// Package registry owns the ordered provider list, the default provider and
// the API-key lifecycle, and persists every change as it happens.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"llmkeyring/i18n"
	"llmkeyring/provider"
	"llmkeyring/storage"
	"llmkeyring/transport"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrInvalidProvider  = errors.New("invalid provider")
)

const (
	keyProviders = "providers"
	keyDefaultID = "defaultProviderID"
)

// KV is the persistence collaborator. *storage.KVStore satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetMany(ctx context.Context, entries ...storage.Entry) error
}

// SecretStore is the secret store collaborator. *config.CredentialStore satisfies it.
type SecretStore interface {
	provider.SecretReader
	SaveSecret(ref, secret string) error
	DeleteSecret(ref string) error
	DeleteAllSecrets() error
}

// AdapterFactory builds the adapter for a kind.
type AdapterFactory func(kind provider.Kind, deps provider.Deps) (provider.Adapter, error)

type Options struct {
	Store     KV
	Secrets   SecretStore
	Transport transport.Getter
	Messages  i18n.Localizer
	// Timeout overrides every vendor timeout when positive.
	Timeout time.Duration
	Logger  *slog.Logger

	// Concurrency bounds TestMany and TestAll. Zero means one goroutine per
	// provider.
	Concurrency int

	NewAdapter AdapterFactory
	Now        func() time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	opts Options

	mu        sync.RWMutex
	providers []provider.Provider
	defaultID string
}

func New(opts Options) *Registry {
	if opts.Messages == nil {
		opts.Messages = i18n.English
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.NewAdapter == nil {
		opts.NewAdapter = provider.NewAdapter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{opts: opts}
}

// Load restores the provider list and default id. When nothing has been
// stored yet, the built-in templates are written and the first becomes default.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.opts.Store.Get(ctx, keyProviders)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return r.bootstrap(ctx)
	case err != nil:
		return fmt.Errorf("failed to load providers: %w", err)
	}

	var list []provider.Provider
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("failed to decode providers: %w", err)
	}
	if len(list) == 0 {
		return r.bootstrap(ctx)
	}
	for i := range list {
		list[i] = list[i].Clone()
	}
	r.providers = list

	r.defaultID = ""
	id, err := r.opts.Store.Get(ctx, keyDefaultID)
	switch {
	case err == nil:
		if r.indexOf(string(id)) >= 0 {
			r.defaultID = string(id)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to load default provider: %w", err)
	}

	r.opts.Logger.Debug("providers loaded", "count", len(r.providers), "default", r.defaultID)
	return nil
}

func (r *Registry) bootstrap(ctx context.Context) error {
	list := make([]provider.Provider, 0, len(templates))
	for _, t := range templates {
		list = append(list, t.Instantiate(r.opts.Messages))
	}
	r.providers = list
	r.defaultID = list[0].ID

	r.opts.Logger.Debug("bootstrapped built-in providers", "count", len(list))
	return r.persist(ctx)
}

// Providers returns a copy of the ordered list.
func (r *Registry) Providers() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Provider, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the provider with id.
func (r *Registry) Get(id string) (provider.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return provider.Provider{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return r.providers[i].Clone(), nil
}

// DefaultID is "" when no default is set.
func (r *Registry) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultID
}

// Default returns the default provider, if one is set.
func (r *Registry) Default() (provider.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(r.defaultID)
	if i < 0 {
		return provider.Provider{}, false
	}
	return r.providers[i].Clone(), true
}

// AddTemplate appends a provider built from the named template.
func (r *Registry) AddTemplate(ctx context.Context, name string) (provider.Provider, error) {
	t, err := LookupTemplate(name)
	if err != nil {
		return provider.Provider{}, err
	}
	return r.Add(ctx, t.Instantiate(r.opts.Messages))
}

// Add appends p. A missing id is generated; duplicate ids are rejected.
func (r *Registry) Add(ctx context.Context, p provider.Provider) (provider.Provider, error) {
	p = normalize(p)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := validate(p); err != nil {
		return provider.Provider{}, err
	}

	err := r.mutate(ctx, func() error {
		if r.indexOf(p.ID) >= 0 {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidProvider, p.ID)
		}
		r.providers = append(r.providers, p)
		return nil
	})
	if err != nil {
		return provider.Provider{}, err
	}
	r.opts.Logger.Debug("provider added", "id", p.ID, "kind", p.Kind)
	return p.Clone(), nil
}

// Update replaces the provider with the same id.
func (r *Registry) Update(ctx context.Context, p provider.Provider) error {
	p = normalize(p)
	if err := validate(p); err != nil {
		return err
	}
	return r.mutate(ctx, func() error {
		i := r.indexOf(p.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, p.ID)
		}
		r.providers[i] = p
		return nil
	})
}

// Delete removes the provider, clears the default if it pointed at it and
// deletes its stored key. Secret cleanup failures are logged, not returned.
func (r *Registry) Delete(ctx context.Context, id string) error {
	var removed provider.Provider
	err := r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		removed = r.providers[i]
		r.providers = slices.Delete(r.providers, i, i+1)
		if r.defaultID == id {
			r.defaultID = ""
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed.Auth.IsBearer() && r.opts.Secrets != nil {
		if err := r.opts.Secrets.DeleteSecret(removed.Auth.KeyRef); err != nil {
			r.opts.Logger.Warn("failed to delete secret for removed provider", "id", id, "key_ref", removed.Auth.KeyRef, "error", err)
		}
	}
	r.opts.Logger.Debug("provider deleted", "id", id)
	return nil
}

// Move places the provider at index, clamped to the list bounds.
func (r *Registry) Move(ctx context.Context, id string, index int) error {
	return r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		p := r.providers[i]
		r.providers = slices.Delete(r.providers, i, i+1)
		index = max(0, min(index, len(r.providers)))
		r.providers = slices.Insert(r.providers, index, p)
		return nil
	})
}

// SetDefault makes id the default provider. An empty id clears it.
func (r *Registry) SetDefault(ctx context.Context, id string) error {
	return r.mutate(ctx, func() error {
		if id != "" && r.indexOf(id) < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		r.defaultID = id
		return nil
	})
}

func (r *Registry) adapterFor(kind provider.Kind) (provider.Adapter, error) {
	return r.opts.NewAdapter(kind, provider.Deps{
		Secrets:   r.secretReader(),
		Transport: r.opts.Transport,
		Messages:  r.opts.Messages,
		Timeout:   r.opts.Timeout,
		Logger:    r.opts.Logger,
	})
}

// secretReader avoids wrapping a nil store in a non-nil interface.
func (r *Registry) secretReader() provider.SecretReader {
	if r.opts.Secrets == nil {
		return nil
	}
	return r.opts.Secrets
}

// Test runs a health check and records it as the provider's last test.
// The check runs without holding the registry lock.
func (r *Registry) Test(ctx context.Context, id string) (provider.TestResult, error) {
	p, err := r.Get(id)
	if err != nil {
		return provider.TestResult{}, err
	}

	adapter, err := r.adapterFor(p.Kind)
	if err != nil {
		return provider.TestResult{}, err
	}

	res := adapter.TestHealth(ctx, p)
	at := r.opts.Now()
	r.opts.Logger.Debug("provider tested", "id", id, "status", res.Status)

	err = r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			// Deleted while the check was running.
			return errSkipPersist
		}
		r.providers[i].LastTest = provider.LastTest{Status: res.Status, At: &at, Message: res.Message}
		return nil
	})
	if err != nil && !errors.Is(err, errSkipPersist) {
		return res, err
	}
	return res, nil
}

// TestMany tests ids concurrently, at most Options.Concurrency at a time.
// onResult, when non-nil, is called once per id as its check finishes and
// may be called from several goroutines. err is set when the check could
// not run, for example because the provider was deleted, or when its
// result could not be saved.
func (r *Registry) TestMany(ctx context.Context, ids []string, onResult func(id string, res provider.TestResult, err error)) {
	var g errgroup.Group
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			res, err := r.Test(ctx, id)
			if onResult != nil {
				onResult(id, res, err)
			}
			return nil
		})
	}
	g.Wait()
}

// TestAll runs TestMany over every enabled provider. The map holds each
// check that ran. Providers deleted before their check started are left
// out; any other failure is returned joined.
func (r *Registry) TestAll(ctx context.Context, onResult func(id string, res provider.TestResult, err error)) (map[string]provider.TestResult, error) {
	var ids []string
	for _, p := range r.Providers() {
		if p.Enabled {
			ids = append(ids, p.ID)
		}
	}

	var (
		mu      sync.Mutex
		results = make(map[string]provider.TestResult, len(ids))
		errs    []error
	)
	r.TestMany(ctx, ids, func(id string, res provider.TestResult, err error) {
		mu.Lock()
		switch {
		case err == nil:
			results[id] = res
		case !errors.Is(err, ErrProviderNotFound):
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
		mu.Unlock()
		if onResult != nil {
			onResult(id, res, err)
		}
	})
	return results, errors.Join(errs...)
}

// ListModels asks the provider's adapter for its models. Nothing is persisted.
func (r *Registry) ListModels(ctx context.Context, id string) (provider.ModelsResult, error) {
	p, err := r.Get(id)
	if err != nil {
		return provider.ModelsResult{}, err
	}
	adapter, err := r.adapterFor(p.Kind)
	if err != nil {
		return provider.ModelsResult{}, err
	}
	return adapter.ListModels(ctx, p), nil
}

// SaveAPIKey stores key under the provider's existing reference, or under a
// new prov_<UUID> reference, and switches the provider to bearer auth.
func (r *Registry) SaveAPIKey(ctx context.Context, id, key string) (provider.Provider, error) {
	if r.opts.Secrets == nil {
		return provider.Provider{}, fmt.Errorf("no secret store configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return provider.Provider{}, fmt.Errorf("API key cannot be empty")
	}

	p, err := r.Get(id)
	if err != nil {
		return provider.Provider{}, err
	}

	ref := p.Auth.KeyRef
	if !p.Auth.IsBearer() {
		ref = keyRefFor(p.ID)
	}
	if err := r.opts.Secrets.SaveSecret(ref, key); err != nil {
		return provider.Provider{}, fmt.Errorf("failed to save API key: %w", err)
	}

	var updated provider.Provider
	err = r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		r.providers[i].Auth = provider.BearerAuth(ref)
		updated = r.providers[i].Clone()
		return nil
	})
	if err != nil {
		return provider.Provider{}, err
	}
	r.opts.Logger.Debug("api key saved", "id", id, "key_ref", ref)
	return updated, nil
}

// RemoveAPIKey deletes the stored key and switches the provider to no auth.
// A secret store failure aborts before the provider is changed.
func (r *Registry) RemoveAPIKey(ctx context.Context, id string) (provider.Provider, error) {
	p, err := r.Get(id)
	if err != nil {
		return provider.Provider{}, err
	}

	if p.Auth.IsBearer() && r.opts.Secrets != nil {
		if err := r.opts.Secrets.DeleteSecret(p.Auth.KeyRef); err != nil {
			return provider.Provider{}, fmt.Errorf("failed to delete API key: %w", err)
		}
	}

	var updated provider.Provider
	err = r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		r.providers[i].Auth = provider.NoAuth()
		updated = r.providers[i].Clone()
		return nil
	})
	if err != nil {
		return provider.Provider{}, err
	}
	return updated, nil
}

// ClearAllAPIKeys deletes every stored secret, then sets every provider to no
// auth with an unknown last test.
func (r *Registry) ClearAllAPIKeys(ctx context.Context) error {
	if r.opts.Secrets != nil {
		if err := r.opts.Secrets.DeleteAllSecrets(); err != nil {
			return fmt.Errorf("failed to clear API keys: %w", err)
		}
	}

	return r.mutate(ctx, func() error {
		for i := range r.providers {
			r.providers[i].Auth = provider.NoAuth()
			r.providers[i].LastTest = provider.UnknownTest
		}
		return nil
	})
}

// SwitchMode flips an Aliyun provider between native and OpenAI-compatible.
// ok is false when the provider has no alternate mode.
func (r *Registry) SwitchMode(ctx context.Context, id string) (p provider.Provider, ok bool, err error) {
	return r.applyIf(ctx, id, func(p provider.Provider) (provider.Suggestion, bool) {
		return provider.AlternateFor(p)
	})
}

// ApplySuggestion sets kind and base from a pasted URL when the host is
// recognized. ok is false when nothing matched.
func (r *Registry) ApplySuggestion(ctx context.Context, id, rawURL string) (p provider.Provider, ok bool, err error) {
	return r.applyIf(ctx, id, func(provider.Provider) (provider.Suggestion, bool) {
		return provider.SuggestKindAndBase(rawURL)
	})
}

func (r *Registry) applyIf(ctx context.Context, id string, suggest func(provider.Provider) (provider.Suggestion, bool)) (provider.Provider, bool, error) {
	var (
		updated provider.Provider
		applied bool
	)
	err := r.mutate(ctx, func() error {
		i := r.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
		}
		s, ok := suggest(r.providers[i].Clone())
		if !ok {
			updated = r.providers[i].Clone()
			return errSkipPersist
		}
		r.providers[i].Kind = s.Kind
		r.providers[i].BaseURL = s.BaseURL
		updated = r.providers[i].Clone()
		applied = true
		return nil
	})
	if err != nil && !errors.Is(err, errSkipPersist) {
		return provider.Provider{}, false, err
	}
	return updated, applied, nil
}

var errSkipPersist = errors.New("nothing to persist")

// mutate runs fn under the write lock and persists the result. When fn or
// persistence fails, the in-memory state is restored.
func (r *Registry) mutate(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevProviders := make([]provider.Provider, len(r.providers))
	for i, p := range r.providers {
		prevProviders[i] = p.Clone()
	}
	prevDefault := r.defaultID

	restore := func() {
		r.providers = prevProviders
		r.defaultID = prevDefault
	}

	if err := fn(); err != nil {
		restore()
		return err
	}
	if err := r.persist(ctx); err != nil {
		restore()
		return err
	}
	return nil
}

// persist writes the list and default id in one transaction. Caller holds mu.
func (r *Registry) persist(ctx context.Context) error {
	data, err := json.Marshal(r.providers)
	if err != nil {
		return fmt.Errorf("failed to encode providers: %w", err)
	}

	def := storage.Entry{Key: keyDefaultID}
	if r.defaultID != "" {
		def.Value = []byte(r.defaultID)
	}

	if err := r.opts.Store.SetMany(ctx, storage.Entry{Key: keyProviders, Value: data}, def); err != nil {
		return fmt.Errorf("failed to persist providers: %w", err)
	}
	return nil
}

func (r *Registry) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.providers, func(p provider.Provider) bool { return p.ID == id })
}

func normalize(p provider.Provider) provider.Provider {
	p = p.Clone()
	p.Name = strings.TrimSpace(p.Name)
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	if p.LastTest.Status == "" {
		p.LastTest = provider.UnknownTest
	}
	if p.Auth.Type == "" {
		p.Auth = provider.NoAuth()
	}
	return p
}

func validate(p provider.Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProvider)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProvider, p.Kind)
	}
	switch p.Auth.Type {
	case provider.AuthNone:
	case provider.AuthBearer:
		if p.Auth.KeyRef == "" {
			return fmt.Errorf("%w: bearer auth needs a key reference", ErrInvalidProvider)
		}
	default:
		return fmt.Errorf("%w: unknown auth type %q", ErrInvalidProvider, p.Auth.Type)
	}
	return nil
}
