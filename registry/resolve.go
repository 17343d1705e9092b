package registry

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"llmkeyring/provider"
)

// minIDPrefix keeps short names like "kimi" from being read as id prefixes.
const minIDPrefix = 4

// Resolve finds a provider by exact id, unique id prefix, case-insensitive
// name, and finally the best fuzzy name match.
func (r *Registry) Resolve(query string) (provider.Provider, error) {
	return r.resolve(query, true)
}

// ResolveStrict is Resolve without the fuzzy step, for commands that change
// or delete stored data. A query that only matches fuzzily fails with
// ErrProviderNotFound and names the closest provider.
func (r *Registry) ResolveStrict(query string) (provider.Provider, error) {
	return r.resolve(query, false)
}

func (r *Registry) resolve(query string, allowFuzzy bool) (provider.Provider, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return provider.Provider{}, fmt.Errorf("%w: empty name", ErrProviderNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(q); i >= 0 {
		return r.providers[i].Clone(), nil
	}

	if len(q) >= minIDPrefix {
		match := -1
		for i, p := range r.providers {
			if strings.HasPrefix(strings.ToLower(p.ID), strings.ToLower(q)) {
				if match >= 0 {
					match = -1
					break
				}
				match = i
			}
		}
		if match >= 0 {
			return r.providers[match].Clone(), nil
		}
	}

	for _, p := range r.providers {
		if strings.EqualFold(p.Name, q) {
			return p.Clone(), nil
		}
	}

	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	matches := fuzzy.Find(q, names)
	switch {
	case len(matches) == 0:
		return provider.Provider{}, fmt.Errorf("%w: %s", ErrProviderNotFound, q)
	case !allowFuzzy:
		return provider.Provider{}, fmt.Errorf("%w: %s (did you mean %q?)", ErrProviderNotFound, q, names[matches[0].Index])
	}
	return r.providers[matches[0].Index].Clone(), nil
}
