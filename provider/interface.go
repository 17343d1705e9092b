// Package provider holds the provider data model and the nine vendor
// adapters that check health and enumerate models for a configured provider.
//
// # Adapters
//
// Every kind maps to exactly one Adapter through NewAdapter. Adapters share a
// two-operation contract:
//   - TestHealth issues one GET (Ollama may try two candidate URLs) and
//     returns a TestResult.
//   - ListModels issues the same GET and decodes the vendor's model list.
//
// Both operations are total: every failure becomes a value-level result with
// a localized, hint-enriched message. Nothing is returned as an error and
// nothing panics past the adapter boundary.
//
// # Failure taxonomy
//
//   - invalid base URL: no network attempt
//   - credential required but not configured: no network attempt
//   - credential reference not found in the secret store: no network attempt
//   - transport failure (DNS, connect, timeout): redacted transport text
//   - HTTP status failure: "<hint>: <body>" or "<hint>"
//   - unparsable or empty model list: ERR_NO_MODELS_FOUND
//
// # Usage
//
//	a, err := provider.NewAdapter(p.Kind, provider.Deps{
//	    Secrets:   store,
//	    Transport: transport.New(logger),
//	    Messages:  i18n.New("system"),
//	})
//	if err != nil {
//	    // unknown kind
//	}
//	res := a.TestHealth(ctx, p)
package provider

import (
	"context"
	"log/slog"
	"time"

	"llmkeyring/i18n"
	"llmkeyring/transport"
)

// Adapter is the per-kind contract. Implementations never mutate the
// Provider they are given.
type Adapter interface {
	TestHealth(ctx context.Context, p Provider) TestResult
	ListModels(ctx context.Context, p Provider) ModelsResult
}

// SecretReader resolves a key reference to its secret. found is false when
// the reference does not exist in the store.
type SecretReader interface {
	ReadSecret(ref string) (secret string, found bool, err error)
}

// Deps are the collaborators an adapter needs.
type Deps struct {
	Secrets   SecretReader
	Transport transport.Getter
	Messages  i18n.Localizer

	// Timeout overrides every per-vendor timeout when positive.
	Timeout time.Duration

	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Transport == nil {
		d.Transport = transport.New(d.Logger)
	}
	if d.Messages == nil {
		d.Messages = i18n.English
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Unsupported provides the default ListModels for adapters that cannot
// enumerate models. Embed it to inherit the fallback.
type Unsupported struct {
	Messages i18n.Localizer
}

func (u Unsupported) ListModels(ctx context.Context, p Provider) ModelsResult {
	msgs := u.Messages
	if msgs == nil {
		msgs = i18n.English
	}
	return ModelsResult{Message: msgs.Text(i18n.ErrListModelsUnsupported)}
}
