package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"llmkeyring/i18n"
	"llmkeyring/security"
	"llmkeyring/transport"
)

// profile is the per-vendor table of timeouts and hint keys.
type profile struct {
	kind          Kind
	healthTimeout time.Duration
	listTimeout   time.Duration

	// requiresAuth rejects providers without a bearer reference before any
	// network call, reporting authAbsentHint.
	requiresAuth   bool
	authAbsentHint i18n.Key

	authFailedHint i18n.Key // 401 and 403
	notFoundHint   i18n.Key // 404; empty means the generic HTTP code hint
	baseHint       i18n.Key // unusable base URL

	// footer is appended on its own line to every network failure message.
	footer i18n.Key
}

// request is one candidate GET.
type request struct {
	url     string
	headers map[string]string
}

// protocol is what differs between vendors: URL shape, credential
// placement and the model list envelope.
type protocol interface {
	profile() profile
	validBase(base *url.URL) bool
	requests(base *url.URL, secret string, extra map[string]string) []request
	decodeModels(body []byte) ([]string, error)
}

// adapter runs a protocol through the shared failure taxonomy.
type adapter struct {
	proto protocol
	deps  Deps
}

func (a *adapter) TestHealth(ctx context.Context, p Provider) TestResult {
	prof := a.proto.profile()
	reqs, secret, msg := a.prepare(p, prof)
	if msg != "" {
		return failed(msg)
	}
	if _, msg := a.fetch(ctx, prof, reqs, secret, a.timeout(prof.healthTimeout)); msg != "" {
		return failed(msg)
	}
	a.deps.Logger.Debug("health check passed", "provider", p.ID, "kind", prof.kind)
	return TestResult{Status: StatusSuccess, Message: a.text(i18n.OK)}
}

func (a *adapter) ListModels(ctx context.Context, p Provider) ModelsResult {
	prof := a.proto.profile()
	reqs, secret, msg := a.prepare(p, prof)
	if msg != "" {
		return ModelsResult{Message: msg}
	}
	body, msg := a.fetch(ctx, prof, reqs, secret, a.timeout(prof.listTimeout))
	if msg != "" {
		return ModelsResult{Message: msg}
	}

	models, err := a.proto.decodeModels(body)
	if err != nil {
		a.deps.Logger.Debug("model list did not decode", "provider", p.ID, "kind", prof.kind, "error", err)
	}
	models = compact(models)
	if len(models) == 0 {
		return ModelsResult{Message: a.text(i18n.ErrNoModelsFound)}
	}
	a.deps.Logger.Debug("listed models", "provider", p.ID, "kind", prof.kind, "count", len(models))
	return ModelsResult{Models: models}
}

// prepare validates the base URL and resolves the credential. A non-empty
// message means the operation fails without touching the network.
func (a *adapter) prepare(p Provider, prof profile) ([]request, string, string) {
	base, ok := parseBase(p.BaseURL)
	if !ok || !a.proto.validBase(base) {
		return nil, "", a.text(prof.baseHint)
	}

	secret, msg := a.resolveSecret(p, prof)
	if msg != "" {
		return nil, "", msg
	}
	return a.proto.requests(base, secret, p.ExtraHeaders), secret, ""
}

func (a *adapter) resolveSecret(p Provider, prof profile) (string, string) {
	if !p.Auth.IsBearer() {
		if prof.requiresAuth {
			return "", a.text(prof.authAbsentHint)
		}
		return "", ""
	}
	if a.deps.Secrets == nil {
		return "", a.text(i18n.ErrKeychainMissing)
	}

	secret, found, err := a.deps.Secrets.ReadSecret(p.Auth.KeyRef)
	if err != nil {
		a.deps.Logger.Warn("secret store read failed", "provider", p.ID, "key_ref", p.Auth.KeyRef, "error", err)
		return "", withDetail(a.text(i18n.ErrKeychainMissing), security.Redact(err.Error()))
	}
	if !found || secret == "" {
		return "", a.text(i18n.ErrKeychainMissing)
	}
	return secret, ""
}

// fetch tries each candidate in order. Only transport failures fall
// through to the next candidate; an HTTP status is a definitive answer.
func (a *adapter) fetch(ctx context.Context, prof profile, reqs []request, secret string, timeout time.Duration) ([]byte, string) {
	var last string
	for _, r := range reqs {
		resp, err := a.deps.Transport.Get(ctx, r.url, r.headers, timeout)
		if err == nil {
			return resp.Body, ""
		}

		var se *transport.StatusError
		if errors.As(err, &se) {
			last = a.statusMessage(prof, se, secret)
			break
		}
		last = security.RedactSecret(err.Error(), secret)
		a.deps.Logger.Debug("candidate failed", "kind", prof.kind, "url", security.RedactSecret(r.url, secret), "error", last)
		if ctx.Err() != nil {
			break
		}
	}
	if prof.footer != "" {
		last = strings.TrimSpace(last + "\n" + a.text(prof.footer))
	}
	return nil, last
}

func (a *adapter) statusMessage(prof profile, se *transport.StatusError, secret string) string {
	var hint string
	switch {
	case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
		hint = a.text(prof.authFailedHint)
	case se.Code == http.StatusTooManyRequests:
		hint = a.text(i18n.ErrRateLimited)
	case se.Code == http.StatusNotFound && prof.notFoundHint != "":
		hint = a.text(prof.notFoundHint)
	default:
		hint = a.text(i18n.ErrHTTPCodeFmt, se.Code)
	}

	body := strings.TrimSpace(se.Body)
	if secret != "" {
		body = strings.ReplaceAll(body, secret, security.RedactedPlaceholder)
	}
	return withDetail(hint, body)
}

func (a *adapter) timeout(vendor time.Duration) time.Duration {
	if a.deps.Timeout > 0 {
		return a.deps.Timeout
	}
	return vendor
}

func (a *adapter) text(key i18n.Key, args ...any) string {
	return a.deps.Messages.Text(key, args...)
}

func failed(msg string) TestResult {
	return TestResult{Status: StatusFailure, Message: msg}
}

// withDetail joins a hint and a detail as "<hint>: <detail>", or returns the
// hint alone when there is no detail.
func withDetail(hint, detail string) string {
	if detail == "" {
		return hint
	}
	return hint + ": " + detail
}

// parseBase accepts absolute http(s) URLs with a host.
func parseBase(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}

// withPath returns a copy of base with segments appended to its path. The
// query string is kept, the fragment dropped.
func withPath(base *url.URL, segments string) *url.URL {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.Trim(segments, "/")
	u.RawPath = ""
	u.Fragment = ""
	return &u
}

// withQuery returns a copy of u with key set to value.
func withQuery(u *url.URL, key, value string) *url.URL {
	c := *u
	q := c.Query()
	q.Set(key, value)
	c.RawQuery = q.Encode()
	return &c
}

// pathEndsWith reports whether the path of u ends with the given segments,
// matched on segment boundaries ("/v1" matches "v1", "/foov1" does not).
func pathEndsWith(u *url.URL, segments string) bool {
	p := strings.Trim(u.Path, "/")
	s := strings.Trim(segments, "/")
	return p == s || strings.HasSuffix(p, "/"+s)
}

// v1Models appends "v1/models", or only "models" when the base already
// ends in v1.
func v1Models(base *url.URL) *url.URL {
	if pathEndsWith(base, "v1") {
		return withPath(base, "models")
	}
	return withPath(base, "v1/models")
}

// mergeHeaders copies extra and then applies vendor headers. A vendor header
// replaces any extra header with the same name regardless of case.
func mergeHeaders(extra, vendor map[string]string) map[string]string {
	out := make(map[string]string, len(extra)+len(vendor))
	for k, v := range extra {
		out[k] = v
	}
	for vk, vv := range vendor {
		for k := range out {
			if strings.EqualFold(k, vk) {
				delete(out, k)
			}
		}
		out[vk] = vv
	}
	return out
}

// compact drops empty identifiers and keeps the first occurrence of each.
func compact(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
