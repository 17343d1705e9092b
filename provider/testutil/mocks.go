package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"llmkeyring/transport"
)

// Reply scripts one transport outcome. Err wins over Status; a zero Status
// means 200.
type Reply struct {
	Status int
	Body   string
	Err    error
}

// OK is a 200 reply carrying body.
func OK(body string) Reply { return Reply{Status: 200, Body: body} }

// Status is a non-2xx reply.
func Status(code int, body string) Reply { return Reply{Status: code, Body: body} }

// Unreachable is a transport failure such as a refused connection.
func Unreachable(msg string) Reply { return Reply{Err: errors.New(msg)} }

// Call records one Get invocation.
type Call struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FakeTransport implements transport.Getter with scripted per-URL replies
// and records every call.
type FakeTransport struct {
	// Replies keyed by exact URL.
	Replies map[string]Reply
	// Default is used for URLs missing from Replies. Without it an
	// unscripted URL is a transport failure.
	Default *Reply

	mu    sync.Mutex
	calls []Call
}

// NewFakeTransport creates a transport with no scripted replies.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{Replies: map[string]Reply{}}
}

// On scripts the reply for url and returns f for chaining.
func (f *FakeTransport) On(url string, r Reply) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Replies[url] = r
	return f
}

// Always scripts the reply for every URL not set with On.
func (f *FakeTransport) Always(r Reply) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Default = &r
	return f
}

func (f *FakeTransport) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*transport.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{URL: url, Headers: maps.Clone(headers), Timeout: timeout})
	r, ok := f.Replies[url]
	if !ok && f.Default != nil {
		r, ok = *f.Default, true
	}
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("dial tcp: no scripted reply for %s", url)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	code := r.Status
	if code == 0 {
		code = 200
	}
	if code < 200 || code > 299 {
		return nil, &transport.StatusError{Code: code, Body: r.Body}
	}
	return &transport.Response{StatusCode: code, Body: []byte(r.Body)}, nil
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeTransport) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many requests were attempted.
func (f *FakeTransport) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastCall returns the most recent call. It panics when there is none.
func (f *FakeTransport) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// MemorySecrets is an in-memory secret store. The error fields, when set,
// are returned by the matching operation.
type MemorySecrets struct {
	ReadErr   error
	SaveErr   error
	DeleteErr error

	mu      sync.Mutex
	secrets map[string]string
}

// NewMemorySecrets creates a store seeded with ref/secret pairs.
func NewMemorySecrets(pairs ...string) *MemorySecrets {
	m := &MemorySecrets{secrets: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.secrets[pairs[i]] = pairs[i+1]
	}
	return m
}

func (m *MemorySecrets) ReadSecret(ref string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return "", false, m.ReadErr
	}
	s, ok := m.secrets[ref]
	return s, ok, nil
}

func (m *MemorySecrets) SaveSecret(ref, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.secrets[ref] = secret
	return nil
}

func (m *MemorySecrets) DeleteSecret(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.secrets, ref)
	return nil
}

func (m *MemorySecrets) DeleteAllSecrets() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	clear(m.secrets)
	return nil
}

// Len returns the number of stored secrets.
func (m *MemorySecrets) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.secrets)
}
