package provider

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"llmkeyring/i18n"
)

// Kind selects the adapter and the base-URL rules for a provider.
type Kind string

const (
	KindOpenAICompatible Kind = "openAICompatible"
	KindOllama           Kind = "ollama"
	KindAliyunNative     Kind = "aliyunNative"
	KindAnthropic        Kind = "anthropic"
	KindGoogleGemini     Kind = "googleGemini"
	KindAzureOpenAI      Kind = "azureOpenAI"
	KindZhipuGLMNative   Kind = "zhipuGLMNative"
	KindBaiduQianfan     Kind = "baiduQianfan"
	KindVertexGemini     Kind = "vertexGemini"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{
	KindOpenAICompatible,
	KindOllama,
	KindAliyunNative,
	KindAnthropic,
	KindGoogleGemini,
	KindAzureOpenAI,
	KindZhipuGLMNative,
	KindBaiduQianfan,
	KindVertexGemini,
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider kind: %s", s)
}

// DisplayKey is the catalog key for the kind's user-facing name.
func (k Kind) DisplayKey() i18n.Key {
	switch k {
	case KindOpenAICompatible:
		return i18n.KindOpenAICompatible
	case KindOllama:
		return i18n.KindOllama
	case KindAliyunNative:
		return i18n.KindAliyunNative
	case KindAnthropic:
		return i18n.KindAnthropic
	case KindGoogleGemini:
		return i18n.KindGoogleGemini
	case KindAzureOpenAI:
		return i18n.KindAzureOpenAI
	case KindZhipuGLMNative:
		return i18n.KindZhipuGLM
	case KindBaiduQianfan:
		return i18n.KindBaiduQianfan
	case KindVertexGemini:
		return i18n.KindVertexGemini
	}
	return i18n.Key(k)
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AuthType is the discriminator of AuthMethod.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
)

// AuthMethod is either no credential or a bearer-style credential held in
// the secret store under KeyRef. The secret itself never lives here.
type AuthMethod struct {
	Type   AuthType
	KeyRef string
}

// NoAuth returns the credential-less variant.
func NoAuth() AuthMethod { return AuthMethod{Type: AuthNone} }

// BearerAuth returns the by-reference variant.
func BearerAuth(keyRef string) AuthMethod { return AuthMethod{Type: AuthBearer, KeyRef: keyRef} }

// IsBearer reports whether a credential reference is configured.
func (a AuthMethod) IsBearer() bool { return a.Type == AuthBearer && a.KeyRef != "" }

type authJSON struct {
	Type   AuthType `json:"type"`
	KeyRef string   `json:"keyRef,omitempty"`
}

func (a AuthMethod) MarshalJSON() ([]byte, error) {
	if a.IsBearer() {
		return json.Marshal(authJSON{Type: AuthBearer, KeyRef: a.KeyRef})
	}
	return json.Marshal(authJSON{Type: AuthNone})
}

func (a *AuthMethod) UnmarshalJSON(data []byte) error {
	var raw authJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case AuthNone:
		*a = NoAuth()
	case AuthBearer:
		if raw.KeyRef == "" {
			return fmt.Errorf("bearer auth without keyRef")
		}
		*a = BearerAuth(raw.KeyRef)
	default:
		return fmt.Errorf("unknown auth type: %q", raw.Type)
	}
	return nil
}

// TestStatus is the outcome of a health check.
type TestStatus string

const (
	StatusUnknown TestStatus = "unknown"
	StatusSuccess TestStatus = "success"
	StatusFailure TestStatus = "failure"
)

// LastTest is the persisted record of the most recent health check.
type LastTest struct {
	Status  TestStatus `json:"status"`
	At      *time.Time `json:"at,omitempty"`
	Message string     `json:"message,omitempty"`
}

// UnknownTest is the state of a provider that has never been tested.
var UnknownTest = LastTest{Status: StatusUnknown}

// Provider is a configured LLM endpoint.
type Provider struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Kind         Kind              `json:"kind"`
	BaseURL      string            `json:"baseURL"`
	DefaultModel string            `json:"defaultModel,omitempty"`
	Enabled      bool              `json:"enabled"`
	Auth         AuthMethod        `json:"auth"`
	ExtraHeaders map[string]string `json:"extraHeaders"`
	LastTest     LastTest          `json:"lastTest"`
}

// Clone returns a copy that shares no maps or pointers with p.
func (p Provider) Clone() Provider {
	c := p
	c.ExtraHeaders = maps.Clone(p.ExtraHeaders)
	if c.ExtraHeaders == nil {
		c.ExtraHeaders = map[string]string{}
	}
	if p.LastTest.At != nil {
		at := *p.LastTest.At
		c.LastTest.At = &at
	}
	return c
}

// TestResult is the value produced by a single health check.
type TestResult struct {
	Status  TestStatus
	Message string
}

// OK reports whether the check succeeded.
func (r TestResult) OK() bool { return r.Status == StatusSuccess }

// ModelsResult is the value produced by a single model listing. Message is
// set exactly when Models is empty.
type ModelsResult struct {
	Models  []string
	Message string
}
