package provider

import (
	"net/url"
	"strings"
)

// Canonical bases.
const (
	AliyunCompatibleBase = "https://dashscope.aliyuncs.com/compatible-mode"
	AliyunNativeBase     = "https://dashscope.aliyuncs.com/api/v1"
	OllamaBase           = "http://127.0.0.1:11434"
	AnthropicBase        = "https://api.anthropic.com"
	GeminiBase           = "https://generativelanguage.googleapis.com"
	AzureTemplateBase    = "https://your-resource-name.openai.azure.com"
	ZhipuBase            = "https://open.bigmodel.cn/api/paas/v4"
	BaiduBase            = "https://aip.baidubce.com"
	VertexTemplateBase   = "https://us-central1-aiplatform.googleapis.com/v1/projects/YOUR_PROJECT/locations/us-central1"
)

type hostRule struct {
	substr string
	base   string
}

// openAIHostRules map OpenAI-compatible vendor hosts to their API roots.
var openAIHostRules = []hostRule{
	{"aliyuncs.com", AliyunCompatibleBase},
	{"openrouter.ai", "https://openrouter.ai/api"},
	{"together.xyz", "https://api.together.xyz"},
	{"mistral.ai", "https://api.mistral.ai"},
	{"groq.com", "https://api.groq.com/openai"},
	{"fireworks.ai", "https://api.fireworks.ai/inference"},
	{"moonshot", "https://api.moonshot.cn"},
	{"siliconflow", "https://api.siliconflow.cn"},
	{"deepseek.com", "https://api.deepseek.com"},
}

// Normalize canonicalizes a user-supplied base URL for kind. It performs no
// I/O and is idempotent: Normalize(k, Normalize(k, s)) == Normalize(k, s).
func Normalize(kind Kind, raw string) string {
	trimmed := strings.TrimSpace(raw)
	host := hostOf(trimmed)

	switch kind {
	case KindOpenAICompatible:
		for _, r := range openAIHostRules {
			if strings.Contains(host, r.substr) {
				return r.base
			}
		}
		return trimmed
	case KindAliyunNative:
		return AliyunNativeBase
	case KindOllama:
		return OllamaBase
	case KindAnthropic:
		return AnthropicBase
	case KindGoogleGemini:
		return GeminiBase
	case KindAzureOpenAI:
		if strings.Contains(host, "openai.azure.com") {
			return "https://" + host
		}
		return AzureTemplateBase
	case KindZhipuGLMNative:
		return ZhipuBase
	case KindBaiduQianfan:
		return BaiduBase
	case KindVertexGemini:
		if base, ok := vertexBase(trimmed); ok {
			return base
		}
		return VertexTemplateBase
	}
	return trimmed
}

// Suggestion is a kind and canonical base proposed for a raw URL.
type Suggestion struct {
	Kind    Kind
	BaseURL string
}

type detectRule struct {
	substr string
	kind   Kind
}

// detectRules are checked in order against the host; the first match wins.
var detectRules = []detectRule{
	{"aliyuncs.com", KindOpenAICompatible},
	{"moonshot", KindOpenAICompatible},
	{"siliconflow", KindOpenAICompatible},
	{"openrouter.ai", KindOpenAICompatible},
	{"together.xyz", KindOpenAICompatible},
	{"mistral.ai", KindOpenAICompatible},
	{"groq.com", KindOpenAICompatible},
	{"fireworks.ai", KindOpenAICompatible},
	{"deepseek.com", KindOpenAICompatible},
	{"anthropic.com", KindAnthropic},
	{"generativelanguage.googleapis.com", KindGoogleGemini},
	{"openai.azure.com", KindAzureOpenAI},
	{"bigmodel.cn", KindZhipuGLMNative},
	{"baidubce.com", KindBaiduQianfan},
	{"aiplatform.googleapis.com", KindVertexGemini},
}

// SuggestKindAndBase proposes a kind for a raw URL from its host. Aliyun
// hosts are suggested in compatible mode. ok is false for unknown hosts.
func SuggestKindAndBase(raw string) (Suggestion, bool) {
	trimmed := strings.TrimSpace(raw)
	host := hostOf(trimmed)
	if host == "" {
		return Suggestion{}, false
	}
	for _, r := range detectRules {
		if !strings.Contains(host, r.substr) {
			continue
		}
		input := trimmed
		if !strings.Contains(trimmed, "://") {
			input = "https://" + trimmed
		}
		return Suggestion{Kind: r.kind, BaseURL: Normalize(r.kind, input)}, true
	}
	return Suggestion{}, false
}

// AlternateFor returns the other addressing mode for vendors that have two
// under one account. Only Aliyun does: native (/api/v1) and OpenAI
// compatible (/compatible-mode).
func AlternateFor(p Provider) (Suggestion, bool) {
	u, err := url.Parse(strings.TrimSpace(p.BaseURL))
	if err != nil || !strings.Contains(u.Hostname(), "aliyuncs.com") {
		return Suggestion{}, false
	}
	if strings.Contains(u.Path, "compatible-mode") {
		return Suggestion{Kind: KindAliyunNative, BaseURL: Normalize(KindAliyunNative, p.BaseURL)}, true
	}
	return Suggestion{Kind: KindOpenAICompatible, BaseURL: Normalize(KindOpenAICompatible, AliyunCompatibleBase)}, true
}

// hostOf extracts the lower-cased host, tolerating a missing scheme.
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return ""
		}
	}
	return strings.ToLower(u.Hostname())
}

// vertexBase trims a Vertex URL to scheme://host/<version>/projects/P/locations/L.
func vertexBase(raw string) (string, bool) {
	u, ok := parseBase(raw)
	if !ok || !strings.Contains(u.Hostname(), "aiplatform.googleapis.com") {
		return "", false
	}
	n := locationPrefix(u.Path)
	if n == 0 {
		return "", false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return "https://" + u.Host + "/" + strings.Join(segs[:n], "/"), true
}
