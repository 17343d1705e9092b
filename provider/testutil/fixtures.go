package testutil

import (
	"llmkeyring/provider"
)

// TestKeyRef is the reference used by BearerProvider.
const TestKeyRef = "ref-123"

// AnonymousProvider returns an enabled provider with no credential.
func AnonymousProvider(kind provider.Kind, baseURL string) provider.Provider {
	return provider.Provider{
		ID:           "prov-" + string(kind),
		Name:         string(kind),
		Kind:         kind,
		BaseURL:      baseURL,
		Enabled:      true,
		Auth:         provider.NoAuth(),
		ExtraHeaders: map[string]string{},
		LastTest:     provider.UnknownTest,
	}
}

// BearerProvider returns an enabled provider whose credential is stored
// under TestKeyRef.
func BearerProvider(kind provider.Kind, baseURL string) provider.Provider {
	p := AnonymousProvider(kind, baseURL)
	p.Auth = provider.BearerAuth(TestKeyRef)
	return p
}

// CanonicalBases maps every kind to a base URL its adapter accepts.
var CanonicalBases = map[provider.Kind]string{
	provider.KindOpenAICompatible: "https://api.deepseek.com",
	provider.KindOllama:           "http://127.0.0.1:11434",
	provider.KindAliyunNative:     provider.AliyunNativeBase,
	provider.KindAnthropic:        provider.AnthropicBase,
	provider.KindGoogleGemini:     provider.GeminiBase,
	provider.KindAzureOpenAI:      "https://contoso.openai.azure.com",
	provider.KindZhipuGLMNative:   provider.ZhipuBase,
	provider.KindBaiduQianfan:     provider.BaiduBase,
	provider.KindVertexGemini:     "https://us-central1-aiplatform.googleapis.com/v1/projects/demo/locations/us-central1",
}
