package registry

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"llmkeyring/i18n"
	"llmkeyring/provider"
)

// Template is a built-in provider preset.
type Template struct {
	// Name is the stable identifier used on the command line.
	Name    string
	Label   i18n.Key
	Kind    provider.Kind
	BaseURL string
	// WithKeyRef allocates a bearer reference up front for vendors that
	// cannot be used anonymously.
	WithKeyRef bool
	Headers    map[string]string
}

// BlankTemplate is the name accepted by AddTemplate for an empty provider.
const BlankTemplate = "blank"

var templates = []Template{
	{Name: "deepseek", Label: i18n.ProviderNameDeepSeek, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.deepseek.com"},
	{Name: "kimi", Label: i18n.ProviderNameKimi, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.moonshot.cn"},
	{Name: "aliyun", Label: i18n.ProviderNameAliyunNative, Kind: provider.KindAliyunNative, BaseURL: provider.AliyunNativeBase, WithKeyRef: true},
	{Name: "siliconflow", Label: i18n.ProviderNameSiliconFlow, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.siliconflow.cn"},
	{Name: "anthropic", Label: i18n.ProviderNameAnthropic, Kind: provider.KindAnthropic, BaseURL: provider.AnthropicBase},
	{Name: "gemini", Label: i18n.ProviderNameGoogleGemini, Kind: provider.KindGoogleGemini, BaseURL: provider.GeminiBase, WithKeyRef: true},
	{Name: "azure", Label: i18n.ProviderNameAzureOpenAI, Kind: provider.KindAzureOpenAI, BaseURL: provider.AzureTemplateBase, WithKeyRef: true},
	{
		Name: "openrouter", Label: i18n.ProviderNameOpenRouter, Kind: provider.KindOpenAICompatible, BaseURL: "https://openrouter.ai/api",
		Headers: map[string]string{"HTTP-Referer": "https://github.com/", "X-Title": "LLMKeyring"},
	},
	{Name: "together", Label: i18n.ProviderNameTogether, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.together.xyz"},
	{Name: "mistral", Label: i18n.ProviderNameMistral, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.mistral.ai"},
	{Name: "groq", Label: i18n.ProviderNameGroq, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.groq.com/openai"},
	{Name: "fireworks", Label: i18n.ProviderNameFireworks, Kind: provider.KindOpenAICompatible, BaseURL: "https://api.fireworks.ai/inference"},
	{Name: "zhipu", Label: i18n.KindZhipuGLM, Kind: provider.KindZhipuGLMNative, BaseURL: provider.ZhipuBase},
	{Name: "baidu", Label: i18n.KindBaiduQianfan, Kind: provider.KindBaiduQianfan, BaseURL: provider.BaiduBase},
	{Name: "vertex", Label: i18n.KindVertexGemini, Kind: provider.KindVertexGemini, BaseURL: provider.VertexTemplateBase, WithKeyRef: true},
}

var blank = Template{Name: BlankTemplate, Label: i18n.ProviderNameNew, Kind: provider.KindOpenAICompatible}

// Templates returns the built-in presets in bootstrap order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// LookupTemplate finds a preset by name, case-insensitively. "blank" is accepted.
func LookupTemplate(name string) (Template, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == BlankTemplate {
		return blank, nil
	}
	for _, t := range templates {
		if t.Name == name {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// NewKeyRef allocates a fresh secret reference.
func NewKeyRef() string {
	return keyRefFor(uuid.NewString())
}

func keyRefFor(id string) string {
	return "prov_" + strings.ToUpper(id)
}

// Instantiate builds an enabled, untested provider from the template.
func (t Template) Instantiate(msgs i18n.Localizer) provider.Provider {
	if msgs == nil {
		msgs = i18n.English
	}

	p := provider.Provider{
		ID:           uuid.NewString(),
		Name:         msgs.Text(t.Label),
		Kind:         t.Kind,
		BaseURL:      t.BaseURL,
		Enabled:      true,
		Auth:         provider.NoAuth(),
		ExtraHeaders: map[string]string{},
		LastTest:     provider.UnknownTest,
	}
	for k, v := range t.Headers {
		p.ExtraHeaders[k] = v
	}
	if t.WithKeyRef {
		p.Auth = provider.BearerAuth(NewKeyRef())
	}
	return p
}
