// Package i18n renders the fixed message keys used by adapters, the registry
// and the command line into English or Simplified Chinese.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a localizable message. Callers select keys and format
// arguments; the catalog owns the prose.
type Key string

const (
	OK                       Key = "OK"
	ErrBaseURLInvalid        Key = "ERR_BASE_URL_INVALID"
	ErrAuthFailedHint        Key = "ERR_AUTH_FAILED_HINT"
	ErrKeychainMissing       Key = "ERR_KEYCHAIN_MISSING"
	ErrRateLimited           Key = "ERR_RATE_LIMITED"
	ErrHTTPCodeFmt           Key = "ERR_HTTP_CODE_FMT"
	ErrNoModelsFound         Key = "ERR_NO_MODELS_FOUND"
	ErrListModelsUnsupported Key = "ERR_LIST_MODELS_UNSUPPORTED"
	ErrRouteHintAliyun       Key = "ERR_ROUTE_HINT_ALIYUN"
	ErrRouteHintAzure        Key = "ERR_ROUTE_HINT_AZURE"
	ErrRouteHintOllama       Key = "ERR_ROUTE_HINT_OLLAMA"
	ErrRouteHintZhipu        Key = "ERR_ROUTE_HINT_ZHIPU"
	ErrRouteHintBaidu        Key = "ERR_ROUTE_HINT_BAIDU"
	ErrVertexAuthHint        Key = "ERR_VERTEX_AUTH_HINT"
	ErrVertexBaseHint        Key = "ERR_VERTEX_BASE_HINT"
	ErrBaiduTokenHint        Key = "ERR_BAIDU_TOKEN_HINT"
	ErrOllamaLocalhostIPv6   Key = "ERR_OLLAMA_LOCALHOST_IPV6_HINT"

	KindOpenAICompatible Key = "KindOpenAICompatible"
	KindOllama           Key = "KindOllama"
	KindAliyunNative     Key = "KindAliyunNative"
	KindAnthropic        Key = "KindAnthropic"
	KindGoogleGemini     Key = "KindGoogleGemini"
	KindAzureOpenAI      Key = "KindAzureOpenAI"
	KindZhipuGLM         Key = "KindZhipuGLM"
	KindBaiduQianfan     Key = "KindBaiduQianfan"
	KindVertexGemini     Key = "KindVertexGemini"

	ProviderNameDeepSeek     Key = "ProviderNameDeepSeek"
	ProviderNameKimi         Key = "ProviderNameKimi"
	ProviderNameAliyunNative Key = "ProviderNameAliyunNative"
	ProviderNameSiliconFlow  Key = "ProviderNameSiliconFlow"
	ProviderNameAnthropic    Key = "ProviderNameAnthropic"
	ProviderNameGoogleGemini Key = "ProviderNameGoogleGemini"
	ProviderNameAzureOpenAI  Key = "ProviderNameAzureOpenAI"
	ProviderNameOpenRouter   Key = "ProviderNameOpenRouter"
	ProviderNameTogether     Key = "ProviderNameTogether"
	ProviderNameMistral      Key = "ProviderNameMistral"
	ProviderNameGroq         Key = "ProviderNameGroq"
	ProviderNameFireworks    Key = "ProviderNameFireworks"
	ProviderNameNew          Key = "ProviderNameNew"

	StatusUnknown Key = "StatusUnknown"
	StatusSuccess Key = "StatusSuccess"
	StatusFailure Key = "StatusFailure"
)

// Localizer renders a key with optional format arguments.
type Localizer interface {
	Text(key Key, args ...any) string
}

var (
	english = language.English
	chinese = language.MustParse("zh-Hans")

	supported = []language.Tag{english, chinese}
	matcher   = language.NewMatcher(supported)
)

var messages = map[Key][2]string{
	OK:                       {"OK", "正常"},
	ErrBaseURLInvalid:        {"Invalid base URL", "Base URL 无效"},
	ErrAuthFailedHint:        {"Authentication failed, check the API key", "认证失败，请检查 API Key"},
	ErrKeychainMissing:       {"API key not found in the credential store", "凭据存储中未找到 API Key"},
	ErrRateLimited:           {"Rate limited, try again later", "请求过于频繁，请稍后再试"},
	ErrHTTPCodeFmt:           {"HTTP %d", "HTTP %d"},
	ErrNoModelsFound:         {"No models found", "未找到模型"},
	ErrListModelsUnsupported: {"Listing models is not supported for this provider", "该服务商不支持获取模型列表"},
	ErrRouteHintAliyun:       {"Route not found, check the base URL (compatible mode uses /compatible-mode)", "路径不存在，请检查 Base URL（兼容模式需包含 /compatible-mode）"},
	ErrRouteHintAzure:        {"Route not found, check the resource name and api-version", "路径不存在，请检查资源名称和 api-version"},
	ErrRouteHintOllama:       {"Route not found, is Ollama running on this address?", "路径不存在，请确认 Ollama 正在该地址运行"},
	ErrRouteHintZhipu:        {"Route not found, the base URL should end with /api/paas/v4", "路径不存在，Base URL 应以 /api/paas/v4 结尾"},
	ErrRouteHintBaidu:        {"Route not found, check the Qianfan base URL", "路径不存在，请检查千帆 Base URL"},
	ErrVertexAuthHint:        {"Vertex AI needs an OAuth access token (gcloud auth print-access-token)", "Vertex AI 需要 OAuth 访问令牌（gcloud auth print-access-token）"},
	ErrVertexBaseHint:        {"Vertex base URL must include /projects/<project>/locations/<location>", "Vertex Base URL 必须包含 /projects/<项目>/locations/<区域>"},
	ErrBaiduTokenHint:        {"Baidu Qianfan needs an access_token", "百度千帆需要 access_token"},
	ErrOllamaLocalhostIPv6:   {"Tip: if localhost fails, try http://127.0.0.1:11434", "提示：如果 localhost 无法连接，请尝试 http://127.0.0.1:11434"},

	KindOpenAICompatible: {"OpenAI compatible", "OpenAI 兼容"},
	KindOllama:           {"Ollama", "Ollama"},
	KindAliyunNative:     {"Aliyun DashScope (native)", "阿里云百炼（原生）"},
	KindAnthropic:        {"Anthropic", "Anthropic"},
	KindGoogleGemini:     {"Google Gemini", "Google Gemini"},
	KindAzureOpenAI:      {"Azure OpenAI", "Azure OpenAI"},
	KindZhipuGLM:         {"Zhipu GLM", "智谱 GLM"},
	KindBaiduQianfan:     {"Baidu Qianfan", "百度千帆"},
	KindVertexGemini:     {"Vertex AI Gemini", "Vertex AI Gemini"},

	ProviderNameDeepSeek:     {"DeepSeek", "DeepSeek"},
	ProviderNameKimi:         {"Kimi", "Kimi（月之暗面）"},
	ProviderNameAliyunNative: {"Aliyun native", "阿里云百炼（原生）"},
	ProviderNameSiliconFlow:  {"SiliconFlow", "硅基流动"},
	ProviderNameAnthropic:    {"Anthropic", "Anthropic"},
	ProviderNameGoogleGemini: {"Google Gemini", "Google Gemini"},
	ProviderNameAzureOpenAI:  {"Azure OpenAI", "Azure OpenAI"},
	ProviderNameOpenRouter:   {"OpenRouter", "OpenRouter"},
	ProviderNameTogether:     {"Together AI", "Together AI"},
	ProviderNameMistral:      {"Mistral", "Mistral"},
	ProviderNameGroq:         {"Groq", "Groq"},
	ProviderNameFireworks:    {"Fireworks AI", "Fireworks AI"},
	ProviderNameNew:          {"New Provider", "新服务商"},

	StatusUnknown: {"not tested", "未测试"},
	StatusSuccess: {"ok", "正常"},
	StatusFailure: {"failed", "失败"},
}

var builder = newBuilder()

func newBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(english))
	for key, texts := range messages {
		_ = b.SetString(english, string(key), texts[0])
		_ = b.SetString(chinese, string(key), texts[1])
	}
	return b
}

// Catalog is a Localizer bound to one language.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a catalog for locale. Accepted values are "en", "zh-Hans",
// any BCP 47 tag, or "system"/"" which consults LC_ALL, LC_MESSAGES and LANG.
func New(locale string) *Catalog {
	tag := Match(locale)
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// Match resolves a locale setting to one of the supported languages.
func Match(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" || strings.EqualFold(locale, "system") {
		locale = systemLocale()
	}
	// POSIX forms such as zh_CN.UTF-8
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")

	tag, err := language.Parse(locale)
	if err != nil {
		return english
	}
	_, index, conf := matcher.Match(tag)
	if conf == language.No {
		return english
	}
	return supported[index]
}

func systemLocale() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return "en"
}

// Tag returns the resolved language.
func (c *Catalog) Tag() language.Tag { return c.tag }

// Text renders key. Unknown keys render as the key itself.
func (c *Catalog) Text(key Key, args ...any) string {
	return c.printer.Sprintf(string(key), args...)
}

// English is the default localizer for callers with no locale preference.
var English Localizer = New("en")
