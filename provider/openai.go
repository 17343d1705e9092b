package provider

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/pagination"

	"llmkeyring/i18n"
)

// openAICompatible covers every vendor serving GET {base}/v1/models with an
// optional bearer key: DeepSeek, Moonshot, SiliconFlow, OpenRouter,
// Together, Mistral, Groq, Fireworks and Aliyun compatible mode.
type openAICompatible struct{}

func (openAICompatible) profile() profile {
	return profile{
		kind:           KindOpenAICompatible,
		healthTimeout:  5 * time.Second,
		listTimeout:    5 * time.Second,
		authFailedHint: i18n.ErrAuthFailedHint,
		// Aliyun compatible mode is the usual source of 404s here.
		notFoundHint: i18n.ErrRouteHintAliyun,
		baseHint:     i18n.ErrBaseURLInvalid,
	}
}

func (openAICompatible) validBase(*url.URL) bool { return true }

func (openAICompatible) requests(base *url.URL, secret string, extra map[string]string) []request {
	vendor := map[string]string{}
	if secret != "" {
		vendor["Authorization"] = "Bearer " + secret
	}
	return []request{{url: v1Models(base).String(), headers: mergeHeaders(extra, vendor)}}
}

func (openAICompatible) decodeModels(body []byte) ([]string, error) {
	var page pagination.Page[openai.Model]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
