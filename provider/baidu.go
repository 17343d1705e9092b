package provider

import (
	"net/url"
	"time"

	"llmkeyring/i18n"
)

const baiduModelsPath = "rpc/2.0/ai_custom/v1/wenxinworkshop/models"

// baiduQianfan authenticates with a raw access_token in the query string.
// The stored secret is that token, not an API key to exchange.
type baiduQianfan struct{}

func (baiduQianfan) profile() profile {
	return profile{
		kind:           KindBaiduQianfan,
		healthTimeout:  8 * time.Second,
		listTimeout:    8 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrBaiduTokenHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		notFoundHint:   i18n.ErrRouteHintBaidu,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (baiduQianfan) validBase(*url.URL) bool { return true }

func (baiduQianfan) requests(base *url.URL, secret string, extra map[string]string) []request {
	u := withQuery(withPath(base, baiduModelsPath), "access_token", secret)
	return []request{{url: u.String(), headers: mergeHeaders(extra, nil)}}
}

func (baiduQianfan) decodeModels(body []byte) ([]string, error) {
	return extractModelIDs(body, false)
}
