package provider

import (
	"net/url"
	"time"

	"llmkeyring/i18n"
)

// zhipuGLM talks to open.bigmodel.cn's native v4 API.
type zhipuGLM struct{}

func (zhipuGLM) profile() profile {
	return profile{
		kind:           KindZhipuGLMNative,
		healthTimeout:  8 * time.Second,
		listTimeout:    8 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrAuthFailedHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		notFoundHint:   i18n.ErrRouteHintZhipu,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (zhipuGLM) validBase(*url.URL) bool { return true }

func (zhipuGLM) requests(base *url.URL, secret string, extra map[string]string) []request {
	var u *url.URL
	switch {
	case pathEndsWith(base, "api/paas/v4"):
		u = withPath(base, "models")
	case pathEndsWith(base, "api/paas"):
		u = withPath(base, "v4/models")
	default:
		u = withPath(base, "api/paas/v4/models")
	}
	return []request{{
		url:     u.String(),
		headers: mergeHeaders(extra, map[string]string{"Authorization": "Bearer " + secret}),
	}}
}

func (zhipuGLM) decodeModels(body []byte) ([]string, error) {
	return extractModelIDs(body, false)
}
