package provider

import (
	"net/url"
	"time"

	"llmkeyring/i18n"
)

// aliyunNative talks to DashScope's native API root (.../api/v1).
type aliyunNative struct{}

func (aliyunNative) profile() profile {
	return profile{
		kind:           KindAliyunNative,
		healthTimeout:  5 * time.Second,
		listTimeout:    8 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrAuthFailedHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		notFoundHint:   i18n.ErrRouteHintAliyun,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (aliyunNative) validBase(*url.URL) bool { return true }

func (aliyunNative) requests(base *url.URL, secret string, extra map[string]string) []request {
	var u *url.URL
	switch {
	case pathEndsWith(base, "api/v1"):
		u = withPath(base, "models")
	case pathEndsWith(base, "api"):
		u = withPath(base, "v1/models")
	default:
		u = withPath(base, "api/v1/models")
	}
	return []request{{
		url:     u.String(),
		headers: mergeHeaders(extra, map[string]string{"Authorization": "Bearer " + secret}),
	}}
}

func (aliyunNative) decodeModels(body []byte) ([]string, error) {
	return extractModelIDs(body, true)
}
