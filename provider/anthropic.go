package provider

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/pagination"

	"llmkeyring/i18n"
)

const anthropicAPIVersion = "2023-06-01"

type anthropicProtocol struct{}

func (anthropicProtocol) profile() profile {
	return profile{
		kind:           KindAnthropic,
		healthTimeout:  6 * time.Second,
		listTimeout:    6 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrAuthFailedHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (anthropicProtocol) validBase(*url.URL) bool { return true }

func (anthropicProtocol) requests(base *url.URL, secret string, extra map[string]string) []request {
	return []request{{
		url: v1Models(base).String(),
		headers: mergeHeaders(extra, map[string]string{
			"x-api-key":         secret,
			"anthropic-version": anthropicAPIVersion,
		}),
	}}
}

func (anthropicProtocol) decodeModels(body []byte) ([]string, error) {
	var page pagination.Page[anthropic.ModelInfo]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
