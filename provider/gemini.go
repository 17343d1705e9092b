package provider

import (
	"encoding/json"
	"net/url"
	"time"

	"llmkeyring/i18n"
)

// googleGemini is the Generative Language API with the key in the query.
type googleGemini struct{}

func (googleGemini) profile() profile {
	return profile{
		kind:           KindGoogleGemini,
		healthTimeout:  6 * time.Second,
		listTimeout:    6 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrAuthFailedHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (googleGemini) validBase(*url.URL) bool { return true }

func (googleGemini) requests(base *url.URL, secret string, extra map[string]string) []request {
	u := v1Models(base)
	if pathEndsWith(base, "v1beta") {
		u = withPath(base, "models")
	}
	return []request{{
		url:     withQuery(u, "key", secret).String(),
		headers: mergeHeaders(extra, nil),
	}}
}

type geminiModels struct {
	Models []geminiModel `json:"models"`
	Data   []geminiModel `json:"data"`
}

type geminiModel struct {
	Name string `json:"name"`
}

func (googleGemini) decodeModels(body []byte) ([]string, error) {
	var resp geminiModels
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	items := resp.Models
	if len(items) == 0 {
		items = resp.Data
	}
	names := make([]string, 0, len(items))
	for _, m := range items {
		names = append(names, m.Name)
	}
	return names, nil
}
