package provider

import (
	"encoding/json"
	"net/url"
	"time"

	"llmkeyring/i18n"
)

const azureAPIVersion = "2023-05-15"

// azureOpenAI lists deployments of an Azure OpenAI resource.
type azureOpenAI struct{}

func (azureOpenAI) profile() profile {
	return profile{
		kind:           KindAzureOpenAI,
		healthTimeout:  6 * time.Second,
		listTimeout:    6 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrAuthFailedHint,
		authFailedHint: i18n.ErrAuthFailedHint,
		notFoundHint:   i18n.ErrRouteHintAzure,
		baseHint:       i18n.ErrBaseURLInvalid,
	}
}

func (azureOpenAI) validBase(*url.URL) bool { return true }

func (azureOpenAI) requests(base *url.URL, secret string, extra map[string]string) []request {
	u := base
	if !pathEndsWith(base, "openai/deployments") {
		u = withPath(base, "openai/deployments")
	}
	return []request{{
		url:     withQuery(u, "api-version", azureAPIVersion).String(),
		headers: mergeHeaders(extra, map[string]string{"api-key": secret}),
	}}
}

type azureDeployments struct {
	Value []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"value"`
}

// decodeModels prefers deployment names; requests address deployments by name.
func (azureOpenAI) decodeModels(body []byte) ([]string, error) {
	var resp azureDeployments
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Value))
	for _, d := range resp.Value {
		if d.Name != "" {
			ids = append(ids, d.Name)
		} else {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}
