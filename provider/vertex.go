package provider

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"llmkeyring/i18n"
)

// vertexGemini lists publisher models for a project/location base such as
// https://us-central1-aiplatform.googleapis.com/v1/projects/P/locations/L.
// The secret is an OAuth access token.
type vertexGemini struct{}

func (vertexGemini) profile() profile {
	return profile{
		kind:           KindVertexGemini,
		healthTimeout:  8 * time.Second,
		listTimeout:    8 * time.Second,
		requiresAuth:   true,
		authAbsentHint: i18n.ErrVertexAuthHint,
		authFailedHint: i18n.ErrVertexAuthHint,
		baseHint:       i18n.ErrVertexBaseHint,
	}
}

// validBase requires non-empty projects/<p>/locations/<l> segments.
func (vertexGemini) validBase(base *url.URL) bool {
	return locationPrefix(base.Path) > 0
}

// locationPrefix returns how many leading path segments end at the location
// segment, or 0 when the path has no projects/<p>/locations/<l> run.
func locationPrefix(path string) int {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i+3 < len(segs); i++ {
		if segs[i] == "projects" && segs[i+1] != "" && segs[i+2] == "locations" && segs[i+3] != "" {
			return i + 4
		}
	}
	return 0
}

func (vertexGemini) requests(base *url.URL, secret string, extra map[string]string) []request {
	return []request{{
		url:     withPath(base, "publishers/google/models").String(),
		headers: mergeHeaders(extra, map[string]string{"Authorization": "Bearer " + secret}),
	}}
}

type vertexModels struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (vertexGemini) decodeModels(body []byte) ([]string, error) {
	var resp vertexModels
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
