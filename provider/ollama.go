package provider

import (
	"encoding/json"
	"net"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"llmkeyring/i18n"
)

type ollamaProtocol struct{}

func (ollamaProtocol) profile() profile {
	return profile{
		kind:           KindOllama,
		healthTimeout:  5 * time.Second,
		listTimeout:    5 * time.Second,
		authFailedHint: i18n.ErrAuthFailedHint,
		notFoundHint:   i18n.ErrRouteHintOllama,
		baseHint:       i18n.ErrBaseURLInvalid,
		footer:         i18n.ErrOllamaLocalhostIPv6,
	}
}

func (ollamaProtocol) validBase(*url.URL) bool { return true }

// requests returns the IPv4 loopback variant first when the configured host
// is localhost or ::1, then the configured URL itself. Ollama listens on
// 127.0.0.1 by default and "localhost" may resolve to ::1 first.
func (ollamaProtocol) requests(base *url.URL, secret string, extra map[string]string) []request {
	vendor := map[string]string{}
	// Ollama itself is anonymous; a key is only sent for deployments behind
	// an authenticating proxy.
	if secret != "" {
		vendor["Authorization"] = "Bearer " + secret
	}
	headers := mergeHeaders(extra, vendor)
	primary := withPath(base, "api/tags")

	var reqs []request
	if host := primary.Hostname(); host == "localhost" || host == "::1" {
		ipv4 := *primary
		if port := primary.Port(); port != "" {
			ipv4.Host = net.JoinHostPort("127.0.0.1", port)
		} else {
			ipv4.Host = "127.0.0.1"
		}
		reqs = append(reqs, request{url: ipv4.String(), headers: headers})
	}
	return append(reqs, request{url: primary.String(), headers: headers})
}

func (ollamaProtocol) decodeModels(body []byte) ([]string, error) {
	var tags api.ListResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		} else {
			names = append(names, m.Model)
		}
	}
	return names, nil
}
