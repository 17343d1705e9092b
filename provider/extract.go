package provider

import (
	"errors"

	"github.com/tidwall/gjson"
)

var errNotJSON = errors.New("response is not valid JSON")

// idFields are tried in order on each list item; the first string wins.
var idFields = []string{"id", "name", "model"}

// extractModelIDs reads vendor envelopes whose item schema is not fixed:
// {"data":[...]}, {"models":[...]} and, when allowBare is set, a top-level
// array. Items that are not objects or carry no identifier are skipped.
func extractModelIDs(body []byte, allowBare bool) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errNotJSON
	}
	root := gjson.ParseBytes(body)

	var items gjson.Result
	switch {
	case root.IsArray():
		if !allowBare {
			return nil, nil
		}
		items = root
	case root.IsObject():
		if data := root.Get("data"); data.IsArray() {
			items = data
		} else {
			items = root.Get("models")
		}
	}

	if !items.IsArray() {
		return nil, nil
	}

	var ids []string
	for _, item := range items.Array() {
		if !item.IsObject() {
			continue
		}
		for _, field := range idFields {
			if v := item.Get(field); v.Type == gjson.String && v.Str != "" {
				ids = append(ids, v.Str)
				break
			}
		}
	}
	return ids, nil
}
