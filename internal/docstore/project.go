package docstore

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Project keeps the paths of p in a JSON object, plus "_id". Numbers keep
// their literal text.
func Project(body []byte, p Projection) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "docstore: decode for projection")
	}

	out := make(map[string]any)
	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for _, path := range p {
		if path == "" {
			continue
		}
		merge(out, doc, strings.Split(path, "."))
	}

	projected, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: encode projection")
	}
	return projected, nil
}

// merge copies the value at path from src into dst. Arrays along the path
// are projected element-wise; elements that are not objects are dropped.
func merge(dst, src map[string]any, path []string) {
	key := path[0]
	val, ok := src[key]
	if !ok {
		return
	}
	if len(path) == 1 {
		dst[key] = val
		return
	}

	switch v := val.(type) {
	case map[string]any:
		child, _ := dst[key].(map[string]any)
		if child == nil {
			child = make(map[string]any)
		}
		merge(child, v, path[1:])
		dst[key] = child
	case []any:
		existing, _ := dst[key].([]any)
		items := make([]any, 0, len(v))
		for _, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			var child map[string]any
			if j := len(items); j < len(existing) {
				child, _ = existing[j].(map[string]any)
			}
			if child == nil {
				child = make(map[string]any)
			}
			merge(child, m, path[1:])
			items = append(items, child)
		}
		dst[key] = items
	}
}
