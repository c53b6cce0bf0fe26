package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var null = []byte("null")

// Text is a scalar leaf that accepts a JSON string, number or boolean.
// Numbers keep their literal text so quality indexes and codes render the
// way the provider sent them. An extended-JSON {"$oid": ...} decodes to the
// object id; any other object or array keeps its compact JSON text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode text")
		}
		*t = Text(s)
	case '{':
		var oid struct {
			OID *string `json:"$oid"`
		}
		if err := json.Unmarshal(data, &oid); err == nil && oid.OID != nil {
			*t = Text(*oid.OID)
			return nil
		}
		*t = compactText(data)
	case '[':
		*t = compactText(data)
	default:
		*t = Text(data)
	}
	return nil
}

func compactText(data []byte) Text {
	zap.L().Debug("model: non-scalar leaf kept as json", zap.String("kind", kindOf(data)))
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return Text(data)
	}
	return Text(buf.String())
}

// StringPtr returns the text as *string, nil when t is nil.
func (t *Text) StringPtr() *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// StringList is a list leaf (address lines, phone numbers). A bare scalar or
// object decodes as a one-element list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		*l = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode string list")
		}
		*l = StringList{s}
	case '[':
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return eris.Wrap(err, "model: decode string list")
		}
		out := make(StringList, 0, len(items))
		for _, it := range items {
			out = append(out, string(it))
		}
		*l = out
	default:
		var one Text
		if err := one.UnmarshalJSON(data); err != nil {
			return eris.Wrap(err, "model: decode string list")
		}
		*l = StringList{string(one)}
	}
	return nil
}

// Join joins the list with ", ". An absent list joins to "".
func (l StringList) Join() string {
	return strings.Join(l, ", ")
}

// Coordinate is a longitude or latitude. It accepts a JSON number or a
// numeric string; anything else decodes as absent.
type Coordinate struct {
	value float64
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return nil
	}
	raw, ok, err := numericText(data)
	if err != nil || !ok {
		return eris.Wrap(err, "model: decode coordinate")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		zap.L().Debug("model: coordinate is not numeric", zap.String("value", raw))
		return nil
	}
	*c = Coordinate{value: f, valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return null, nil
	}
	return json.Marshal(c.value)
}

// Float64Ptr returns the coordinate as *float64, nil when c is nil or absent.
func (c *Coordinate) Float64Ptr() *float64 {
	if c == nil || !c.valid {
		return nil
	}
	f := c.value
	return &f
}

// numericText returns the text of a number or a numeric-looking string leaf.
// ok is false for null, blank strings, booleans, objects and arrays.
func numericText(data []byte) (string, bool, error) {
	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return "", false, err
		}
		raw = strings.TrimSpace(raw)
		return raw, raw != "", nil
	case '{', '[', 't', 'f':
		zap.L().Debug("model: numeric leaf ignored", zap.String("kind", kindOf(data)))
		return "", false, nil
	default:
		return string(data), true, nil
	}
}

func kindOf(data []byte) string {
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	default:
		return "scalar"
	}
}
