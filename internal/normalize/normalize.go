// Package normalize reduces text to its closest ASCII equivalent.
package normalize

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// ASCII decomposes s (NFKD) and drops every rune outside ASCII, so accented
// letters keep their base letter ("Málaga" -> "Malaga") and characters
// without an ASCII base disappear.
func ASCII(s string) string {
	if isASCII(s) {
		return s
	}
	// A fresh chain per call: transformers carry state between Transform calls.
	t := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	out, _, err := transform.String(t, s)
	if err != nil {
		return stripNonASCII(norm.NFKD.String(s))
	}
	return out
}

// Strings applies ASCII to every element, preserving order and length.
// A nil slice stays nil.
func Strings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = ASCII(s)
	}
	return out
}

// Value normalizes strings and string slices and returns any other value
// unchanged. Non-string elements of a []any pass through as they are.
func Value(v any) any {
	switch t := v.(type) {
	case string:
		return ASCII(t)
	case []string:
		return Strings(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			if s, ok := e.(string); ok {
				out[i] = ASCII(s)
			} else {
				out[i] = e
			}
		}
		return out
	default:
		return v
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func stripNonASCII(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] <= unicode.MaxASCII {
			b = append(b, s[i])
		}
	}
	return string(b)
}
