// Package identifier classifies user-supplied lookup identifiers.
package identifier

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/address-compare/internal/model"
)

// Kind is the identifier type used to route a CDS lookup.
type Kind string

const (
	// EntityID is a numeric legal-entity reference.
	EntityID Kind = "entity_id"
	// BvdID is an alphanumeric provider reference (e.g. CA*S00222833).
	BvdID Kind = "bvd_id"
)

// bvdSymbols are the non-letter characters that mark a BVD-style id.
const bvdSymbols = "*#&"

// Classify returns EntityID when s parses as a base-10 integer, BvdID when
// it contains a letter or one of * # &, and model.ErrInvalidIdentifier
// otherwise. The integer check wins, so all-digit strings are never BVD ids.
func Classify(s string) (Kind, error) {
	if IsEntityID(s) {
		return EntityID, nil
	}
	if IsBvdID(s) {
		return BvdID, nil
	}
	return "", eris.Wrapf(model.ErrInvalidIdentifier, "invalid identifier format: %q", s)
}

// IsEntityID reports whether s reads as a base-10 integer. Surrounding
// whitespace, a leading sign, any Unicode decimal digits and single
// underscores between digits are accepted, so "1_000" and "１２３" qualify.
func IsEntityID(s string) bool {
	_, err := parseInteger(s)
	return err == nil
}

func parseInteger(s string) (int64, error) {
	lit, ok := decimal(s)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(lit, 10, 64)
}

// decimal rewrites s as an ASCII integer literal, or reports false when s is
// not one.
func decimal(s string) (string, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
	if s != "" && (s[0] == '+' || s[0] == '-') {
		b.WriteByte(s[0])
		s = s[1:]
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return "", false
	}
	for i, r := range runes {
		switch {
		case unicode.IsDigit(r):
			b.WriteByte(byte('0' + digitValue(r)))
		case r == '_' && i > 0 && unicode.IsDigit(runes[i-1]) && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
		default:
			return "", false
		}
	}
	return b.String(), true
}

// digitValue returns the value of a decimal digit. Unicode lays decimal
// digits out in contiguous runs starting at zero.
func digitValue(r rune) int {
	zero := r
	for unicode.IsDigit(zero - 1) {
		zero--
	}
	return int(r-zero) % 10
}

// IsBvdID reports whether s contains a letter or one of * # &.
func IsBvdID(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || strings.ContainsRune(bvdSymbols, r)
	}) >= 0
}

// ParseEntityID parses s as a positive entity id.
func ParseEntityID(s string) (int64, error) {
	id, err := parseInteger(s)
	if err != nil {
		return 0, eris.Wrapf(model.ErrInvalidIdentifier, "entity id %q is not an integer", s)
	}
	if id <= 0 {
		return 0, eris.Wrapf(model.ErrInvalidIdentifier, "entity id must be a positive integer, got %d", id)
	}
	return id, nil
}

// Split breaks a comma- or newline-separated list into trimmed, non-empty
// identifiers, keeping input order.
func Split(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
