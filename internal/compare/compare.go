// Package compare groups flat address rows by parent key and projects them
// into reported-versus-standardized comparison entries.
package compare

import (
	"strconv"
	"strings"

	"github.com/sells-group/address-compare/internal/model"
)

// MissingKey is the group key used for rows without a parent id.
const MissingKey = "N/A"

// Bucket holds the rows sharing one key.
type Bucket[T any] struct {
	Key  string
	Rows []T
}

// GroupBy buckets rows by key, preserving first-seen key order and the
// original row order inside each bucket.
func GroupBy[T any](rows []T, key func(T) string) []Bucket[T] {
	var buckets []Bucket[T]
	index := make(map[string]int)
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket[T]{Key: k})
		}
		buckets[i].Rows = append(buckets[i].Rows, row)
	}
	return buckets
}

// Entry is one row reduced to its comparison fields.
type Entry struct {
	ReportedAddressLines     string `json:"reported_address_lines"`
	StandardizedAddressLines string `json:"standardized_address_lines"`
	ReportedCity             string `json:"reported_city"`
	StandardizedLocality     string `json:"standardized_locality"`
	ReportedPostCode         string `json:"reported_post_code"`
	StandardizedPostalCode   string `json:"standardized_postal_code"`
	ReportedCountryLabel     string `json:"reported_country_label"`
	StandardizedCountryName  string `json:"standardized_country_name"`
}

// Group is a parent key with its comparison entries in row order.
type Group struct {
	Key     string  `json:"key"`
	Entries []Entry `json:"entries"`
}

// ProjectDocument reduces a document row. Document rows carry no country
// label, so both country fields are empty.
func ProjectDocument(r model.DocumentRow) Entry {
	return Entry{
		ReportedAddressLines:     r.ReportedAddressLines.Join(),
		StandardizedAddressLines: r.StandardizedAddressLines.Join(),
		ReportedCity:             str(r.ReportedCity),
		StandardizedLocality:     str(r.StandardizedLocality),
		ReportedPostCode:         str(r.ReportedPostCode),
		StandardizedPostalCode:   str(r.StandardizedPostalCode),
	}
}

// ProjectLocation reduces a CDS location row.
func ProjectLocation(r model.LocationRow) Entry {
	return Entry{
		ReportedAddressLines:     r.ReportedAddressLines,
		StandardizedAddressLines: r.StandardizedAddressLines,
		ReportedCity:             str(r.ReportedCity),
		StandardizedLocality:     str(r.StandardizedLocality),
		ReportedPostCode:         str(r.ReportedPostCode),
		StandardizedPostalCode:   str(r.StandardizedPostalCode),
		ReportedCountryLabel:     str(r.ReportedCountryLabel),
		StandardizedCountryName:  str(r.StandardizedCountryName),
	}
}

// DocumentGroups groups document rows by _id, using MissingKey for rows
// with an empty id.
func DocumentGroups(rows []model.DocumentRow) []Group {
	buckets := GroupBy(rows, func(r model.DocumentRow) string {
		if r.ID == "" {
			return MissingKey
		}
		return r.ID
	})
	groups := make([]Group, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, Group{Key: b.Key, Entries: project(b.Rows, ProjectDocument)})
	}
	return groups
}

// LocationGroups groups location rows under the lookup identifier. When the
// response carries more than one entity, each entity gets its own group keyed
// "<key> / <entity key>", in first-seen order.
func LocationGroups(key string, rows []model.LocationRow) []Group {
	if len(rows) == 0 {
		return nil
	}
	buckets := GroupBy(rows, EntityKey)
	if len(buckets) == 1 {
		return []Group{{Key: key, Entries: project(rows, ProjectLocation)}}
	}
	groups := make([]Group, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, Group{Key: key + " / " + b.Key, Entries: project(b.Rows, ProjectLocation)})
	}
	return groups
}

// EntityKey is the parent key of a location row: the entity id when present,
// otherwise the BVD id, otherwise MissingKey.
func EntityKey(r model.LocationRow) string {
	switch {
	case r.EntityID != nil:
		return strconv.FormatInt(*r.EntityID, 10)
	case r.BvdID != nil && *r.BvdID != "":
		return *r.BvdID
	default:
		return MissingKey
	}
}

// Provider is implemented by both flat row types.
type Provider interface {
	Provider() string
}

// LoqateOnly keeps the rows whose standardized provider starts with "L".
func LoqateOnly[T Provider](rows []T) []T {
	var out []T
	for _, r := range rows {
		if strings.HasPrefix(r.Provider(), "L") {
			out = append(out, r)
		}
	}
	return out
}

func project[T any](rows []T, fn func(T) Entry) []Entry {
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = fn(r)
	}
	return entries
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
