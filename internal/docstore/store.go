// Package docstore reads and writes raw address documents. Documents are
// stored whole as JSON and filtered by id; projections are applied with
// document-store path semantics.
package docstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/address-compare/internal/model"
)

// Filter selects documents. Empty IDs selects every document. Limit <= 0
// means no limit.
type Filter struct {
	IDs   []string
	Limit int
}

// Projection lists dotted paths to keep, e.g.
// "d.addresses.localizedAddresses.reportedAddress". A path through an array
// applies to every element. "_id" is always kept. An empty projection keeps
// the whole document.
type Projection []string

// AddressProjection keeps only what the flattener reads, for both the
// wrapped and the flat document layout.
var AddressProjection = Projection{
	"id",
	"d.addresses.localizedAddresses.standardizedAddress",
	"d.addresses.localizedAddresses.reportedAddress",
	"addresses.localizedAddresses.standardizedAddress",
	"addresses.localizedAddresses.reportedAddress",
}

// Source finds documents.
type Source interface {
	Find(ctx context.Context, f Filter, p Projection) ([]model.Document, error)
}

// Store is a Source that can also be loaded and migrated.
type Store interface {
	Source
	// Put inserts or replaces documents by id and returns how many were written.
	Put(ctx context.Context, docs []json.RawMessage) (int, error)
	Migrate(ctx context.Context) error
	Close() error
}

// DocumentID returns the id of a raw document: "_id" when present, else "id".
// The document goes through the same decoding as Find, so a body that is
// accepted here can always be read back.
func DocumentID(raw json.RawMessage) (string, error) {
	doc, err := decode(raw, nil)
	if err != nil {
		return "", err
	}
	id := doc.ID()
	if strings.TrimSpace(id) == "" {
		return "", eris.New("docstore: document has no _id or id")
	}
	return id, nil
}

// decode applies p to a stored body and decodes the result.
func decode(body []byte, p Projection) (model.Document, error) {
	var doc model.Document
	if len(p) > 0 {
		projected, err := Project(body, p)
		if err != nil {
			return doc, eris.Wrapf(model.ErrMalformedResponse, "docstore: project document: %v", err)
		}
		body = projected
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, eris.Wrapf(model.ErrMalformedResponse, "docstore: decode document: %v", err)
	}
	return doc, nil
}
