// Package lookup runs address lookups against the document store and the
// CDS API and assembles the comparison groups.
package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/compare"
	"github.com/sells-group/address-compare/internal/docstore"
	"github.com/sells-group/address-compare/internal/flatten"
	"github.com/sells-group/address-compare/internal/identifier"
	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/pkg/cds"
)

// Source selects where a lookup reads from.
type Source string

const (
	// Documents reads from the document store.
	Documents Source = "documents"
	// CDS calls the CDS locations API.
	CDS Source = "cds"
)

// ErrSourceUnavailable is returned when the selected source is not configured.
var ErrSourceUnavailable = eris.New("lookup source not configured")

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case Documents:
		return Documents, nil
	case CDS:
		return CDS, nil
	default:
		return "", eris.Errorf("lookup: unknown source %q", s)
	}
}

// Options are the per-request lookup switches.
type Options struct {
	// LoqateOnly keeps only rows standardized by a provider starting with "L".
	LoqateOnly bool
}

// Config holds the service settings taken from config.Config.
type Config struct {
	NormalizeDocuments bool
	NormalizeAPI       bool
	// MaxResults bounds a document query. Zero means no limit.
	MaxResults int
}

// Result is the outcome of one lookup. Exactly one of Documents and
// Locations is populated, depending on Source.
type Result struct {
	LookupID   string              `json:"lookup_id"`
	Source     Source              `json:"source"`
	Identifier string              `json:"identifier"`
	Kind       identifier.Kind     `json:"kind,omitempty"`
	Documents  []model.DocumentRow `json:"documents,omitempty"`
	Locations  []model.LocationRow `json:"locations,omitempty"`
	Groups     []compare.Group     `json:"groups"`
}

// Columns returns the column names of the populated row type.
func (r *Result) Columns() []string {
	if r.Source == Documents {
		return model.DocumentColumns
	}
	return model.LocationColumns
}

// Records renders every row in Columns order.
func (r *Result) Records() [][]string {
	out := make([][]string, 0, r.Len())
	for _, row := range r.Documents {
		out = append(out, row.Record())
	}
	for _, row := range r.Locations {
		out = append(out, row.Record())
	}
	return out
}

// Len returns the number of flat rows.
func (r *Result) Len() int {
	return len(r.Documents) + len(r.Locations)
}

// Service performs lookups. Either source may be nil; lookups against a nil
// source fail with ErrSourceUnavailable.
type Service struct {
	docs docstore.Source
	api  cds.Client
	cfg  Config
}

// NewService creates a lookup Service.
func NewService(docs docstore.Source, api cds.Client, cfg Config) *Service {
	return &Service{docs: docs, api: api, cfg: cfg}
}

// Lookup dispatches to Documents or Locations by source. For the document
// source, input may hold several comma-separated ids.
func (s *Service) Lookup(ctx context.Context, src Source, input string, opts Options) (*Result, error) {
	switch src {
	case Documents:
		return s.Documents(ctx, identifier.Split(input), opts)
	case CDS:
		return s.Locations(ctx, input, opts)
	default:
		return nil, eris.Errorf("lookup: unknown source %q", src)
	}
}

// Documents fetches the documents with the given ids, or every document up to
// MaxResults when ids is empty, and groups the rows by _id.
func (s *Service) Documents(ctx context.Context, ids []string, opts Options) (*Result, error) {
	if s.docs == nil {
		return nil, eris.Wrap(ErrSourceUnavailable, "lookup: document store")
	}
	res := &Result{
		LookupID:   uuid.New().String(),
		Source:     Documents,
		Identifier: strings.Join(ids, ","),
	}
	start := time.Now()

	docs, err := s.docs.Find(ctx, docstore.Filter{IDs: ids, Limit: s.cfg.MaxResults}, docstore.AddressProjection)
	if err != nil {
		s.logFailure(res, err)
		return nil, eris.Wrap(err, "lookup: find documents")
	}

	rows := flatten.Documents(docs, flatten.Options{ASCII: s.cfg.NormalizeDocuments})
	if opts.LoqateOnly {
		rows = compare.LoqateOnly(rows)
	}
	res.Documents = rows
	res.Groups = compare.DocumentGroups(rows)

	s.logSuccess(res, len(docs), time.Since(start))
	return res, nil
}

// Locations classifies id, fetches its CDS locations and groups the rows
// under the identifier.
func (s *Service) Locations(ctx context.Context, id string, opts Options) (*Result, error) {
	id = strings.TrimSpace(id)
	res := &Result{
		LookupID:   uuid.New().String(),
		Source:     CDS,
		Identifier: id,
	}

	kind, err := identifier.Classify(id)
	if err != nil {
		s.logFailure(res, err)
		return nil, err
	}
	res.Kind = kind

	if s.api == nil {
		return nil, eris.Wrap(ErrSourceUnavailable, "lookup: cds")
	}

	start := time.Now()
	resp, err := s.api.Lookup(ctx, id)
	if err != nil {
		s.logFailure(res, err)
		return nil, err
	}

	rows := flatten.Locations(resp, flatten.Options{ASCII: s.cfg.NormalizeAPI})
	if opts.LoqateOnly {
		rows = compare.LoqateOnly(rows)
	}
	res.Locations = rows
	res.Groups = compare.LocationGroups(id, rows)

	s.logSuccess(res, len(resp.Data), time.Since(start))
	return res, nil
}

func (s *Service) logSuccess(res *Result, fetched int, elapsed time.Duration) {
	zap.L().Info("lookup: complete",
		zap.String("lookup_id", res.LookupID),
		zap.String("source", string(res.Source)),
		zap.String("identifier", res.Identifier),
		zap.Int("fetched", fetched),
		zap.Int("rows", res.Len()),
		zap.Int("groups", len(res.Groups)),
		zap.Duration("elapsed", elapsed),
	)
}

func (s *Service) logFailure(res *Result, err error) {
	zap.L().Warn("lookup: failed",
		zap.String("lookup_id", res.LookupID),
		zap.String("source", string(res.Source)),
		zap.String("identifier", res.Identifier),
		zap.String("kind", model.ErrorKind(err)),
		zap.Error(err),
	)
}
