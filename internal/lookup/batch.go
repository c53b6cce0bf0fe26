package lookup

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/compare"
	"github.com/sells-group/address-compare/internal/model"
)

// KindError marks a failed batch entry.
const KindError = "error"

// BatchEntry is the outcome of one identifier in a batch. Failed entries
// carry Kind "error" and a message instead of rows.
type BatchEntry struct {
	Identifier string              `json:"lookup_identifier"`
	Kind       string              `json:"lookup_type"`
	Error      string              `json:"error,omitempty"`
	ErrorKind  string              `json:"error_kind,omitempty"`
	Rows       []model.LocationRow `json:"rows,omitempty"`
	Groups     []compare.Group     `json:"groups,omitempty"`
}

// Failed reports whether the entry holds an error.
func (e BatchEntry) Failed() bool {
	return e.Kind == KindError
}

// Batch looks up each identifier against the CDS API in input order. A
// failure is recorded on its entry and does not stop the remaining lookups,
// so the result always has one entry per identifier.
func (s *Service) Batch(ctx context.Context, ids []string, opts Options) []BatchEntry {
	batchID := uuid.New().String()
	entries := make([]BatchEntry, len(ids))
	failed := 0

	for i, id := range ids {
		entries[i] = s.batchEntry(ctx, id, opts)
		if entries[i].Failed() {
			failed++
		}
	}

	zap.L().Info("lookup: batch complete",
		zap.String("batch_id", batchID),
		zap.Int("identifiers", len(ids)),
		zap.Int("failed", failed),
	)
	return entries
}

func (s *Service) batchEntry(ctx context.Context, id string, opts Options) BatchEntry {
	if err := ctx.Err(); err != nil {
		return failedEntry(id, err)
	}
	res, err := s.Locations(ctx, id, opts)
	if err != nil {
		return failedEntry(id, err)
	}
	return BatchEntry{
		Identifier: id,
		Kind:       string(res.Kind),
		Rows:       res.Locations,
		Groups:     res.Groups,
	}
}

func failedEntry(id string, err error) BatchEntry {
	return BatchEntry{
		Identifier: id,
		Kind:       KindError,
		Error:      err.Error(),
		ErrorKind:  model.ErrorKind(err),
	}
}
