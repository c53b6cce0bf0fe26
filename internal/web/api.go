package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sells-group/address-compare/internal/lookup"
)

type batchResponse struct {
	Entries   []lookup.BatchEntry `json:"entries"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func (s *Server) handleAPILookup(w http.ResponseWriter, r *http.Request) {
	var form LookupForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := s.validate.Struct(form); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), "invalid_request")
		return
	}

	res, err := s.lookup(r, lookup.Source(form.Source), form.Identifier, lookup.Options{LoqateOnly: form.LoqateOnly})
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), "invalid_request")
		return
	}

	start := time.Now()
	entries := s.svc.Batch(r.Context(), req.Identifiers, lookup.Options{LoqateOnly: req.LoqateOnly})

	resp := batchResponse{Entries: entries}
	for _, e := range entries {
		if e.Failed() {
			resp.Failed++
			s.metrics.LookupFailures.WithLabelValues(string(lookup.CDS), e.ErrorKind).Inc()
			continue
		}
		resp.Succeeded++
		s.metrics.Rows.WithLabelValues(string(lookup.CDS)).Add(float64(len(e.Rows)))
	}
	s.metrics.Lookups.WithLabelValues(string(lookup.CDS)).Add(float64(len(entries)))
	s.metrics.LookupDuration.WithLabelValues(string(lookup.CDS)).Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, resp)
}

// lookup runs one lookup and records its metrics.
func (s *Server) lookup(r *http.Request, src lookup.Source, input string, opts lookup.Options) (*lookup.Result, error) {
	start := time.Now()
	res, err := s.svc.Lookup(r.Context(), src, input, opts)
	rows := 0
	if res != nil {
		rows = res.Len()
	}
	s.metrics.ObserveLookup(string(src), start, rows, err)
	return res, err
}
