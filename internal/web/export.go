package web

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/address-compare/internal/lookup"
)

// exporter writes a header row and records to w.
type exporter struct {
	ext         string
	contentType string
	write       func(w io.Writer, sheet string, header []string, records [][]string) error
}

var (
	csvExport = exporter{
		ext:         "csv",
		contentType: "text/csv; charset=utf-8",
		write:       writeCSV,
	}
	xlsxExport = exporter{
		ext:         "xlsx",
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		write:       writeXLSX,
	}
)

func (s *Server) handleExport(e exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		form := LookupForm{
			Source:     strings.TrimSpace(q.Get("source")),
			Identifier: strings.TrimSpace(q.Get("identifier")),
		}
		form.LoqateOnly, _ = strconv.ParseBool(q.Get("loqate_only"))
		if err := s.validate.Struct(form); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err), "invalid_request")
			return
		}

		res, err := s.lookup(r, lookup.Source(form.Source), form.Identifier, lookup.Options{LoqateOnly: form.LoqateOnly})
		if err != nil {
			writeLookupError(w, err)
			return
		}

		w.Header().Set("Content-Type", e.contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s-%s.%s"`, res.Source, res.LookupID, e.ext))
		if err := e.write(w, string(res.Source), res.Columns(), res.Records()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "")
		}
	}
}

func writeCSV(w io.Writer, _ string, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "web: write csv header")
	}
	if err := cw.WriteAll(records); err != nil {
		return eris.Wrap(err, "web: write csv rows")
	}
	return nil
}

func writeXLSX(w io.Writer, sheet string, header []string, records [][]string) error {
	f := xlsx.NewFile()
	sh, err := f.AddSheet(sheet)
	if err != nil {
		return eris.Wrap(err, "web: add xlsx sheet")
	}
	addRow(sh, header)
	for _, rec := range records {
		addRow(sh, rec)
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "web: write xlsx")
	}
	return nil
}

func addRow(sh *xlsx.Sheet, values []string) {
	row := sh.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
