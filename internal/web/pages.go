package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-compare/internal/compare"
	"github.com/sells-group/address-compare/internal/identifier"
	"github.com/sells-group/address-compare/internal/lookup"
	"github.com/sells-group/address-compare/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// summaryColumns are the document columns shown on the unified page.
var summaryColumns = []string{
	"_id",
	"reportedAddress_addressLines",
	"reportedAddress_city",
	"reportedAddress_postCode",
	"standardizedAddress_addressLines",
	"standardizedAddress_locality",
	"standardizedAddress_postalCode",
}

// Row is a flat row addressable by column name.
type Row interface {
	Cell(column string) string
}

var templateFuncs = template.FuncMap{
	// cell renders one column of a row, "" for a missing row or column.
	"cell": func(row Row, column string) string {
		if row == nil {
			return ""
		}
		return row.Cell(column)
	},
}

// parseTemplates pairs the layout with each page. It panics on a broken
// template since they are compiled into the binary.
func parseTemplates() map[string]*template.Template {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"unified", "documents", "cds"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return pages
}

type pageData struct {
	Title   string
	Active  string
	Error   string
	Form    any
	Result  *lookup.Result
	Columns []string
	Rows    []Row
	Groups  []compare.Group
}

func (s *Server) handleUnified(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Address lookup", Active: "unified", Form: LookupForm{Source: string(lookup.Documents)}}
	if r.Method != http.MethodPost {
		s.render(w, "unified", http.StatusOK, data)
		return
	}

	form := parseLookupForm(r)
	data.Form = form
	if err := s.validate.Struct(form); err != nil {
		data.Error = validationMessage(err)
		s.render(w, "unified", http.StatusBadRequest, data)
		return
	}

	res, err := s.lookup(r, lookup.Source(form.Source), form.Identifier, lookup.Options{LoqateOnly: form.LoqateOnly})
	if err != nil {
		data.Error = err.Error()
		s.render(w, "unified", statusFor(err), data)
		return
	}
	data.setResult(res)
	if res.Source == lookup.Documents {
		data.Columns = summaryColumns
	}
	s.render(w, "unified", http.StatusOK, data)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Document store query", Active: "documents", Form: DocumentsForm{}}
	if r.Method != http.MethodPost {
		s.render(w, "documents", http.StatusOK, data)
		return
	}

	form := parseDocumentsForm(r)
	data.Form = form
	if err := s.validate.Struct(form); err != nil {
		data.Error = validationMessage(err)
		s.render(w, "documents", http.StatusBadRequest, data)
		return
	}

	start := time.Now()
	res, err := s.svc.Documents(r.Context(), identifier.Split(form.IDs), lookup.Options{LoqateOnly: form.LoqateOnly})
	s.metrics.ObserveLookup(string(lookup.Documents), start, resultLen(res), err)
	if err != nil {
		data.Error = err.Error()
		s.render(w, "documents", statusFor(err), data)
		return
	}
	data.setResult(res)
	s.render(w, "documents", http.StatusOK, data)
}

func (s *Server) handleCDS(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "CDS lookup", Active: "cds", Form: CDSForm{}}
	if r.Method != http.MethodPost {
		s.render(w, "cds", http.StatusOK, data)
		return
	}

	form := parseCDSForm(r)
	data.Form = form
	if err := s.validate.Struct(form); err != nil {
		data.Error = validationMessage(err)
		s.render(w, "cds", http.StatusBadRequest, data)
		return
	}

	start := time.Now()
	res, err := s.svc.Locations(r.Context(), form.Identifier, lookup.Options{})
	s.metrics.ObserveLookup(string(lookup.CDS), start, resultLen(res), err)
	if err != nil {
		data.Error = err.Error()
		s.render(w, "cds", statusFor(err), data)
		return
	}
	data.setResult(res)
	s.render(w, "cds", http.StatusOK, data)
}

func (d *pageData) setResult(res *lookup.Result) {
	d.Result = res
	d.Columns = res.Columns()
	d.Groups = res.Groups
	for _, row := range res.Documents {
		d.Rows = append(d.Rows, row)
	}
	for _, row := range res.Locations {
		d.Rows = append(d.Rows, row)
	}
}

func resultLen(res *lookup.Result) int {
	if res == nil {
		return 0
	}
	return res.Len()
}

// render executes page into a buffer before writing the status line.
func (s *Server) render(w http.ResponseWriter, page string, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.pages[page].Execute(&buf, data); err != nil {
		zap.L().Error("web: render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var (
	_ Row = model.DocumentRow{}
	_ Row = model.LocationRow{}
)
