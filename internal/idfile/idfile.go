// Package idfile reads lookup identifiers from CSV, plain-text and XLSX
// files. The identifiers are taken from the first column.
package idfile

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// headerNames are first-row values treated as a column header.
var headerNames = map[string]bool{
	"id":                true,
	"identifier":        true,
	"entity_id":         true,
	"bvd_id":            true,
	"lookup_identifier": true,
	"_id":               true,
}

// Read loads identifiers from path. ".xlsx" files are read from their first
// sheet; anything else is parsed as CSV. Blank cells are skipped, and a
// header row naming the column (id, identifier, ...) is dropped.
func Read(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "idfile: open")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// ReadCSV reads identifiers from the first column of r.
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var cells []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "idfile: read csv row")
		}
		if len(record) > 0 {
			cells = append(cells, record[0])
		}
	}
	return clean(cells), nil
}

// ReadXLSX reads identifiers from the first column of the first sheet.
func ReadXLSX(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "idfile: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("idfile: xlsx has no sheets")
	}

	var cells []string
	for _, row := range f.Sheets[0].Rows {
		if row == nil || len(row.Cells) == 0 {
			continue
		}
		cells = append(cells, row.Cells[0].String())
	}
	return clean(cells), nil
}

func clean(cells []string) []string {
	out := make([]string, 0, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if i == 0 && headerNames[strings.ToLower(c)] {
			continue
		}
		out = append(out, c)
	}
	return out
}
