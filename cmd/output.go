package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/address-compare/internal/compare"
	"github.com/sells-group/address-compare/internal/lookup"
)

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatGroups writes the reported-versus-standardized comparison of each
// group. The key is printed on the first entry of its group only.
func formatGroups(out io.Writer, groups []compare.Group) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tREPORTED\tSTANDARDIZED\tCITY\tLOCALITY\tPOSTCODE\tPOSTAL_CODE\tCOUNTRY")
	_, _ = fmt.Fprintln(w, "---\t--------\t------------\t----\t--------\t--------\t-----------\t-------")

	for _, g := range groups {
		for i, e := range g.Entries {
			key := ""
			if i == 0 {
				key = g.Key
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				key,
				truncate(e.ReportedAddressLines, 40),
				truncate(e.StandardizedAddressLines, 40),
				e.ReportedCity,
				e.StandardizedLocality,
				e.ReportedPostCode,
				e.StandardizedPostalCode,
				country(e),
			)
		}
	}
	_ = w.Flush()
}

// formatBatch writes one summary line per batch entry followed by the
// comparison groups of the successful ones.
func formatBatch(out io.Writer, entries []lookup.BatchEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "IDENTIFIER\tTYPE\tROWS\tSTATUS")
	_, _ = fmt.Fprintln(w, "----------\t----\t----\t------")

	var groups []compare.Group
	for _, e := range entries {
		status := "ok"
		if e.Failed() {
			status = e.ErrorKind + ": " + truncate(e.Error, 60)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Identifier, e.Kind, len(e.Rows), status)
		groups = append(groups, e.Groups...)
	}
	_ = w.Flush()

	if len(groups) > 0 {
		_, _ = fmt.Fprintln(out)
		formatGroups(out, groups)
	}
}

// formatResult writes a lookup result's comparison groups and row count.
func formatResult(out io.Writer, res *lookup.Result) {
	if res.Len() == 0 {
		_, _ = fmt.Fprintln(out, "No addresses found.")
		return
	}
	formatGroups(out, res.Groups)
	_, _ = fmt.Fprintf(out, "\n%d rows in %d groups\n", res.Len(), len(res.Groups))
}

// country shows the reported label and the standardized name, or just one
// when they agree or the other is empty.
func country(e compare.Entry) string {
	switch {
	case e.StandardizedCountryName == "" || e.StandardizedCountryName == e.ReportedCountryLabel:
		return e.ReportedCountryLabel
	case e.ReportedCountryLabel == "":
		return e.StandardizedCountryName
	default:
		return e.ReportedCountryLabel + " / " + e.StandardizedCountryName
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
