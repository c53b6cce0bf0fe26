//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-compare/internal/docstore"
	"github.com/sells-group/address-compare/internal/lookup"
)

const leedsDocs = `[
	{"_id": "DOC-1", "d": {"addresses": [{"localizedAddresses": [
		{"reportedAddress": {"addressLines": ["1 Park Row"], "city": "Leeds", "postCode": "LS1 5AB"},
		 "standardizedAddress": {"addressLines": ["1 Park Row"], "provider": "Loqate", "locality": "Leeds", "postalCode": "LS1 5AB"}},
		{"reportedAddress": {"city": "Bradford"}, "standardizedAddress": {"provider": "Google"}}
	]}]}},
	{"_id": "DOC-2", "d": {"addresses": [{"localizedAddresses": [
		{"reportedAddress": {"city": "York"}, "standardizedAddress": {"provider": "Loqate", "locality": "York"}}
	]}]}}
]`

// runCmd runs c.RunE with args, capturing its output.
func runCmd(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetContext(context.Background())
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetContext(context.TODO())
	})
	err := c.RunE(c, args)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func TestLookupIdentifiers(t *testing.T) {
	path := writeFile(t, "ids.csv", "identifier\n42\nCA*S00222833\n")

	ids, err := lookupIdentifiers([]string{"105842360"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"105842360", "42", "CA*S00222833"}, ids)

	_, err = lookupIdentifiers(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one identifier")

	_, err = lookupIdentifiers(nil, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup: read identifiers")
}

func TestLookupCmd_Table(t *testing.T) {
	useConfig(t, withCDS(testConfig(t), newCDSServer(t)))

	out, err := runCmd(t, lookupCmd, "105842360")
	require.NoError(t, err)
	assert.Contains(t, out, "IDENTIFIER")
	assert.Contains(t, out, "entity_id")
	assert.Contains(t, out, "100 King St W")
	assert.Contains(t, out, "Toronto")
	assert.Contains(t, out, "Canada")
}

func TestLookupCmd_JSONWithFailure(t *testing.T) {
	useConfig(t, withCDS(testConfig(t), newCDSServer(t)))
	setFlag(t, &lookupJSON, true)

	out, err := runCmd(t, lookupCmd, "105842360", "42", "bad id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 lookups failed")

	var entries []lookup.BatchEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)

	assert.Equal(t, "entity_id", entries[0].Kind)
	assert.Len(t, entries[0].Rows, 1)

	assert.True(t, entries[1].Failed())
	assert.Equal(t, "not_found", entries[1].ErrorKind)

	assert.Equal(t, "105842360", entries[0].Identifier)
	assert.Equal(t, "bad id", entries[2].Identifier)
	assert.True(t, entries[2].Failed())
}

func TestLookupCmd_NoIdentifiers(t *testing.T) {
	useConfig(t, testConfig(t))

	_, err := runCmd(t, lookupCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one identifier")
}

func TestImportCmd_ThenDocs(t *testing.T) {
	useConfig(t, testConfig(t))
	setFlag(t, &importBatchSize, 1)

	_, err := runCmd(t, importCmd, writeFile(t, "docs.json", leedsDocs))
	require.NoError(t, err)

	out, err := runCmd(t, docsCmd, "DOC-1")
	require.NoError(t, err)
	assert.Contains(t, out, "DOC-1")
	assert.Contains(t, out, "1 Park Row")
	assert.Contains(t, out, "Bradford")
	assert.NotContains(t, out, "York")
	assert.Contains(t, out, "2 rows in 1 groups")
}

func TestDocsCmd_LoqateJSON(t *testing.T) {
	useConfig(t, testConfig(t))

	_, err := runCmd(t, importCmd, writeFile(t, "docs.json", leedsDocs))
	require.NoError(t, err)

	setFlag(t, &docsJSON, true)
	setFlag(t, &docsLoqate, true)
	out, err := runCmd(t, docsCmd)
	require.NoError(t, err)

	var res lookup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, lookup.Documents, res.Source)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "DOC-1", res.Documents[0].ID)
	assert.Equal(t, "DOC-2", res.Documents[1].ID)
	require.Len(t, res.Groups, 2)
}

func TestDocsCmd_Empty(t *testing.T) {
	useConfig(t, testConfig(t))

	out, err := runCmd(t, docsCmd, "NOPE")
	require.NoError(t, err)
	assert.Contains(t, out, "No addresses found.")
}

func TestImportCmd_Upserts(t *testing.T) {
	c := testConfig(t)
	useConfig(t, c)

	_, err := runCmd(t, importCmd, writeFile(t, "docs.json", leedsDocs))
	require.NoError(t, err)
	_, err = runCmd(t, importCmd, writeFile(t, "docs.yaml", `
_id: DOC-2
d:
  addresses:
    - localizedAddresses:
        - reportedAddress: {city: Hull}
`))
	require.NoError(t, err)

	st, err := docstore.NewSQLite(c.DocStore.DatabaseURL, c.DocStore.Table)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	docs, err := st.Find(context.Background(), docstore.Filter{}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	raw, err := json.Marshal(docs[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Hull")
}

func TestImportCmd_BadFile(t *testing.T) {
	useConfig(t, testConfig(t))

	_, err := runCmd(t, importCmd, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import: read file")

	_, err = runCmd(t, importCmd, writeFile(t, "docs.json", `[{"city": "no id"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no _id or id")
}

func TestMigrateCmd(t *testing.T) {
	useConfig(t, testConfig(t))

	_, err := runCmd(t, migrateCmd)
	require.NoError(t, err)
}

func TestParseJSONDocuments(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr string
	}{
		{name: "array", in: `[{"_id": "a"}, {"_id": "b"}]`, want: 2},
		{name: "ndjson", in: "{\"_id\": \"a\"}\n{\"_id\": \"b\"}\n\n{\"id\": 3}\n", want: 3},
		{name: "single object", in: `{"_id": "a"}`, want: 1},
		{name: "empty", in: "  \n", wantErr: "file is empty"},
		{name: "not objects", in: `[1, 2]`, wantErr: "is not an object"},
		{name: "broken stream", in: "{\"_id\": \"a\"}\n{oops", wantErr: "decode document 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := parseJSONDocuments([]byte(tt.in))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestParseYAMLDocuments(t *testing.T) {
	docs, err := parseYAMLDocuments([]byte(`
- _id: A
  d: {addresses: []}
- _id: B
---
_id: C
---
`))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.JSONEq(t, `{"_id": "A", "d": {"addresses": []}}`, string(docs[0]))
	assert.JSONEq(t, `{"_id": "C"}`, string(docs[2]))

	_, err = parseYAMLDocuments([]byte("- just a string\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a mapping")

	_, err = parseYAMLDocuments([]byte(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is empty")

	_, err = parseYAMLDocuments([]byte("a: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml")
}
