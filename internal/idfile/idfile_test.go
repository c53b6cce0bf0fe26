package idfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("ids")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "ids.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadCSV(t *testing.T) {
	in := "identifier,note\n105842360,hq\n\n# skipped\n CA*S00222833 ,branch\nbad id\n"
	ids, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"105842360", "CA*S00222833", "bad id"}, ids)
}

func TestReadCSV_NoHeader(t *testing.T) {
	ids, err := ReadCSV(strings.NewReader("1\n2\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\"unterminated\n"))
	assert.Error(t, err)
}

func TestRead_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("42\nUSFEI1018186\n"), 0o644))

	ids, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "USFEI1018186"}, ids)
}

func TestRead_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"entity_id", "name"},
		{"105842360", "Acme"},
		{"", "blank"},
		{"CA*S00222833"},
	})

	ids, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"105842360", "CA*S00222833"}, ids)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = Read(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
