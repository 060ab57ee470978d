package reader

import (
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/csvview/table"
)

func TestParseCSV_Inference(t *testing.T) {
	data := []byte("id,name,score,notes\n1,alice,1.5,\n2,bob,NA,late\n3,carol,2,\n")

	tbl, err := ParseCSV("people.csv", data, Options{})
	require.NoError(t, err)

	assert.Equal(t, []table.Column{
		{Name: "id", Type: table.TypeInteger},
		{Name: "name", Type: table.TypeText},
		{Name: "score", Type: table.TypeFloat},
		{Name: "notes", Type: table.TypeText},
	}, tbl.Columns())
	require.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, int64(2), tbl.Value(1, 0))
	assert.Nil(t, tbl.Value(1, 2))
	assert.Equal(t, 2.0, tbl.Value(2, 2))
	assert.Nil(t, tbl.Value(0, 3))
	assert.Equal(t, "late", tbl.Value(1, 3))
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	tbl, err := ParseCSV("h.csv", []byte("a,b\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	assert.Equal(t, table.TypeText, tbl.Columns()[0].Type)
}

func TestParseCSV_HeaderMangling(t *testing.T) {
	tbl, err := ParseCSV("m.csv", []byte("a,,a,a\n1,2,3,4\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "a.2"}, tbl.ColumnNames())
}

func TestParseCSV_TextKeptVerbatim(t *testing.T) {
	tbl, err := ParseCSV("v.csv", []byte("k\n  padded \nx\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "  padded ", tbl.Value(0, 0))
}

func TestParseCSV_QuotedFields(t *testing.T) {
	tbl, err := ParseCSV("q.csv", []byte("a,b\n\"x, y\",\"multi\nline\"\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "x, y", tbl.Value(0, 0))
	assert.Equal(t, "multi\nline", tbl.Value(0, 1))
}

func TestParseCSV_Delimiters(t *testing.T) {
	tsv, err := ParseCSV("data.tsv", []byte("a\tb\n1\t2\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tsv.ColumnNames())

	semi, err := ParseCSV("data.csv", []byte("a;b\n1;2\n"), Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, int64(2), semi.Value(0, 1))
}

func TestParseCSV_CustomNullTokens(t *testing.T) {
	tbl, err := ParseCSV("n.csv", []byte("a\n-\n5\n"), Options{NullTokens: []string{"-"}})
	require.NoError(t, err)
	assert.Equal(t, table.TypeInteger, tbl.Columns()[0].Type)
	assert.Nil(t, tbl.Value(0, 0))

	tbl, err = ParseCSV("n.csv", []byte("a\nNA\n5\n"), Options{NullTokens: []string{}})
	require.NoError(t, err)
	assert.Equal(t, table.TypeText, tbl.Columns()[0].Type)
	assert.Equal(t, "NA", tbl.Value(0, 0))
}

func TestParseCSV_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,x\n")...)
	tbl, err := ParseCSV("bom.csv", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, tbl.ColumnNames())
	assert.Equal(t, table.TypeInteger, tbl.Columns()[0].Type)
}

func TestParseCSV_UTF16(t *testing.T) {
	// "a,b\n1,2\n" as UTF-16 little endian with BOM
	text := "a,b\n1,2\n"
	data := []byte{0xFF, 0xFE}
	for _, r := range text {
		data = append(data, byte(r), 0)
	}

	tbl, err := ParseCSV("wide.csv", data, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	assert.Equal(t, int64(2), tbl.Value(0, 1))
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  error
		wantLine int
	}{
		{name: "empty", data: "", wantErr: ErrEmptyInput},
		{name: "blank lines only", data: "\n\n", wantErr: ErrEmptyInput},
		{name: "ragged row", data: "a,b\n1,2\n3\n", wantErr: csv.ErrFieldCount, wantLine: 3},
		{name: "bare quote", data: "a,b\n1,x\"y\n", wantErr: csv.ErrBareQuote, wantLine: 2},
		{name: "unterminated quote", data: "a,b\n1,\"open\n", wantErr: csv.ErrQuote, wantLine: 2},
		{name: "invalid utf8", data: "a\n\xff\xfe\xfd\n", wantErr: ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV("bad.csv", []byte(tt.data), Options{})
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, "bad.csv", pe.File)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, pe.Line)
			}
			assert.Contains(t, err.Error(), "bad.csv")
		})
	}
}
