// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/schema"
	"github.com/danielhkuo/publicpulse/testutil"
)

func collect(t *testing.T, fs afero.Fs, path, ext string) []models.CanonicalRow {
	t.Helper()

	src, err := Open(fs, path, ext)
	require.NoError(t, err)
	defer src.Close()

	var rows []models.CanonicalRow
	n, err := Normalize(src, func(r models.CanonicalRow) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(rows), n)
	return rows
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want Format
	}{
		{".csv", FormatDelimited},
		{".CSV", FormatDelimited},
		{"csv", FormatDelimited},
		{".tsv", FormatDelimited},
		{".txt", FormatDelimited},
		{".xlsx", FormatSpreadsheet},
		{".XLSM", FormatSpreadsheet},
		{".xls", FormatUnsupported},
		{".json", FormatUnsupported},
		{"", FormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.ext))
		})
	}
}

func TestOpenHeaderGate(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("missing link", func(t *testing.T) {
		header := []string{"QuestionID", "RespTxt", "RespPct", "QuestionTxt", "ReleaseDate", "SurveyOrg", "Country", "SampleSize", "SampleDesc"}
		path := testutil.WriteCSV(t, fs, "/in/nolink.csv", header, [][]string{
			{"Q1", "Yes", "60", "Q?", "2024", "Org", "US", "100", "Adults"},
		})

		src, err := Open(fs, path, ".csv")
		assert.Nil(t, src)

		var sve *SchemaValidationError
		require.ErrorAs(t, err, &sve)
		assert.Equal(t, []string{"Link"}, sve.Missing)
		assert.Contains(t, err.Error(), "Link")
	})

	t.Run("empty file", func(t *testing.T) {
		testutil.WriteFile(t, fs, "/in/empty.csv", nil)

		_, err := Open(fs, "/in/empty.csv", ".csv")
		var sve *SchemaValidationError
		require.ErrorAs(t, err, &sve)
		assert.Equal(t, schema.Required, sve.Missing)
	})

	t.Run("spreadsheet missing columns", func(t *testing.T) {
		path := testutil.WriteXLSX(t, fs, "/in/short.xlsx", []string{"QuestionID", "RespTxt"}, nil)

		_, err := Open(fs, path, ".xlsx")
		var sve *SchemaValidationError
		require.ErrorAs(t, err, &sve)
		assert.NotContains(t, sve.Missing, "QuestionID")
		assert.Contains(t, sve.Missing, "Link")
	})
}

func TestOpenUnsupported(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/in/data.json", []byte(`{}`))

	src, err := Open(fs, "/in/data.json", ".json")
	assert.Nil(t, src)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(afero.NewMemMapFs(), "/nope.csv", ".csv")
	require.Error(t, err)
	var sve *SchemaValidationError
	assert.False(t, errors.As(err, &sve))
}

func TestNormalizeCSV(t *testing.T) {
	fs := afero.NewMemMapFs()

	// required columns only, reordered, plus an extra column
	header := []string{"Link", "QuestionID", "Extra", "RespTxt", "RespPct", "QuestionTxt", "ReleaseDate", "SurveyOrg", "Country", "SampleSize", "SampleDesc"}
	path := testutil.WriteCSV(t, fs, "/in/survey.csv", header, [][]string{
		{"http://x/1", "Q1", "junk", "Yes", "60", "Do you agree?", "2024-01-01", "Gallup", "US", "1000", "Adults"},
		{"", "", "", "", "", "", "", "", "", "", ""},
		{"http://x/1", "Q1", "junk", "No", "", "Do you agree?", "2024-01-01", "Gallup", "US", "1000", "Adults"},
		{"http://x/2", "Q2", "junk", "Maybe", "10", "Second?"}, // short record
	})

	rows := collect(t, fs, path, ".csv")
	require.Len(t, rows, 3)

	assert.Equal(t, "Q1", rows[0].QuestionID)
	assert.Equal(t, "Yes", rows[0].RespTxt)
	assert.Equal(t, "60", rows[0].RespPct)
	assert.Equal(t, "http://x/1", rows[0].Link)
	assert.Equal(t, "", rows[0].SurveySponsor)
	assert.Equal(t, "", rows[0].SubPopulation)

	assert.Equal(t, "No", rows[1].RespTxt)
	assert.Equal(t, "", rows[1].RespPct)

	assert.Equal(t, "Q2", rows[2].QuestionID)
	assert.Equal(t, "Second?", rows[2].QuestionTxt)
	assert.Equal(t, "", rows[2].Country)

	for _, r := range rows {
		assert.Len(t, r.Values(), len(schema.CanonicalColumns))
	}
}

func TestNormalizeDelimiters(t *testing.T) {
	fs := afero.NewMemMapFs()
	header := testutil.SurveyHeader()
	records := [][]string{testutil.SurveyRecord("Q1", "Yes, definitely", "55", "Agree?")}

	tests := []struct {
		name  string
		path  string
		ext   string
		comma rune
	}{
		{"tab separated", "/in/survey.tsv", ".tsv", '\t'},
		{"semicolon sniffed", "/in/semi.csv", ".csv", ';'},
		{"tab sniffed in txt", "/in/tabbed.txt", ".txt", '\t'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.WriteFile(t, fs, tt.path, testutil.CSVBytes(t, tt.comma, header, records))

			rows := collect(t, fs, tt.path, tt.ext)
			require.Len(t, rows, 1)
			assert.Equal(t, "Yes, definitely", rows[0].RespTxt)
			assert.Equal(t, "Pew Research Center", rows[0].SurveyOrg)
		})
	}
}

func TestNormalizeBOM(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := testutil.CSVBytes(t, ',', testutil.SurveyHeader(), [][]string{
		testutil.SurveyRecord("Q1", "Yes", "60", "Agree?"),
	})
	testutil.WriteFile(t, fs, "/in/bom.csv", append([]byte("\xef\xbb\xbf"), body...))

	rows := collect(t, fs, "/in/bom.csv", ".csv")
	require.Len(t, rows, 1)
	assert.Equal(t, "Q1", rows[0].QuestionID)
}

func TestNormalizeXLSX(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := testutil.WriteXLSX(t, fs, "/in/survey.xlsx", testutil.SurveyHeader(), [][]string{
		testutil.SurveyRecord("Q1", "Yes", "60", "Agree?"),
		testutil.SurveyRecord("Q1", "No", "40", "Agree?"),
		testutil.SurveyRecord("Q2", "Red", "", "Favorite color?"),
	})

	rows := collect(t, fs, path, ".XLSX")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Yes", "No", "Red"}, []string{rows[0].RespTxt, rows[1].RespTxt, rows[2].RespTxt})
	assert.Equal(t, "", rows[2].RespPct)
	assert.Equal(t, "https://example.org/Q2", rows[2].Link)
}

func TestNormalizeXLSXStoredValues(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	header := testutil.SurveyHeader()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	rec := testutil.SurveyRecord("Q1", "Yes", "", "Agree?")
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &rec))

	// RespPct is the third column; store a number with a percent format
	require.NoError(t, f.SetCellValue("Sheet1", "C2", 0.6))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", style))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/in/pct.xlsx", buf.Bytes())

	rows := collect(t, fs, "/in/pct.xlsx", ".xlsx")
	require.Len(t, rows, 1)
	assert.Equal(t, "0.6", rows[0].RespPct)
}

func TestNormalizeEmitError(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := testutil.WriteCSV(t, fs, "/in/survey.csv", testutil.SurveyHeader(), [][]string{
		testutil.SurveyRecord("Q1", "Yes", "60", "Agree?"),
		testutil.SurveyRecord("Q1", "No", "40", "Agree?"),
	})

	src, err := Open(fs, path, ".csv")
	require.NoError(t, err)
	defer src.Close()

	stop := errors.New("stop")
	n, err := Normalize(src, func(r models.CanonicalRow) error {
		if r.RespTxt == "No" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

// fakeSource replays records, then returns err (or panics if panicMsg is set).
type fakeSource struct {
	header   []string
	records  [][]string
	err      error
	panicMsg string
	pos      int
}

func (f *fakeSource) Header() []string { return f.header }
func (f *fakeSource) Line() int         { return f.pos + 1 }
func (f *fakeSource) Close() error      { return nil }

func (f *fakeSource) Next() ([]string, error) {
	if f.pos < len(f.records) {
		f.pos++
		return f.records[f.pos-1], nil
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, io.EOF
}

func TestNormalizeFaults(t *testing.T) {
	header := testutil.SurveyHeader()
	records := [][]string{testutil.SurveyRecord("Q1", "Yes", "60", "Agree?")}
	noop := func(models.CanonicalRow) error { return nil }

	t.Run("read error becomes ParseFault", func(t *testing.T) {
		boom := errors.New("boom")
		n, err := Normalize(&fakeSource{header: header, records: records, err: boom}, noop)
		assert.Equal(t, 1, n)

		var pf *ParseFault
		require.ErrorAs(t, err, &pf)
		assert.Equal(t, 2, pf.Line)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panic becomes ParseFault", func(t *testing.T) {
		n, err := Normalize(&fakeSource{header: header, records: records, panicMsg: "bad cell"}, noop)
		assert.Equal(t, 1, n)

		var pf *ParseFault
		require.ErrorAs(t, err, &pf)
		assert.Contains(t, pf.Error(), "bad cell")
	})
}

func TestParseFaultReason(t *testing.T) {
	tests := []struct {
		name string
		pf   *ParseFault
		want string
	}{
		{"line and cause", &ParseFault{Path: "/srv/up/x.csv", Line: 4, Err: errors.New("bare quote")}, "line 4: bare quote"},
		{"no line", &ParseFault{Path: "/srv/up/x.xlsx", Err: errors.New("zip: not a valid zip file")}, "zip: not a valid zip file"},
		{"path error", &ParseFault{Path: "/srv/up/x.csv", Err: fmt.Errorf("open /srv/up/x.csv: %w", &fs.PathError{Op: "open", Path: "/srv/up/x.csv", Err: fs.ErrNotExist})}, "open: file does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pf.Reason())
			assert.NotContains(t, tt.pf.Reason(), "/srv/up")
			assert.Contains(t, tt.pf.Error(), "/srv/up")
		})
	}
}
