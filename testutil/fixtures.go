// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/publicpulse/schema"
)

// SurveyHeader returns a header carrying every canonical column.
func SurveyHeader() []string {
	return append([]string(nil), schema.CanonicalColumns...)
}

// SurveyRecord builds a record aligned with SurveyHeader. Survey-level
// fields get fixed filler so rows of one question share metadata.
func SurveyRecord(questionID, respTxt, respPct, questionTxt string) []string {
	rec := make([]string, len(schema.CanonicalColumns))
	for i, col := range schema.CanonicalColumns {
		switch col {
		case schema.QuestionID:
			rec[i] = questionID
		case schema.RespTxt:
			rec[i] = respTxt
		case schema.RespPct:
			rec[i] = respPct
		case schema.QuestionTxt:
			rec[i] = questionTxt
		case schema.ReleaseDate:
			rec[i] = "2024-03-01"
		case schema.SurveyOrg:
			rec[i] = "Pew Research Center"
		case schema.Country:
			rec[i] = "United States"
		case schema.SampleSize:
			rec[i] = "1500"
		case schema.SampleDesc:
			rec[i] = "National adult"
		case schema.Link:
			rec[i] = "https://example.org/" + questionID
		case schema.StudyNote:
			rec[i] = "Weighted"
		}
	}
	return rec
}

// CSVBytes encodes header and records with the given delimiter.
func CSVBytes(t *testing.T, comma rune, header []string, records [][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if header != nil {
		if err := w.Write(header); err != nil {
			t.Fatalf("Failed to write CSV header: %v", err)
		}
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("Failed to write CSV records: %v", err)
	}
	return buf.Bytes()
}

// WriteCSV writes a comma-separated fixture to path on fs.
func WriteCSV(t *testing.T, fs afero.Fs, path string, header []string, records [][]string) string {
	t.Helper()
	WriteFile(t, fs, path, CSVBytes(t, ',', header, records))
	return path
}

// XLSXBytes builds a single-sheet workbook from header and records.
func XLSXBytes(t *testing.T, header []string, records [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	rows := append([][]string{header}, records...)
	for i, rec := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to address row %d: %v", i+1, err)
		}
		vals := make([]interface{}, len(rec))
		for j, v := range rec {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			t.Fatalf("Failed to write row %d: %v", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Failed to encode workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteXLSX writes a workbook fixture to path on fs.
func WriteXLSX(t *testing.T, fs afero.Fs, path string, header []string, records [][]string) string {
	t.Helper()
	WriteFile(t, fs, path, XLSXBytes(t, header, records))
	return path
}

// WriteFile writes raw bytes to path on fs.
func WriteFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
}
