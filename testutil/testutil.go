// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/cliparse"
	"github.com/danielhkuo/publicpulse/db"
	"github.com/danielhkuo/publicpulse/models"
)

// SetupTestDB creates a fresh SQLite database in a temp dir with the full schema.
// The connection is closed when the test ends.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(context.Background(), db.DriverSQLite, path, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, zap.NewNop()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration rooted in a temp dir
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()

	dir := t.TempDir()
	return cliparse.Config{
		Port:           8000,
		DatabaseType:   db.DriverSQLite,
		DatabaseURL:    filepath.Join(dir, "ppp.db"),
		UploadDir:      filepath.Join(dir, "uploads"),
		BatchSize:      2,
		MaxUploadBytes: 1 << 20,
		LogLevel:       "debug",
		LogFormat:      "console",
		CORSOrigins:    []string{"*"},
	}
}

// CreateTestDataset registers a dataset row and returns its ID
func CreateTestDataset(t *testing.T, conn *sqlx.DB, id, filename string) string {
	t.Helper()

	_, err := conn.NamedExec(`
		INSERT INTO datasets (id, filename, stored_path, uploaded_at, rows_ingested, ingest_status, ingest_error)
		VALUES (:id, :filename, :stored_path, :uploaded_at, :rows_ingested, :ingest_status, :ingest_error)
	`, models.Dataset{
		ID:           id,
		Filename:     filename,
		StoredPath:   "/uploads/" + id + "_" + filename,
		UploadedAt:   "2024-03-01T12:00:00Z",
		IngestStatus: models.StatusIngested,
	})
	if err != nil {
		t.Fatalf("Failed to create test dataset: %v", err)
	}
	return id
}

// InsertTestRows appends canonical rows to a dataset in slice order
func InsertTestRows(t *testing.T, conn *sqlx.DB, datasetID string, rows ...models.CanonicalRow) {
	t.Helper()

	for _, row := range rows {
		_, err := conn.NamedExec(`
			INSERT INTO raw_rows (dataset_id, question_id, resp_txt, resp_pct, question_txt,
				release_date, survey_org, country, sample_size, sample_desc, link,
				survey_sponsor, study_note, question_note, sub_population)
			VALUES (:dataset_id, :question_id, :resp_txt, :resp_pct, :question_txt,
				:release_date, :survey_org, :country, :sample_size, :sample_desc, :link,
				:survey_sponsor, :study_note, :question_note, :sub_population)
		`, struct {
			DatasetID string `db:"dataset_id"`
			models.CanonicalRow
		}{datasetID, row})
		if err != nil {
			t.Fatalf("Failed to insert test row: %v", err)
		}
	}
}

// Row builds a canonical row with fixed survey metadata
func Row(questionID, respTxt, respPct, questionTxt string) models.CanonicalRow {
	return models.CanonicalRow{
		QuestionID:  questionID,
		RespTxt:     respTxt,
		RespPct:     respPct,
		QuestionTxt: questionTxt,
		ReleaseDate: "2024-03-01",
		SurveyOrg:   "Pew Research Center",
		Country:     "United States",
		SampleSize:  "1500",
		SampleDesc:  "National adult",
		Link:        "https://example.org/" + questionID,
		StudyNote:   "Weighted",
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request with one file part named "file"
func MakeUploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
