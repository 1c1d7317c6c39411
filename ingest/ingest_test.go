// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/normalizer"
	"github.com/danielhkuo/publicpulse/repository"
	"github.com/danielhkuo/publicpulse/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	conn     *sqlx.DB
	fs       afero.Fs
	datasets *repository.DatasetRepository
	rows     *repository.RowRepository
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	logger := zaptest.NewLogger(t)
	return fixture{
		conn:     conn,
		fs:       afero.NewMemMapFs(),
		datasets: repository.NewDatasetRepository(conn, logger),
		rows:     repository.NewRowRepository(conn, logger),
	}
}

func (f fixture) ingester(t *testing.T, batch int, rows RowWriter) *Ingester {
	if rows == nil {
		rows = f.rows
	}
	return New(f.conn, f.fs, f.datasets, rows, batch, zaptest.NewLogger(t))
}

func (f fixture) dataset(t *testing.T, id string) *models.Dataset {
	t.Helper()
	d, err := f.datasets.Get(context.Background(), id)
	require.NoError(t, err)
	return d
}

func surveyRecords() [][]string {
	return [][]string{
		testutil.SurveyRecord("Q1", "Yes", "60", "Do you approve?"),
		testutil.SurveyRecord("Q1", "No", "35", "Do you approve?"),
		testutil.SurveyRecord("Q1", "Unsure", "5", "Do you approve?"),
		testutil.SurveyRecord("Q2", "Economy", "40", "Most important issue?"),
		testutil.SurveyRecord("Q2", "Health", "30", "Most important issue?"),
	}
}

func TestIngestCSV(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "survey.csv")
	path := testutil.WriteCSV(t, f.fs, "/up/ds1_survey.csv", testutil.SurveyHeader(), surveyRecords())

	// batch of 2 forces several flushes plus a partial one
	n, err := f.ingester(t, 2, nil).Ingest(ctx, "ds1", path, ".csv")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	count, err := f.rows.CountByDataset(ctx, "ds1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	d := f.dataset(t, "ds1")
	assert.Equal(t, models.StatusIngested, d.IngestStatus)
	assert.Equal(t, 5, d.RowsIngested)
	assert.Empty(t, d.IngestError)

	rows, err := f.rows.RowsForKeys(ctx, repository.Filter{}, []repository.BlockKey{{DatasetID: "ds1", QuestionID: "Q1"}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Yes", "No", "Unsure"}, []string{rows[0].RespTxt, rows[1].RespTxt, rows[2].RespTxt})
}

func TestIngestXLSX(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "survey.xlsx")
	path := testutil.WriteXLSX(t, f.fs, "/up/ds1_survey.xlsx", testutil.SurveyHeader(), surveyRecords())

	n, err := f.ingester(t, 0, nil).Ingest(ctx, "ds1", path, ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, models.StatusIngested, f.dataset(t, "ds1").IngestStatus)
}

func TestIngestHeaderGate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "nolink.csv")

	header := []string{"QuestionID", "RespTxt", "RespPct", "QuestionTxt", "ReleaseDate", "SurveyOrg", "Country", "SampleSize", "SampleDesc"}
	path := testutil.WriteCSV(t, f.fs, "/up/nolink.csv", header, [][]string{
		{"Q1", "Yes", "60", "Approve?", "2024", "Org", "US", "100", "Adults"},
	})

	n, err := f.ingester(t, 0, nil).Ingest(ctx, "ds1", path, ".csv")
	assert.Zero(t, n)

	var sve *normalizer.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []string{"Link"}, sve.Missing)

	count, err := f.rows.CountByDataset(ctx, "ds1")
	require.NoError(t, err)
	assert.Zero(t, count)

	d := f.dataset(t, "ds1")
	assert.Equal(t, models.StatusFailed, d.IngestStatus)
	assert.Contains(t, d.IngestError, "Link")
}

func TestIngestUnsupported(t *testing.T) {
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "notes.pdf")
	testutil.WriteFile(t, f.fs, "/up/notes.pdf", []byte("%PDF-1.4"))

	n, err := f.ingester(t, 0, nil).Ingest(context.Background(), "ds1", "/up/notes.pdf", ".pdf")
	assert.Zero(t, n)
	assert.ErrorIs(t, err, normalizer.ErrUnsupportedFormat)
	assert.Equal(t, models.StatusUnsupported, f.dataset(t, "ds1").IngestStatus)
}

func TestIngestCorruptSpreadsheet(t *testing.T) {
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "broken.xlsx")
	testutil.WriteFile(t, f.fs, "/up/broken.xlsx", []byte("this is not a zip archive"))

	_, err := f.ingester(t, 0, nil).Ingest(context.Background(), "ds1", "/up/broken.xlsx", ".xlsx")
	var pf *normalizer.ParseFault
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "/up/broken.xlsx", pf.Path)

	d := f.dataset(t, "ds1")
	assert.Equal(t, models.StatusFailed, d.IngestStatus)
	assert.NotEmpty(t, d.IngestError)
	assert.NotContains(t, d.IngestError, "/up/")
}

func TestIngestMissingFile(t *testing.T) {
	f := setup(t)
	testutil.CreateTestDataset(t, f.conn, "ds1", "gone.csv")

	_, err := f.ingester(t, 0, nil).Ingest(context.Background(), "ds1", "/up/gone.csv", ".csv")
	var pf *normalizer.ParseFault
	require.ErrorAs(t, err, &pf)
	assert.Contains(t, err.Error(), "/up/gone.csv")

	d := f.dataset(t, "ds1")
	assert.Equal(t, models.StatusFailed, d.IngestStatus)
	assert.Equal(t, "open: file does not exist", d.IngestError)
}

// flakyWriter delegates to next and fails (or panics) on call number failOn.
type flakyWriter struct {
	next   RowWriter
	failOn int
	panics bool
	calls  int
}

func (w *flakyWriter) InsertBatch(ctx context.Context, tx *sqlx.Tx, datasetID string, rows []models.CanonicalRow) error {
	w.calls++
	if w.calls == w.failOn {
		if w.panics {
			panic("writer exploded")
		}
		return errors.New("disk full")
	}
	return w.next.InsertBatch(ctx, tx, datasetID, rows)
}

func TestIngestRollsBackPartialFile(t *testing.T) {
	tests := []struct {
		name      string
		panics    bool
		wantStore bool
	}{
		{"store fault", false, true},
		{"parse fault", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := setup(t)
			testutil.CreateTestDataset(t, f.conn, "ds1", "survey.csv")
			path := testutil.WriteCSV(t, f.fs, "/up/survey.csv", testutil.SurveyHeader(), surveyRecords())

			w := &flakyWriter{next: f.rows, failOn: 2, panics: tt.panics}
			n, err := f.ingester(t, 2, w).Ingest(ctx, "ds1", path, ".csv")
			require.Error(t, err)
			assert.Zero(t, n)

			var sf *StoreFault
			var pf *normalizer.ParseFault
			assert.Equal(t, tt.wantStore, errors.As(err, &sf))
			assert.Equal(t, !tt.wantStore, errors.As(err, &pf))

			// first batch was written before the failure and must not survive
			count, err := f.rows.CountByDataset(ctx, "ds1")
			require.NoError(t, err)
			assert.Zero(t, count)

			d := f.dataset(t, "ds1")
			assert.Equal(t, models.StatusFailed, d.IngestStatus)
			assert.Zero(t, d.RowsIngested)
		})
	}
}

func TestIngestConcurrent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	ing := f.ingester(t, 3, nil)

	const files = 4
	for i := 0; i < files; i++ {
		id := fmt.Sprintf("ds%d", i)
		testutil.CreateTestDataset(t, f.conn, id, "survey.csv")
		testutil.WriteCSV(t, f.fs, "/up/"+id+".csv", testutil.SurveyHeader(), surveyRecords())
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < files; i++ {
		id := fmt.Sprintf("ds%d", i)
		g.Go(func() error {
			_, err := ing.Ingest(gctx, id, "/up/"+id+".csv", ".csv")
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < files; i++ {
		id := fmt.Sprintf("ds%d", i)
		count, err := f.rows.CountByDataset(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 5, count, id)

		// rows of one file stay contiguous in arrival order
		rows, err := f.rows.RowsForKeys(ctx, repository.Filter{DatasetID: id}, []repository.BlockKey{
			{DatasetID: id, QuestionID: "Q1"},
			{DatasetID: id, QuestionID: "Q2"},
		})
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, int64(4), rows[4].ArrivalSeq-rows[0].ArrivalSeq, id)
	}
}

func TestNewClampsBatchSize(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, New(nil, nil, nil, nil, 0, zaptest.NewLogger(t)).batchSize)
	assert.Equal(t, MaxBatchSize, New(nil, nil, nil, nil, 1<<20, zaptest.NewLogger(t)).batchSize)
	assert.Equal(t, 7, New(nil, nil, nil, nil, 7, zaptest.NewLogger(t)).batchSize)
}
