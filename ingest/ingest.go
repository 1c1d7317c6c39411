// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/normalizer"
)

const (
	DefaultBatchSize = 500
	// MaxBatchSize keeps one multi-row insert under the driver parameter limits.
	MaxBatchSize = 1000
)

// StoreFault wraps a persistence failure during ingest.
type StoreFault struct {
	Op  string
	Err error
}

func (e *StoreFault) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreFault) Unwrap() error { return e.Err }

// DatasetStatus records ingest outcomes on the dataset registry.
type DatasetStatus interface {
	UpdateStatus(ctx context.Context, id, status string, rows int, ingestErr string) error
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id, status string, rows int, ingestErr string) error
}

// RowWriter appends canonical rows inside a transaction.
type RowWriter interface {
	InsertBatch(ctx context.Context, tx *sqlx.Tx, datasetID string, rows []models.CanonicalRow) error
}

// Ingester loads one stored file into the raw row store.
type Ingester struct {
	db        *sqlx.DB
	fs        afero.Fs
	datasets  DatasetStatus
	rows      RowWriter
	batchSize int
	logger    *zap.Logger
}

// New creates an Ingester. batchSize is clamped to [1, MaxBatchSize];
// zero selects DefaultBatchSize.
func New(db *sqlx.DB, fs afero.Fs, datasets DatasetStatus, rows RowWriter, batchSize int, logger *zap.Logger) *Ingester {
	switch {
	case batchSize <= 0:
		batchSize = DefaultBatchSize
	case batchSize > MaxBatchSize:
		batchSize = MaxBatchSize
	}
	return &Ingester{
		db:        db,
		fs:        fs,
		datasets:  datasets,
		rows:      rows,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Ingest normalizes the file at path and appends its rows to datasetID.
//
// All rows of one file commit together with the dataset's ingested status,
// or none do. On failure the dataset is marked failed (or unsupported) and
// the returned error is one of:
//
//   - *normalizer.SchemaValidationError: header check failed, nothing read
//   - normalizer.ErrUnsupportedFormat: extension not recognized, nothing read
//   - *normalizer.ParseFault: the file could not be decoded
//   - *StoreFault: the database rejected a write
func (in *Ingester) Ingest(ctx context.Context, datasetID, path, ext string) (int, error) {
	log := in.logger.With(zap.String("dataset_id", datasetID), zap.String("path", path))
	start := time.Now()

	src, err := normalizer.Open(in.fs, path, ext)
	if err != nil {
		status := models.StatusFailed
		var (
			sve *normalizer.SchemaValidationError
			pf  *normalizer.ParseFault
		)
		switch {
		case errors.Is(err, normalizer.ErrUnsupportedFormat):
			status = models.StatusUnsupported
			log.Info("Skipping unsupported file", zap.String("ext", ext))
		case errors.As(err, &sve):
			log.Info("Rejected file header", zap.Strings("missing", sve.Missing))
		case errors.As(err, &pf):
			log.Warn("Failed to read file", zap.Error(err))
		default:
			err = &normalizer.ParseFault{Path: path, Err: err}
			log.Warn("Failed to open file", zap.Error(err))
		}
		return 0, in.markFailed(ctx, datasetID, status, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("Failed to close source", zap.Error(cerr))
		}
	}()

	n, err := in.load(ctx, datasetID, src)
	if err != nil {
		var pf *normalizer.ParseFault
		if errors.As(err, &pf) && pf.Path == "" {
			pf.Path = path
		}
		log.Error("Ingest failed", zap.Int("rows_read", n), zap.Error(err))
		return 0, in.markFailed(ctx, datasetID, models.StatusFailed, err)
	}

	log.Info("Dataset ingested",
		zap.Int("rows", n),
		zap.Duration("took", time.Since(start)),
	)
	return n, nil
}

// load streams src into one transaction and commits it with the status update.
func (in *Ingester) load(ctx context.Context, datasetID string, src normalizer.RowSource) (n int, err error) {
	tx, err := in.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &StoreFault{Op: "begin transaction", Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = multierr.Append(err, &StoreFault{Op: "rollback", Err: rerr})
		}
	}()

	batch := make([]models.CanonicalRow, 0, in.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := in.rows.InsertBatch(ctx, tx, datasetID, batch); err != nil {
			return &StoreFault{Op: "insert rows", Err: err}
		}
		batch = batch[:0]
		return nil
	}

	n, err = normalizer.Normalize(src, func(row models.CanonicalRow) error {
		batch = append(batch, row)
		if len(batch) >= in.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := flush(); err != nil {
		return n, err
	}

	if err := in.datasets.UpdateStatusTx(ctx, tx, datasetID, models.StatusIngested, n, ""); err != nil {
		return n, &StoreFault{Op: "update dataset", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return n, &StoreFault{Op: "commit", Err: err}
	}
	return n, nil
}

// markFailed records a failed outcome even when ctx was canceled mid-ingest.
// Parse faults are recorded without the stored path.
func (in *Ingester) markFailed(ctx context.Context, datasetID, status string, cause error) error {
	reason := cause.Error()
	var pf *normalizer.ParseFault
	if errors.As(cause, &pf) {
		reason = pf.Reason()
	}
	if uerr := in.datasets.UpdateStatus(context.WithoutCancel(ctx), datasetID, status, 0, reason); uerr != nil {
		return multierr.Append(cause, &StoreFault{Op: "mark dataset " + status, Err: uerr})
	}
	return cause
}
