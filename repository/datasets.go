// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// UploadedAtLayout is the stored form of datasets.uploaded_at.
const UploadedAtLayout = time.RFC3339

type DatasetRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB, logger *zap.Logger) *DatasetRepository {
	return &DatasetRepository{db: db, logger: logger, now: time.Now}
}

// Create registers a dataset in the pending state. UploadedAt is set to the
// current UTC time at second precision when empty.
func (r *DatasetRepository) Create(ctx context.Context, d *models.Dataset) error {
	if d.UploadedAt == "" {
		d.UploadedAt = r.now().UTC().Truncate(time.Second).Format(UploadedAtLayout)
	}
	if d.IngestStatus == "" {
		d.IngestStatus = models.StatusPending
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO datasets (id, filename, stored_path, uploaded_at, rows_ingested, ingest_status, ingest_error)
		VALUES (:id, :filename, :stored_path, :uploaded_at, :rows_ingested, :ingest_status, :ingest_error)
	`, d)
	if err != nil {
		r.logger.Error("Failed to create dataset", zap.String("dataset_id", d.ID), zap.Error(err))
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, id string) (*models.Dataset, error) {
	var d models.Dataset
	err := r.db.GetContext(ctx, &d, r.db.Rebind(`
		SELECT id, filename, stored_path, uploaded_at, rows_ingested, ingest_status, ingest_error
		FROM datasets
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get dataset", zap.String("dataset_id", id), zap.Error(err))
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return &d, nil
}

// List returns one page of datasets, newest upload first, and the total count.
func (r *DatasetRepository) List(ctx context.Context, limit, offset int) ([]models.Dataset, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM datasets`); err != nil {
		r.logger.Error("Failed to count datasets", zap.Error(err))
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	items := []models.Dataset{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT id, filename, stored_path, uploaded_at, rows_ingested, ingest_status, ingest_error
		FROM datasets
		ORDER BY uploaded_at DESC, id ASC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list datasets", zap.Error(err))
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	return items, total, nil
}

// UpdateStatus records the outcome of an ingest attempt.
func (r *DatasetRepository) UpdateStatus(ctx context.Context, id, status string, rows int, ingestErr string) error {
	return r.updateStatus(ctx, r.db, id, status, rows, ingestErr)
}

// UpdateStatusTx is UpdateStatus inside tx, so the outcome commits with the rows.
func (r *DatasetRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id, status string, rows int, ingestErr string) error {
	return r.updateStatus(ctx, tx, id, status, rows, ingestErr)
}

func (r *DatasetRepository) updateStatus(ctx context.Context, ex sqlx.ExtContext, id, status string, rows int, ingestErr string) error {
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE datasets
		SET ingest_status = ?, rows_ingested = ?, ingest_error = ?
		WHERE id = ?
	`), status, rows, ingestErr, id)
	if err != nil {
		r.logger.Error("Failed to update dataset status",
			zap.String("dataset_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return fmt.Errorf("update dataset status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
