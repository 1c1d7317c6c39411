// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
)

// CreatedAtLayout is the stored form of selections.created_at. It sorts
// lexically in time order.
const CreatedAtLayout = "2006-01-02T15:04:05.000000Z"

type SelectionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSelectionRepository creates a new selection repository
func NewSelectionRepository(db *sqlx.DB, logger *zap.Logger) *SelectionRepository {
	return &SelectionRepository{db: db, logger: logger, now: time.Now}
}

// Add saves a question for a user. Adding an existing selection is a no-op
// and keeps its original created_at.
func (r *SelectionRepository) Add(ctx context.Context, userID, datasetID, questionID string) error {
	createdAt := r.now().UTC().Format(CreatedAtLayout)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO selections (user_id, dataset_id, question_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, dataset_id, question_id) DO NOTHING
	`), userID, datasetID, questionID, createdAt)
	if err != nil {
		r.logger.Error("Failed to add selection",
			zap.String("user_id", userID),
			zap.String("dataset_id", datasetID),
			zap.Error(err),
		)
		return fmt.Errorf("add selection: %w", err)
	}
	return nil
}

// Remove deletes a selection. Removing an absent selection is not an error.
func (r *SelectionRepository) Remove(ctx context.Context, userID, datasetID, questionID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM selections
		WHERE user_id = ? AND dataset_id = ? AND question_id = ?
	`), userID, datasetID, questionID)
	if err != nil {
		r.logger.Error("Failed to remove selection", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("remove selection: %w", err)
	}
	return nil
}

// List returns a user's selections in one dataset, newest first.
func (r *SelectionRepository) List(ctx context.Context, userID, datasetID string) ([]models.Selection, error) {
	items := []models.Selection{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT id, question_id, created_at
		FROM selections
		WHERE user_id = ? AND dataset_id = ?
		ORDER BY created_at DESC, id DESC
	`), userID, datasetID)
	if err != nil {
		r.logger.Error("Failed to list selections", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return items, nil
}

// ListAll returns a user's selections across every dataset, newest first.
func (r *SelectionRepository) ListAll(ctx context.Context, userID string) ([]models.Selection, error) {
	items := []models.Selection{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT id, dataset_id, question_id, created_at
		FROM selections
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`), userID)
	if err != nil {
		r.logger.Error("Failed to list all selections", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list all selections: %w", err)
	}
	return items, nil
}
