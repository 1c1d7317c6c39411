// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/danielhkuo/publicpulse/models"
)

const storedRowColumns = `arrival_seq, dataset_id,
	question_id, resp_txt, resp_pct, question_txt,
	release_date, survey_org, survey_sponsor, source_doc, beg_date, end_date,
	country, sample_desc, sample_size, int_method, study_note, topics,
	sample_types, date_published, link, question_note, sub_population`

const insertRowSQL = `
	INSERT INTO raw_rows (dataset_id,
		question_id, resp_txt, resp_pct, question_txt,
		release_date, survey_org, survey_sponsor, source_doc, beg_date, end_date,
		country, sample_desc, sample_size, int_method, study_note, topics,
		sample_types, date_published, link, question_note, sub_population)
	VALUES (:dataset_id,
		:question_id, :resp_txt, :resp_pct, :question_txt,
		:release_date, :survey_org, :survey_sponsor, :source_doc, :beg_date, :end_date,
		:country, :sample_desc, :sample_size, :int_method, :study_note, :topics,
		:sample_types, :date_published, :link, :question_note, :sub_population)`

// BlockKey identifies one question block.
type BlockKey struct {
	DatasetID  string `db:"dataset_id"`
	QuestionID string `db:"question_id"`
}

// Filter narrows raw row queries. Zero values match everything.
type Filter struct {
	DatasetID string
	// Search is matched case-insensitively as a substring of QuestionTxt.
	Search string
}

// where renders the filter as a SQL condition with ? placeholders.
func (f Filter) where() (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.DatasetID != "" {
		conds = append(conds, "dataset_id = ?")
		args = append(args, f.DatasetID)
	}
	if f.Search != "" {
		conds = append(conds, `LOWER(question_txt) LIKE '%' || LOWER(?) || '%' ESCAPE '\'`)
		args = append(args, escapeLike(f.Search))
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowRecord struct {
	DatasetID string `db:"dataset_id"`
	models.CanonicalRow
}

type RowRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRowRepository creates a new raw row repository
func NewRowRepository(db *sqlx.DB, logger *zap.Logger) *RowRepository {
	return &RowRepository{db: db, logger: logger}
}

// InsertBatch appends rows for one dataset inside tx. Arrival order follows
// slice order.
func (r *RowRepository) InsertBatch(ctx context.Context, tx *sqlx.Tx, datasetID string, rows []models.CanonicalRow) error {
	if len(rows) == 0 {
		return nil
	}
	records := make([]rowRecord, len(rows))
	for i, row := range rows {
		records[i] = rowRecord{DatasetID: datasetID, CanonicalRow: row}
	}

	if _, err := tx.NamedExecContext(ctx, insertRowSQL, records); err != nil {
		r.logger.Error("Failed to insert rows",
			zap.String("dataset_id", datasetID),
			zap.Int("rows", len(rows)),
			zap.Error(err),
		)
		return fmt.Errorf("insert rows: %w", err)
	}
	return nil
}

// CountKeys returns the number of distinct (dataset_id, question_id) pairs
// among rows matching f.
func (r *RowRepository) CountKeys(ctx context.Context, f Filter) (int, error) {
	cond, args := f.where()
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM (
			SELECT 1 FROM raw_rows
			WHERE ` + cond + `
			GROUP BY dataset_id, question_id
		) k`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		r.logger.Error("Failed to count blocks", zap.Error(err))
		return 0, fmt.Errorf("count blocks: %w", err)
	}
	return n, nil
}

// PageKeys returns one page of block keys ordered by dataset_id then
// question_id, together with the number of keys matching f. The count comes
// from the same statement as the page, so both see one snapshot. A page past
// the end carries no rows and reports a total of 0; callers that need the
// total there use CountKeys.
func (r *RowRepository) PageKeys(ctx context.Context, f Filter, limit, offset int) ([]BlockKey, int, error) {
	cond, args := f.where()
	query := r.db.Rebind(`
		SELECT dataset_id, question_id, COUNT(*) OVER () AS total
		FROM raw_rows
		WHERE ` + cond + `
		GROUP BY dataset_id, question_id
		ORDER BY dataset_id, question_id
		LIMIT ? OFFSET ?`)

	var page []pagedKey
	if err := r.db.SelectContext(ctx, &page, query, append(args, limit, offset)...); err != nil {
		r.logger.Error("Failed to page blocks", zap.Int("limit", limit), zap.Int("offset", offset), zap.Error(err))
		return nil, 0, fmt.Errorf("page blocks: %w", err)
	}

	keys := make([]BlockKey, len(page))
	total := 0
	for i, p := range page {
		keys[i] = p.BlockKey
		total = p.Total
	}
	return keys, total, nil
}

type pagedKey struct {
	BlockKey
	Total int `db:"total"`
}

// RowsForKeys loads the rows matching f that belong to keys, ordered by
// dataset_id, question_id, then arrival. keys must be sorted the way
// PageKeys returns them.
//
// The query selects the key range [keys[0], keys[len-1]] rather than listing
// every key, which keeps the statement size constant. Rows of keys inside the
// range but absent from keys are dropped.
func (r *RowRepository) RowsForKeys(ctx context.Context, f Filter, keys []BlockKey) ([]models.StoredRow, error) {
	if len(keys) == 0 {
		return []models.StoredRow{}, nil
	}

	first, last := keys[0], keys[len(keys)-1]
	cond, args := f.where()
	query := r.db.Rebind(`
		SELECT ` + storedRowColumns + `
		FROM raw_rows
		WHERE ` + cond + `
			AND (dataset_id > ? OR (dataset_id = ? AND question_id >= ?))
			AND (dataset_id < ? OR (dataset_id = ? AND question_id <= ?))
		ORDER BY dataset_id, question_id, arrival_seq`)
	args = append(args,
		first.DatasetID, first.DatasetID, first.QuestionID,
		last.DatasetID, last.DatasetID, last.QuestionID,
	)

	var loaded []models.StoredRow
	if err := r.db.SelectContext(ctx, &loaded, query, args...); err != nil {
		r.logger.Error("Failed to load block rows", zap.Int("keys", len(keys)), zap.Error(err))
		return nil, fmt.Errorf("load block rows: %w", err)
	}

	want := make(map[BlockKey]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	rows := make([]models.StoredRow, 0, len(loaded))
	for _, row := range loaded {
		if _, ok := want[BlockKey{DatasetID: row.DatasetID, QuestionID: row.QuestionID}]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Scan streams every row matching f to fn in block order. Iteration stops
// at the first error from fn.
func (r *RowRepository) Scan(ctx context.Context, f Filter, fn func(models.StoredRow) error) error {
	cond, args := f.where()
	query := r.db.Rebind(`
		SELECT ` + storedRowColumns + `
		FROM raw_rows
		WHERE ` + cond + `
		ORDER BY dataset_id, question_id, arrival_seq`)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to scan rows", zap.Error(err))
		return fmt.Errorf("scan rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.StoredRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountByDataset returns the number of stored rows for one dataset.
func (r *RowRepository) CountByDataset(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM raw_rows WHERE dataset_id = ?`), datasetID)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
