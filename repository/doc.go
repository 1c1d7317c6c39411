// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package repository provides SQL access to datasets, raw rows, and selections.

Each repository wraps a *sqlx.DB and a *zap.Logger. Queries use ?
placeholders and are rebound for the connected driver.

# Datasets

DatasetRepository registers uploads and records ingest outcomes:

	repo.Create(ctx, &models.Dataset{ID: id, Filename: name, StoredPath: path})
	repo.UpdateStatusTx(ctx, tx, id, models.StatusIngested, n, "")

Get returns ErrNotFound for unknown ids. List pages newest first.

# Raw Rows

RowRepository appends canonical rows and reads them back by block key.
A Filter restricts by dataset and by a case-insensitive substring of
QuestionTxt; %, _, and \ in the search text match literally. Case folding
is Unicode-aware on both engines (see db.Open for SQLite).

Block reads are two queries: PageKeys selects the distinct
(dataset_id, question_id) pairs for a page along with the total, then
RowsForKeys loads the rows of that key range ordered by arrival_seq.

# Selections

SelectionRepository is uniqueness-constrained CRUD. Add ignores
duplicates, Remove ignores absent rows, and List returns newest first.
*/
package repository
