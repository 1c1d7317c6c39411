// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Persisted records:

  - Dataset: one uploaded file (id, filename, stored_path, uploaded_at)
    plus ingest bookkeeping (rows_ingested, ingest_status, ingest_error)
  - CanonicalRow: one normalized response option with the 21 schema columns
  - StoredRow: a CanonicalRow with its dataset_id and arrival_seq
  - Selection: a user's saved question within a dataset

Read-time aggregates:

  - Block: all rows sharing (dataset_id, question_id)
  - BlockMetadata: 14 survey-level fields taken from the block's first row
  - BlockNotes: StudyNote, QuestionNote, SubPopulation
  - Response: one {label, value} pair

# Building Rows

NewCanonicalRow maps a header-indexed source record onto the fixed layout:

	index := map[string]int{"QuestionID": 0, "RespTxt": 1}
	row := models.NewCanonicalRow(index, []string{"Q1", "Yes"})
	// row.QuestionID == "Q1", row.Link == ""

# Response Types

  - UploadResponse: ok, dataset_id, filename, stored_path, rows_ingested, note
  - DatasetListResponse, BlocksResponse: total, items, limit, offset
  - SelectionListResponse: items
  - ErrorResponse: error, message, missing

# Constants

Ingest status values:

	StatusPending     = "pending"
	StatusIngested    = "ingested"
	StatusFailed      = "failed"
	StatusUnsupported = "unsupported"
*/
package models
