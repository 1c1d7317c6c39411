// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains gin request handlers for the PublicPulse API.

# Handler Types

Each handler is a struct holding the components it drives and a logger:

  - DatasetHandler: upload, list and fetch datasets
  - BlockHandler: paginated question blocks and CSV export
  - SelectionHandler: a user's saved questions

	datasetHandler := handlers.NewDatasetHandler(datasets, ingester, files, logger)

# Upload Flow

	POST /datasets/upload → Upload

The multipart "file" part is written to the file store as
<dataset_id>_<filename>, the dataset is registered as pending, and the
file is ingested before the response is sent. Outcomes:

  - 201 with rows_ingested on success
  - 201 with a note when the format is not ingestible (file kept)
  - 400 schema_validation with the missing column names
  - 400 parse_error when the file cannot be decoded
  - 413 when the file exceeds the upload limit
  - 500 store_error when the database rejects the write

Rejected datasets stay registered with ingest_status failed.

# Block Queries

	GET /questions/blocks        → GetBlocks
	GET /questions/blocks/export → Export

Both accept dataset_id and search. limit defaults to 50 and is capped at
1000; a negative offset reads as 0.

# Selections

The user comes from user_id (JSON body or query) or the X-User-ID header.
Adding an existing selection succeeds without creating a duplicate.
*/
package handlers
