// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ingest loads a stored upload into the raw row store.

# Flow

	ing := ingest.New(conn, fs, datasetRepo, rowRepo, 500, logger)
	n, err := ing.Ingest(ctx, datasetID, storedPath, ".csv")

 1. normalizer.Open checks the header. A rejected header or unknown
    extension marks the dataset and returns before a transaction starts.
 2. Rows are normalized and inserted in batches inside one transaction.
 3. The dataset's status and row count are updated in the same
    transaction, which then commits.

Any failure after step 1 rolls back every batch of the file, so a dataset
never holds part of a file.

# Errors

  - *normalizer.SchemaValidationError: status "failed", zero rows
  - normalizer.ErrUnsupportedFormat: status "unsupported", zero rows
  - *normalizer.ParseFault: status "failed", zero rows
  - *StoreFault: status "failed" when the registry is still writable

Concurrent Ingest calls for different datasets are safe; each holds its
own transaction.
*/
package ingest
