// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the PublicPulse API server.

PublicPulse ingests survey-response files (CSV or XLSX), normalizes every
row to a fixed set of columns, and serves them back grouped into question
blocks with search and pagination. Users can save questions to a per-user
selection list.

# Starting the Server

With defaults (SQLite under ./data, port 8000):

	go run .

Or with flags:

	go run . -p 9000 -t postgres -d "postgres://..."

# Commands

	publicpulse [serve]        Run the HTTP API
	publicpulse ingest FILE... Ingest local files and print the results as JSON
	publicpulse migrate        Apply database migrations and exit

# Configuration

Settings come from defaults, then a YAML file (-c or PUBLICPULSE_CONFIG),
then environment variables (optionally from .env), then flags. See
package cliparse for the full list.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: gin request handlers (datasets, blocks, selections)
  - router: service wiring and route definitions
  - middleware: zap request logging, recovery, CORS, JSON helpers
  - ingest: one-transaction file ingestion
  - normalizer: CSV and XLSX readers with header validation
  - blocks: question block aggregation and CSV export
  - repository: sqlx data access
  - filestore: upload storage on an afero filesystem
  - identity: dataset ids, stored file names, user resolution
  - schema: canonical and required column names
  - db: connection setup and embedded migrations
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
