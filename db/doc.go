// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the relational store and applies its schema migrations.

# Connecting

Open accepts a driver name and DSN:

	conn, err := db.Open(ctx, db.DriverSQLite, "./data/ppp.db", logger)
	conn, err := db.Open(ctx, db.DriverPostgres, "postgres://...", logger)

SQLite connections run in WAL mode with foreign keys on and take the write
lock when a transaction begins. Queries are written with ? placeholders and
passed through sqlx Rebind, so the same SQL serves both drivers.

# Migrations

Migrate applies the embedded migrations for the connection's dialect:

	if err := db.Migrate(conn, logger); err != nil {
		log.Fatal(err)
	}

Safe to call on every start; an up-to-date schema is not an error.

# Tables

  - datasets: one row per upload plus ingest status and row count
  - raw_rows: canonical rows in arrival order, text values only
  - selections: saved questions, unique on (user_id, dataset_id, question_id)

# Relationships

	datasets 1──* raw_rows (ON DELETE CASCADE)

Selections hold a dataset_id but no foreign key; removing a dataset leaves
them in place.

# Indexes

  - datasets.uploaded_at
  - raw_rows.(dataset_id, question_id, arrival_seq)
  - selections.(user_id, created_at)
*/
package db
