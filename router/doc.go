// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the PublicPulse API.

# Route Registration

NewServices wires the repositories, file store, ingester and aggregator
around one database pool; NewRouter mounts the handlers on a gin engine:

	svc, err := router.NewServices(conn, afero.NewOsFs(), cfg, logger)
	engine := router.NewRouter(svc, cfg, logger)

Every route runs behind Recovery, RequestLogger and CORS.

# Endpoints

Root and health:

	GET /        - Welcome message
	GET /health  - {"status": "ok"}

Datasets:

	POST /datasets/upload - Store and ingest a CSV or XLSX file (multipart "file")
	GET  /datasets        - Newest first, ?limit=&offset=
	GET  /datasets/:id    - One dataset

Question blocks:

	GET /questions/blocks        - ?dataset_id=&search=&limit=&offset=
	GET /questions/blocks/export - Same filters, CSV download

Selections (user from user_id or the X-User-ID header):

	POST   /selections     - Add (idempotent)
	DELETE /selections     - Remove
	GET    /selections     - One dataset, newest first
	GET    /selections/all - Every dataset
*/
package router
