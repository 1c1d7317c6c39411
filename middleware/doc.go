// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides gin middleware and response helpers.

# Request Logging

	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

RequestLogger writes one zap entry per request with method, path, status,
duration_ms and remote address. 5xx responses log at error level and 4xx
at warn. Recovery converts a handler panic into a 500 JSON error.

# CORS Middleware

	r.Use(middleware.CORS(cfg.CORSOrigins))

Echoes a listed Origin back with credentials allowed. A "*" entry admits
any other origin as "*" without credentials. Permits GET, POST, DELETE,
OPTIONS with headers Content-Type and X-User-ID. Preflight requests get 204.

# Body Limits

	r.POST("/upload", middleware.MaxBodyBytes(cfg.MaxUploadBytes), h.Upload)

# JSON Helpers

	middleware.JSONResponse(c, http.StatusOK, data)
	middleware.ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, "file is required")
	middleware.MissingColumnsResponse(c, missing)

Error bodies use models.ErrorResponse: a machine-readable code in "error",
optional "message", and "missing" for rejected upload headers.
*/
package middleware
