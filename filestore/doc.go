// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package filestore writes uploaded files to an afero filesystem. Production
// uses the OS filesystem under the configured upload directory; tests use an
// in-memory one.
package filestore
