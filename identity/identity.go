// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// UserHeader carries the caller's user id when the request does not.
const UserHeader = "X-User-ID"

// MaxUserIDLen bounds user ids accepted from clients.
const MaxUserIDLen = 128

var (
	ErrMissingUser = errors.New("user_id is required")
	ErrInvalidUser = errors.New("invalid user_id")
)

// NewDatasetID returns a fresh random dataset id.
func NewDatasetID() string {
	return uuid.NewString()
}

// StoredName returns the on-disk name for an upload: the dataset id, an
// underscore, then the client filename with any directory part and
// control characters removed.
func StoredName(datasetID, filename string) string {
	return datasetID + "_" + SanitizeFilename(filename)
}

// SanitizeFilename reduces a client-supplied filename to a safe base name.
func SanitizeFilename(filename string) string {
	// clients may send either separator
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// ResolveUser picks the user id from the request body or query, falling
// back to the UserHeader value.
func ResolveUser(explicit, header string) (string, error) {
	user := strings.TrimSpace(explicit)
	if user == "" {
		user = strings.TrimSpace(header)
	}
	if user == "" {
		return "", ErrMissingUser
	}
	if len(user) > MaxUserIDLen || strings.IndexFunc(user, unicode.IsControl) >= 0 {
		return "", ErrInvalidUser
	}
	return user, nil
}
