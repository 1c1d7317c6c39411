// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity generates dataset ids and resolves caller identity.

# Dataset IDs

Datasets are keyed by random UUIDs:

	id := identity.NewDatasetID()

# Stored Files

Uploads are written as "<dataset id>_<filename>". The client filename is
reduced to its base name first, so "../../etc/passwd" becomes "passwd" and
an empty name becomes "upload":

	name := identity.StoredName(id, header.Filename)

# Users

There is no authentication. Selection endpoints take a user_id in the query
or body; when it is absent the X-User-ID header is used:

	user, err := identity.ResolveUser(req.UserID, c.GetHeader(identity.UserHeader))

Ids longer than 128 bytes or containing control characters are rejected.
*/
package identity
