// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import "path/filepath"

// canonicalPath normalizes a content path for the sibling-torrent
// comparison used by the delete action. Two torrents are siblings only
// if their content_path strings are equal after cleaning — no deeper
// filesystem resolution is attempted.
func canonicalPath(p string) string {
	return filepath.Clean(p)
}
