// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package hardlink builds a single-pass snapshot of inode link counts
// under a media root and answers whether a given file currently has
// hardlinks pointing outside that root.
package hardlink

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Index is a snapshot of how many links to each inode were observed
// inside a root directory at build time.
type Index struct {
	observedLinksByID map[FileID]int
}

// Build walks root once, Lstat-ing every regular file and recording how
// many links inside root point at each inode.
func Build(root string) (*Index, error) {
	idx := &Index{
		observedLinksByID: make(map[FileID]int),
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		id, _, err := GetFileID(info, path)
		if err != nil {
			return fmt.Errorf("get file id %s: %w", path, err)
		}
		idx.observedLinksByID[id]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// HasExternalHardlinks reports whether path, which must lie inside the
// root Build was called with, currently has more links than were observed
// inside root at build time — i.e. at least one link lives outside the
// media tree. st_nlink is re-read fresh at call time rather than cached
// from the build pass, so a link added or removed between Build and this
// call is reflected rather than silently stale.
//
// If path is a directory, every contained regular file is checked and
// HasExternalHardlinks returns true as soon as one of them exhibits an
// external link; non-regular entries inside the directory are skipped,
// same as Build. A missing path, or a path that is neither a regular
// file nor a directory, is an error.
func (idx *Index) HasExternalHardlinks(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("lstat %s: %w", path, err)
	}

	if info.IsDir() {
		return idx.dirHasExternalHardlinks(path)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%s is neither a regular file nor a directory", path)
	}

	return idx.fileHasExternalHardlinks(info, path)
}

func (idx *Index) fileHasExternalHardlinks(info os.FileInfo, path string) (bool, error) {
	id, liveNlink, err := GetFileID(info, path)
	if err != nil {
		return false, fmt.Errorf("get file id %s: %w", path, err)
	}

	observed := uint64(idx.observedLinksByID[id])
	if observed > liveNlink {
		return false, fmt.Errorf("%s: observed link count %d exceeds live count %d", path, observed, liveNlink)
	}
	return observed != liveNlink, nil
}

func (idx *Index) dirHasExternalHardlinks(root string) (bool, error) {
	found := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if found {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		has, err := idx.fileHasExternalHardlinks(info, path)
		if err != nil {
			return err
		}
		if has {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
