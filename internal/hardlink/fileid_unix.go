// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build !windows

package hardlink

import (
	"errors"
	"os"
	"syscall"
)

// FileID uniquely identifies a physical file on disk. On Unix this is the
// (device, inode) pair. It is comparable and usable as a map key without
// allocation.
type FileID struct {
	Dev uint64
	Ino uint64
}

// GetFileID returns the FileID and current link count for fi. path is
// unused on Unix (kept for a uniform signature with the Windows build,
// which needs it to open the file by path).
func GetFileID(fi os.FileInfo, path string) (FileID, uint64, error) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return FileID{}, 0, errors.New("failed to get syscall.Stat_t")
	}
	return FileID{Dev: uint64(sys.Dev), Ino: sys.Ino}, uint64(sys.Nlink), nil //nolint:gosec
}
