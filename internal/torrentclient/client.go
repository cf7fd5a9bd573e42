// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torrentclient defines the capability set the job runners need
// from a torrent client and a qBittorrent-backed implementation of it.
package torrentclient

import (
	"context"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

// Client is the capability set every job runner depends on. A future
// non-qBittorrent backend is a new implementation of this interface, not
// new call sites scattered through the job runners.
type Client interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	IsLoggedIn(ctx context.Context) (bool, error)
	GetAllTorrents(ctx context.Context) ([]domain.Torrent, error)
	GetTorrentTrackers(ctx context.Context, hash string) ([]domain.Tracker, error)
	GetTorrentFiles(ctx context.Context, hash string) ([]domain.TorrentFile, error)
	StopTorrent(ctx context.Context, hash string) error
	DeleteTorrent(ctx context.Context, hash string, deleteFiles bool) error
}
