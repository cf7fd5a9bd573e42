// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

// fakeClient is an in-memory torrentclient.Client double for job tests.
type fakeClient struct {
	torrents     []domain.Torrent
	trackers     map[string][]domain.Tracker
	files        map[string][]domain.TorrentFile
	stopped      map[string]bool
	deleted      map[string]bool
	deletedFiles map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		trackers:     make(map[string][]domain.Tracker),
		files:        make(map[string][]domain.TorrentFile),
		stopped:      make(map[string]bool),
		deleted:      make(map[string]bool),
		deletedFiles: make(map[string]bool),
	}
}

func (f *fakeClient) Login(ctx context.Context) error              { return nil }
func (f *fakeClient) Logout(ctx context.Context) error             { return nil }
func (f *fakeClient) IsLoggedIn(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeClient) GetAllTorrents(ctx context.Context) ([]domain.Torrent, error) {
	return f.torrents, nil
}

func (f *fakeClient) GetTorrentTrackers(ctx context.Context, hash string) ([]domain.Tracker, error) {
	return f.trackers[hash], nil
}

func (f *fakeClient) GetTorrentFiles(ctx context.Context, hash string) ([]domain.TorrentFile, error) {
	return f.files[hash], nil
}

func (f *fakeClient) StopTorrent(ctx context.Context, hash string) error {
	f.stopped[hash] = true
	return nil
}

func (f *fakeClient) DeleteTorrent(ctx context.Context, hash string, deleteFiles bool) error {
	f.deleted[hash] = true
	f.deletedFiles[hash] = deleteFiles
	return nil
}
