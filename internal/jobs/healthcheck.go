// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/torrentclient"
)

// HealthCheckRunner verifies, for every completed torrent, that its
// declared files still exist on disk with the expected size and type.
// It keeps no strike history — every violation is reported immediately.
type HealthCheckRunner struct {
	Client      torrentclient.Client
	Notifier    *notifier.Notifier
	Config      config.HealthCheckFilesConfig
	OnJobAction bool
	Log         zerolog.Logger
}

// Run executes one pass of the HealthCheckFiles job.
func (r *HealthCheckRunner) Run(ctx context.Context) error {
	if r.Config.Action == config.ActionStop || r.Config.Action == config.ActionDelete {
		r.Log.Warn().Str("action", r.Config.Action).Msg("health_check_files: only the test action is meaningful, ignoring configured action")
	}

	torrents, err := r.Client.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("list torrents: %w", err)
	}

	for _, t := range torrents {
		if !t.IsCompleted() {
			continue
		}
		files, err := r.Client.GetTorrentFiles(ctx, t.Hash)
		if err != nil {
			return fmt.Errorf("list files for %s: %w", t.Hash, err)
		}
		for _, f := range files {
			abs := canonicalPath(f.AbsolutePath(t.SavePath))
			violation := r.check(abs, f.SizeBytes)
			if violation == "" {
				continue
			}
			r.Log.Warn().Str("hash", t.Hash).Str("path", abs).Str("violation", violation).Msg("health check violation")
			notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Health check violation", violation, []notifier.Field{
				{Name: "Torrent", Value: t.Name, Inline: true},
				{Name: "Path", Value: abs, Inline: false},
			})
		}
	}
	return nil
}

// check returns a human-readable violation description, or "" if the
// file is healthy.
func (r *HealthCheckRunner) check(path string, wantSize int64) string {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Sprintf("file missing: %v", err)
	}
	if info.IsDir() {
		return "declared file is actually a directory"
	}
	if info.Size() != wantSize {
		return fmt.Sprintf("size mismatch: expected %d, found %d", wantSize, info.Size())
	}
	return ""
}
