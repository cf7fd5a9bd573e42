// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

func TestOrphanedRunner_RemovesUnownedFile(t *testing.T) {
	root := t.TempDir()
	owned := filepath.Join(root, "owned.mkv")
	orphan := filepath.Join(root, "leftover.mkv")
	require.NoError(t, os.WriteFile(owned, []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(orphan, []byte("data"), 0o644))

	client := newFakeClient()
	client.torrents = []domain.Torrent{{Hash: "h1", ContentPath: owned, SavePath: root}}
	client.files["h1"] = []domain.TorrentFile{{RelativeName: "owned.mkv", SizeBytes: 4}}

	store := newTestStore(t)
	runner := &OrphanedRunner{
		Client:       client,
		Store:        store,
		TorrentsRoot: root,
		Config: config.HandleOrphanedConfig{
			RequiredStrikes:          1,
			MinStrikeDays:            1,
			ProtectExternalHardlinks: true,
			Action:                   config.ActionDelete,
		},
		Log: zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	_, err := os.Stat(orphan)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(owned)
	require.NoError(t, err)
}

func TestOrphanedRunner_EmptyDirectoryIsOrphan(t *testing.T) {
	root := t.TempDir()
	emptyDir := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(emptyDir, 0o755))

	client := newFakeClient()

	store := newTestStore(t)
	runner := &OrphanedRunner{
		Client:       client,
		Store:        store,
		TorrentsRoot: root,
		Config: config.HandleOrphanedConfig{
			RequiredStrikes:          1,
			MinStrikeDays:            1,
			ProtectExternalHardlinks: true,
			Action:                   config.ActionDelete,
		},
		Log: zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	_, err := os.Stat(emptyDir)
	require.True(t, os.IsNotExist(err))
}

func TestOrphanedRunner_ExternalHardlinkedFileIsProtected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	orphan := filepath.Join(root, "leftover.mkv")
	require.NoError(t, os.WriteFile(orphan, []byte("data"), 0o644))
	require.NoError(t, os.Link(orphan, filepath.Join(outside, "leftover.mkv")))

	client := newFakeClient()

	store := newTestStore(t)
	runner := &OrphanedRunner{
		Client:       client,
		Store:        store,
		TorrentsRoot: root,
		Config: config.HandleOrphanedConfig{
			RequiredStrikes:          1,
			MinStrikeDays:            1,
			ProtectExternalHardlinks: true,
			Action:                   config.ActionDelete,
		},
		Log: zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	_, err := os.Stat(orphan)
	require.NoError(t, err, "externally hardlinked file must survive")
}
