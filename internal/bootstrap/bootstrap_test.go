// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bootstrap

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
)

func TestNewTorrentClient_UnknownClientIsFatal(t *testing.T) {
	_, err := newTorrentClient(config.TorrentClientConfig{Client: "transmission"}, zerolog.Nop())
	require.Error(t, err)
}

func TestNewTorrentClient_QBittorrentIsSupported(t *testing.T) {
	client, err := newTorrentClient(config.TorrentClientConfig{
		Client:  "qbittorrent",
		BaseURL: "http://localhost:8080",
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, client)
}
