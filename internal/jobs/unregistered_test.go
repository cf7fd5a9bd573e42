// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

func baseUnregisteredConfig() config.HandleUnregisteredConfig {
	return config.HandleUnregisteredConfig{
		RequiredStrikes: 1,
		MinStrikeDays:   1,
		IgnoreDHT:       true,
		IgnorePeX:       true,
		IgnoreLSD:       true,
		ProtectionTag:   "protected-unregistered",
		Action:          config.ActionStop,
	}
}

func TestUnregisteredRunner_StopsWhenAllTrackersUnregistered(t *testing.T) {
	client := newFakeClient()
	client.torrents = []domain.Torrent{{Hash: "h1", CompletionOn: 1000, State: "downloading"}}
	client.trackers["h1"] = []domain.Tracker{
		{URL: domain.TrackerURLDHT, Status: domain.TrackerDisabled},
		{URL: "http://tracker.example/announce", Status: domain.TrackerNotWorking, Message: "torrent not registered"},
	}

	store := newTestStore(t)
	runner := &UnregisteredRunner{
		Client: client,
		Store:  store,
		Config: baseUnregisteredConfig(),
		Log:    zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	require.True(t, client.stopped["h1"])
}

func TestUnregisteredRunner_WorkingTrackerPreventsStrike(t *testing.T) {
	client := newFakeClient()
	client.torrents = []domain.Torrent{{Hash: "h1", CompletionOn: 1000, State: "downloading"}}
	client.trackers["h1"] = []domain.Tracker{
		{URL: "http://tracker.example/announce", Status: domain.TrackerWorking},
	}

	store := newTestStore(t)
	runner := &UnregisteredRunner{
		Client: client,
		Store:  store,
		Config: baseUnregisteredConfig(),
		Log:    zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	require.False(t, client.stopped["h1"])
}

func TestUnregisteredRunner_StoppedStateExcluded(t *testing.T) {
	client := newFakeClient()
	client.torrents = []domain.Torrent{{Hash: "h1", CompletionOn: 1000, State: domain.StatePausedUP}}
	client.trackers["h1"] = []domain.Tracker{
		{URL: "http://tracker.example/announce", Status: domain.TrackerNotWorking, Message: "unregistered"},
	}

	store := newTestStore(t)
	runner := &UnregisteredRunner{
		Client: client,
		Store:  store,
		Config: baseUnregisteredConfig(),
		Log:    zerolog.Nop(),
	}

	require.NoError(t, runner.Run(context.Background()))
	require.False(t, client.stopped["h1"])
}
