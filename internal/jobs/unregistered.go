// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/domain"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
	"github.com/silentesc/torrent-cleaner-go/internal/torrentclient"
)

// unstoppedStates are the torrent states excluded from the Unregistered
// predicate: a torrent already paused/stopped is not worth chasing.
var unstoppedStates = map[domain.TorrentState]struct{}{
	domain.StatePausedUP:  {},
	domain.StateStoppedUP: {},
	domain.StatePausedDL:  {},
	domain.StateStoppedDL: {},
}

// UnregisteredRunner strikes and eventually acts on torrents whose every
// (non-DHT/PeX/LSD) tracker reports the torrent as unregistered.
type UnregisteredRunner struct {
	Client      torrentclient.Client
	Store       *strikestore.Store
	Notifier    *notifier.Notifier
	Config      config.HandleUnregisteredConfig
	OnJobAction bool
	Log         zerolog.Logger
}

// Run executes one pass of the Unregistered job.
func (r *UnregisteredRunner) Run(ctx context.Context) error {
	torrents, err := r.Client.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("list torrents: %w", err)
	}

	criteria := make([]CriteriaEntry, 0, len(torrents))
	byHash := make(map[string]domain.Torrent, len(torrents))
	for _, t := range torrents {
		met, err := r.meets(ctx, t)
		if err != nil {
			return fmt.Errorf("evaluate criteria for %s: %w", t.Hash, err)
		}
		criteria = append(criteria, CriteriaEntry{Key: t.Hash, Met: met})
		byHash[t.Hash] = t
	}

	today := time.Now()
	limitReached, err := strikeAndFilter(ctx, r.Store, domain.StrikeUnregistered, criteria, r.Config.RequiredStrikes, r.Config.MinStrikeDays, today)
	if err != nil {
		return err
	}

	actedOn := make(map[string]struct{}, len(limitReached))
	for _, hash := range limitReached {
		t := byHash[hash]
		if err := r.act(ctx, t, criteria, byHash); err != nil {
			r.Log.Error().Err(err).Str("hash", hash).Msg("unregistered action failed")
			continue
		}
		actedOn[hash] = struct{}{}
	}

	return cleanup(ctx, r.Store, domain.StrikeUnregistered, criteria, actedOn)
}

func (r *UnregisteredRunner) meets(ctx context.Context, t domain.Torrent) (bool, error) {
	if !t.IsCompleted() {
		return false, nil
	}
	if t.HasTag(r.Config.ProtectionTag) {
		return false, nil
	}
	if _, stopped := unstoppedStates[t.State]; stopped {
		return false, nil
	}

	trackers, err := r.Client.GetTorrentTrackers(ctx, t.Hash)
	if err != nil {
		return false, err
	}

	remaining := trackers[:0:0]
	for _, tr := range trackers {
		if r.Config.IgnoreDHT && tr.URL == domain.TrackerURLDHT {
			continue
		}
		if r.Config.IgnorePeX && tr.URL == domain.TrackerURLPeX {
			continue
		}
		if r.Config.IgnoreLSD && tr.URL == domain.TrackerURLLSD {
			continue
		}
		remaining = append(remaining, tr)
	}

	if len(remaining) == 0 {
		return false, nil
	}
	for _, tr := range remaining {
		if !tr.IsUnregistered() {
			return false, nil
		}
	}
	return true, nil
}

func (r *UnregisteredRunner) act(ctx context.Context, t domain.Torrent, criteria []CriteriaEntry, byHash map[string]domain.Torrent) error {
	switch r.Config.Action {
	case config.ActionTest:
		r.Log.Info().Str("hash", t.Hash).Str("name", t.Name).Msg("unregistered: would act (test mode)")
		return nil
	case config.ActionStop:
		if err := r.Client.StopTorrent(ctx, t.Hash); err != nil {
			return fmt.Errorf("stop torrent %s: %w", t.Hash, err)
		}
		notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Unregistered torrent stopped", t.Name, []notifier.Field{
			{Name: "Hash", Value: t.Hash, Inline: true},
		})
		return nil
	case config.ActionDelete:
		keepFiles := hasUnmetSibling(t.Hash, t.ContentPath, criteria, byHash)
		if err := r.Client.DeleteTorrent(ctx, t.Hash, !keepFiles); err != nil {
			return fmt.Errorf("delete torrent %s: %w", t.Hash, err)
		}
		notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Unregistered torrent deleted", t.Name, []notifier.Field{
			{Name: "Hash", Value: t.Hash, Inline: true},
			{Name: "Files kept", Value: fmt.Sprintf("%t", keepFiles), Inline: true},
		})
		return nil
	default:
		return fmt.Errorf("unknown action %q", r.Config.Action)
	}
}
