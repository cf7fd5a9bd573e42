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
	"github.com/silentesc/torrent-cleaner-go/internal/hardlink"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
	"github.com/silentesc/torrent-cleaner-go/internal/torrentclient"
)

// UnlinkedRunner strikes and eventually acts on completed torrents whose
// files no longer have a hardlink outside the torrents root.
type UnlinkedRunner struct {
	Client       torrentclient.Client
	Store        *strikestore.Store
	Notifier     *notifier.Notifier
	TorrentsRoot string
	Config       config.HandleUnlinkedConfig
	OnJobAction  bool
	Log          zerolog.Logger
}

// Run executes one pass of the Unlinked job.
func (r *UnlinkedRunner) Run(ctx context.Context) error {
	torrents, err := r.Client.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("list torrents: %w", err)
	}

	index, err := hardlink.Build(r.TorrentsRoot)
	if err != nil {
		return fmt.Errorf("build hardlink index: %w", err)
	}

	criteria := make([]CriteriaEntry, 0, len(torrents))
	byHash := make(map[string]domain.Torrent, len(torrents))
	for _, t := range torrents {
		met, err := r.meets(t, index)
		if err != nil {
			return fmt.Errorf("evaluate criteria for %s: %w", t.Hash, err)
		}
		criteria = append(criteria, CriteriaEntry{Key: t.Hash, Met: met})
		byHash[t.Hash] = t
	}

	today := time.Now()
	limitReached, err := strikeAndFilter(ctx, r.Store, domain.StrikeUnlinked, criteria, r.Config.RequiredStrikes, r.Config.MinStrikeDays, today)
	if err != nil {
		return err
	}

	actedOn := make(map[string]struct{}, len(limitReached))
	for _, hash := range limitReached {
		t := byHash[hash]
		if err := r.act(ctx, t, criteria, byHash); err != nil {
			r.Log.Error().Err(err).Str("hash", hash).Msg("unlinked action failed")
			continue
		}
		actedOn[hash] = struct{}{}
	}

	return cleanup(ctx, r.Store, domain.StrikeUnlinked, criteria, actedOn)
}

func (r *UnlinkedRunner) meets(t domain.Torrent, index *hardlink.Index) (bool, error) {
	if !t.IsCompleted() {
		return false, nil
	}
	if t.HasTag(r.Config.ProtectionTag) {
		return false, nil
	}
	if float64(t.SeedingTime)/86400 < float64(r.Config.MinSeedingDays) {
		return false, nil
	}
	external, err := index.HasExternalHardlinks(t.ContentPath)
	if err != nil {
		return false, err
	}
	return !external, nil
}

func (r *UnlinkedRunner) act(ctx context.Context, t domain.Torrent, criteria []CriteriaEntry, byHash map[string]domain.Torrent) error {
	switch r.Config.Action {
	case config.ActionTest:
		r.Log.Info().Str("hash", t.Hash).Str("name", t.Name).Msg("unlinked: would act (test mode)")
		return nil
	case config.ActionStop:
		if err := r.Client.StopTorrent(ctx, t.Hash); err != nil {
			return fmt.Errorf("stop torrent %s: %w", t.Hash, err)
		}
		notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Unlinked torrent stopped", t.Name, []notifier.Field{
			{Name: "Hash", Value: t.Hash, Inline: true},
		})
		return nil
	case config.ActionDelete:
		keepFiles := hasUnmetSibling(t.Hash, t.ContentPath, criteria, byHash)
		if err := r.Client.DeleteTorrent(ctx, t.Hash, !keepFiles); err != nil {
			return fmt.Errorf("delete torrent %s: %w", t.Hash, err)
		}
		notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Unlinked torrent deleted", t.Name, []notifier.Field{
			{Name: "Hash", Value: t.Hash, Inline: true},
			{Name: "Files kept", Value: fmt.Sprintf("%t", keepFiles), Inline: true},
		})
		return nil
	default:
		return fmt.Errorf("unknown action %q", r.Config.Action)
	}
}

// hasUnmetSibling reports whether another torrent in the criteria map
// shares contentPath and currently does not meet its job's criteria —
// meaning it still wants the on-disk files, so deleting this torrent
// must keep files rather than remove them.
func hasUnmetSibling(hash, contentPath string, criteria []CriteriaEntry, byHash map[string]domain.Torrent) bool {
	for _, entry := range criteria {
		if entry.Key == hash || entry.Met {
			continue
		}
		other, ok := byHash[entry.Key]
		if !ok {
			continue
		}
		if canonicalPath(other.ContentPath) == canonicalPath(contentPath) {
			return true
		}
	}
	return false
}
