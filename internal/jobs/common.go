// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package jobs implements the four periodic maintenance jobs: Unlinked,
// Unregistered, Orphaned and HealthCheckFiles. The first three share a
// common strike/filter/clean-up skeleton built on top of the strike store;
// HealthCheckFiles keeps no strikes.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
)

// CriteriaEntry is one candidate entity evaluated during a run: a torrent
// hash for Unlinked/Unregistered, an absolute path for Orphaned.
type CriteriaEntry struct {
	Key string
	Met bool
}

// strikeAndFilter strikes every entry whose criteria were met, then
// returns the subset of keys whose record has now crossed both
// thresholds. Keys whose criteria were not met are left alone here;
// cleanup removes them separately.
func strikeAndFilter(
	ctx context.Context,
	store *strikestore.Store,
	strikeType domain.StrikeType,
	criteria []CriteriaEntry,
	requiredStrikes, minStrikeDays int,
	today time.Time,
) ([]string, error) {
	var limitReached []string
	for _, entry := range criteria {
		if !entry.Met {
			continue
		}
		record, err := store.Strike(ctx, strikeType, entry.Key, today)
		if err != nil {
			return nil, fmt.Errorf("strike %s/%s: %w", strikeType, entry.Key, err)
		}
		if record.IsLimitReached(requiredStrikes, minStrikeDays, today) {
			limitReached = append(limitReached, entry.Key)
		}
	}
	return limitReached, nil
}

// cleanup removes strike rows for keys that were just acted on, keys
// whose criteria no longer hold, and keys that have disappeared from the
// current candidate snapshot entirely.
func cleanup(
	ctx context.Context,
	store *strikestore.Store,
	strikeType domain.StrikeType,
	criteria []CriteriaEntry,
	actedOn map[string]struct{},
) error {
	liveKeys := make(map[string]struct{}, len(criteria))
	for _, entry := range criteria {
		liveKeys[entry.Key] = struct{}{}
		if !entry.Met {
			if err := store.Delete(ctx, strikeType, entry.Key); err != nil {
				return err
			}
		}
	}
	for key := range actedOn {
		if err := store.Delete(ctx, strikeType, key); err != nil {
			return err
		}
	}
	return store.PruneMissing(ctx, strikeType, liveKeys)
}

// notifyAction sends a best-effort "action taken" notification when
// onJobAction is enabled. A send failure is logged, never escalated.
func notifyAction(ctx context.Context, n *notifier.Notifier, log zerolog.Logger, onJobAction bool, title, description string, fields []notifier.Field) {
	if !onJobAction || n == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := n.Send(notifyCtx, title, description, fields); err != nil {
		log.Warn().Err(err).Msg("failed to send action notification")
	}
}

