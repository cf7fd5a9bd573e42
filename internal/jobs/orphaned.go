// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/domain"
	"github.com/silentesc/torrent-cleaner-go/internal/hardlink"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
	"github.com/silentesc/torrent-cleaner-go/internal/torrentclient"
)

// OrphanedRunner strikes and eventually removes files and empty
// directories under the torrents root that belong to no torrent. Its
// strike keys are absolute filesystem paths, not torrent hashes.
type OrphanedRunner struct {
	Client       torrentclient.Client
	Store        *strikestore.Store
	Notifier     *notifier.Notifier
	TorrentsRoot string
	Config       config.HandleOrphanedConfig
	OnJobAction  bool
	Log          zerolog.Logger
}

// Run executes one pass of the Orphaned job.
func (r *OrphanedRunner) Run(ctx context.Context) error {
	torrents, err := r.Client.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("list torrents: %w", err)
	}

	owned, err := r.ownedPaths(ctx, torrents)
	if err != nil {
		return err
	}

	var index *hardlink.Index
	if r.Config.ProtectExternalHardlinks {
		index, err = hardlink.Build(r.TorrentsRoot)
		if err != nil {
			return fmt.Errorf("build hardlink index: %w", err)
		}
	}

	candidates, err := r.walk(owned)
	if err != nil {
		return err
	}

	criteria := make([]CriteriaEntry, 0, len(candidates))
	for _, path := range candidates {
		met, err := r.isOrphan(path, index)
		if err != nil {
			return fmt.Errorf("evaluate orphan criteria for %s: %w", path, err)
		}
		criteria = append(criteria, CriteriaEntry{Key: path, Met: met})
	}

	today := time.Now()
	limitReached, err := strikeAndFilter(ctx, r.Store, domain.StrikeOrphaned, criteria, r.Config.RequiredStrikes, r.Config.MinStrikeDays, today)
	if err != nil {
		return err
	}

	actedOn := make(map[string]struct{}, len(limitReached))
	for _, path := range limitReached {
		if err := r.act(ctx, path); err != nil {
			r.Log.Error().Err(err).Str("path", path).Msg("orphaned action failed")
			continue
		}
		actedOn[path] = struct{}{}
	}

	return cleanup(ctx, r.Store, domain.StrikeOrphaned, criteria, actedOn)
}

// ownedPaths enumerates every path a torrent claims: each file's absolute
// location plus every ancestor directory up to the torrent's content path.
func (r *OrphanedRunner) ownedPaths(ctx context.Context, torrents []domain.Torrent) (map[string]struct{}, error) {
	owned := make(map[string]struct{})
	for _, t := range torrents {
		if t.ContentPath == "" {
			continue
		}
		files, err := r.Client.GetTorrentFiles(ctx, t.Hash)
		if err != nil {
			return nil, fmt.Errorf("list files for %s: %w", t.Hash, err)
		}
		contentRoot := canonicalPath(t.ContentPath)
		for _, f := range files {
			abs := canonicalPath(f.AbsolutePath(t.SavePath))
			owned[abs] = struct{}{}
			for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
				owned[dir] = struct{}{}
				if dir == contentRoot || dir == "." || dir == "/" || dir == r.TorrentsRoot {
					break
				}
				if !isWithin(dir, r.TorrentsRoot) {
					break
				}
			}
		}
	}
	return owned, nil
}

// walk lists every file and directory under the torrents root except
// owned ones, erroring on entries that are neither a regular file nor a
// directory (broken symlinks, device files, and the like).
func (r *OrphanedRunner) walk(owned map[string]struct{}) ([]string, error) {
	var candidates []string
	root := canonicalPath(r.TorrentsRoot)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		path = canonicalPath(path)
		if path == root {
			return nil
		}
		if _, isOwned := owned[path]; isOwned {
			return nil
		}

		switch {
		case d.IsDir():
			candidates = append(candidates, path)
		default:
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s is neither a regular file nor a directory", path)
			}
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *OrphanedRunner) isOrphan(path string, index *hardlink.Index) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("lstat %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		entries, err := os.ReadDir(path)
		if err != nil {
			return false, fmt.Errorf("read dir %s: %w", path, err)
		}
		return len(entries) == 0, nil
	case info.Mode().IsRegular():
		if !r.Config.ProtectExternalHardlinks {
			return true, nil
		}
		external, err := index.HasExternalHardlinks(path)
		if err != nil {
			return false, err
		}
		return !external, nil
	default:
		return false, fmt.Errorf("%s is neither a regular file nor a directory", path)
	}
}

func (r *OrphanedRunner) act(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("lstat %s: %w", path, err)
	}

	switch r.Config.Action {
	case config.ActionTest:
		r.Log.Info().Str("path", path).Msg("orphaned: would remove (test mode)")
		return nil
	case config.ActionStop:
		r.Log.Warn().Str("path", path).Msg("orphaned: stop action is not supported for filesystem entries")
		return nil
	case config.ActionDelete:
		if info.IsDir() {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove empty directory %s: %w", path, err)
			}
		} else {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove file %s: %w", path, err)
			}
		}
		notifyAction(ctx, r.Notifier, r.Log, r.OnJobAction, "Orphaned path removed", path, nil)
		return nil
	default:
		return fmt.Errorf("unknown action %q", r.Config.Action)
	}
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
