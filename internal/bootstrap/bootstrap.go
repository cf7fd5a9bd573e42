// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bootstrap wires the daemon's components together: config,
// logging, the embedded store, the torrent-client adapter, the notifier
// and the scheduler.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/config"
	"github.com/silentesc/torrent-cleaner-go/internal/database"
	"github.com/silentesc/torrent-cleaner-go/internal/jobs"
	"github.com/silentesc/torrent-cleaner-go/internal/logging"
	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/scheduler"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
	"github.com/silentesc/torrent-cleaner-go/internal/torrentclient"
)

const defaultDatabasePath = "/config/database.db"

// App is the fully wired daemon: its dependencies and the set of jobs
// the scheduler will run.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	DB       *database.DB
	Store    *strikestore.Store
	Client   torrentclient.Client
	Notifier *notifier.Notifier
}

// New loads configuration, opens the store, and wires the torrent client
// and notifier. configPath may be empty to use the default location.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogPath)

	db, err := database.Open(log, defaultDatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := strikestore.New(db.Conn())
	if err := store.MigrateLegacyStrikeType(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate legacy strike rows: %w", err)
	}

	client, err := newTorrentClient(cfg.TorrentClient, log)
	if err != nil {
		return nil, fmt.Errorf("build torrent client: %w", err)
	}

	n := notifier.New(cfg.Notification.DiscordWebhookURL, log)

	return &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Store:    store,
		Client:   client,
		Notifier: n,
	}, nil
}

// newTorrentClient selects the adapter for cfg.Client. qBittorrent is the
// only backend implemented today; an unknown client name is a fatal
// configuration error per spec.md §7's taxonomy.
func newTorrentClient(cfg config.TorrentClientConfig, log zerolog.Logger) (torrentclient.Client, error) {
	switch cfg.Client {
	case "qbittorrent":
		return torrentclient.NewQBittorrent(cfg.BaseURL, cfg.Username, cfg.Password, log), nil
	default:
		return nil, fmt.Errorf("unknown torrent_client.client %q", cfg.Client)
	}
}

// Jobs builds the scheduler.Job list for every configured job, in the
// order spec.md §6 lists them.
func (a *App) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:                 string(jobNameUnlinked),
			IntervalHours:        a.Config.Jobs.HandleUnlinked.IntervalHours,
			DefaultIntervalHours: defaultIntervalHandleUnlinked,
			Handler: (&jobs.UnlinkedRunner{
				Client:       a.Client,
				Store:        a.Store,
				Notifier:     a.Notifier,
				TorrentsRoot: a.Config.TorrentsPath,
				Config:       a.Config.Jobs.HandleUnlinked,
				OnJobAction:  a.Config.Notification.OnJobAction,
				Log:          a.Log,
			}).Run,
		},
		{
			Name:                 string(jobNameUnregistered),
			IntervalHours:        a.Config.Jobs.HandleUnregistered.IntervalHours,
			DefaultIntervalHours: defaultIntervalHandleUnregistered,
			Handler: (&jobs.UnregisteredRunner{
				Client:      a.Client,
				Store:       a.Store,
				Notifier:    a.Notifier,
				Config:      a.Config.Jobs.HandleUnregistered,
				OnJobAction: a.Config.Notification.OnJobAction,
				Log:         a.Log,
			}).Run,
		},
		{
			Name:                 string(jobNameOrphaned),
			IntervalHours:        a.Config.Jobs.HandleOrphaned.IntervalHours,
			DefaultIntervalHours: defaultIntervalHandleOrphaned,
			Handler: (&jobs.OrphanedRunner{
				Client:       a.Client,
				Store:        a.Store,
				Notifier:     a.Notifier,
				TorrentsRoot: a.Config.TorrentsPath,
				Config:       a.Config.Jobs.HandleOrphaned,
				OnJobAction:  a.Config.Notification.OnJobAction,
				Log:          a.Log,
			}).Run,
		},
		{
			Name:                 string(jobNameHealthCheckFiles),
			IntervalHours:        a.Config.Jobs.HealthCheckFiles.IntervalHours,
			DefaultIntervalHours: defaultIntervalHealthCheckFiles,
			Handler: (&jobs.HealthCheckRunner{
				Client:      a.Client,
				Notifier:    a.Notifier,
				Config:      a.Config.Jobs.HealthCheckFiles,
				OnJobAction: a.Config.Notification.OnJobAction,
				Log:         a.Log,
			}).Run,
		},
	}
}

// Scheduler builds the wired Scheduler for this app.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.New(a.Store, a.Notifier, a.Log, a.Config.Notification.OnJobError)
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.DB.Close()
}

type jobName string

const (
	jobNameUnlinked         jobName = "handle_unlinked"
	jobNameUnregistered     jobName = "handle_unregistered"
	jobNameOrphaned         jobName = "handle_orphaned"
	jobNameHealthCheckFiles jobName = "health_check_files"

	// Defaults mirror config.setDefaults' interval_hours values, used
	// when a job's configured interval_hours is 0.
	defaultIntervalHandleUnlinked     = 12
	defaultIntervalHandleUnregistered = 3
	defaultIntervalHandleOrphaned     = 13
	defaultIntervalHealthCheckFiles   = 24
)

// Fatal prints err and returns the non-zero exit code spec.md §6 requires
// on startup failure. Used before a logger exists, e.g. when New itself
// fails.
func Fatal(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}
