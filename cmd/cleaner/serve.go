// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/silentesc/torrent-cleaner-go/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: start every configured job on its own schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	app, err := bootstrap.New(configPath)
	if err != nil {
		os.Exit(bootstrap.Fatal(err))
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Log.Info().Msg("starting torrent cleaner")
	app.Scheduler().Run(ctx, app.Jobs())
	app.Log.Info().Msg("shutdown complete")
	return nil
}
