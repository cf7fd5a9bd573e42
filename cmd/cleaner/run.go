// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silentesc/torrent-cleaner-go/internal/bootstrap"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <job>",
		Short: "Run a single job once, outside of the scheduler, and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, args[0])
		},
	}
	return cmd
}

func runOnce(cmd *cobra.Command, name string) error {
	app, err := bootstrap.New(configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, job := range app.Jobs() {
		if job.Name != name {
			continue
		}
		return job.Handler(cmd.Context())
	}
	return fmt.Errorf("unknown job %q", name)
}
