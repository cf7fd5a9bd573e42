// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jobs

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
)

func newTestStore(t *testing.T) *strikestore.Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`
		CREATE TABLE jobs (job_name TEXT PRIMARY KEY, last_job_run TEXT NOT NULL);
		CREATE TABLE strikes (strike_type TEXT, key TEXT, strikes INTEGER, strike_days INTEGER, last_strike_date TEXT, PRIMARY KEY (strike_type, key));
	`)
	require.NoError(t, err)
	return strikestore.New(conn)
}
