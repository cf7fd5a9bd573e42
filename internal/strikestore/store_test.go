// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package strikestore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.ExecContext(context.Background(), `
		CREATE TABLE strikes (
			strike_type      TEXT    NOT NULL,
			key              TEXT    NOT NULL,
			strikes          INTEGER NOT NULL DEFAULT 0,
			strike_days      INTEGER NOT NULL DEFAULT 0,
			last_strike_date TEXT    NOT NULL,
			PRIMARY KEY (strike_type, key)
		);
		CREATE TABLE jobs (
			job_name     TEXT PRIMARY KEY,
			last_job_run TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	return New(conn)
}

func day(offset int) time.Time {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestStrike_FirstStrikeStartsCounterAtOne(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Strike(context.Background(), domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	require.Equal(t, 1, rec.Strikes)
	require.Equal(t, 1, rec.StrikeDays)
}

func TestStrike_SameDayIncrementsStrikesOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	rec, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)

	require.Equal(t, 2, rec.Strikes)
	require.Equal(t, 1, rec.StrikeDays)
}

func TestStrike_NextDayIncrementsBoth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	rec, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(1))
	require.NoError(t, err)

	require.Equal(t, 2, rec.Strikes)
	require.Equal(t, 2, rec.StrikeDays)
}

func TestStrike_GapResetsToOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	_, err = s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(1))
	require.NoError(t, err)
	rec, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(4))
	require.NoError(t, err)

	require.Equal(t, 1, rec.Strikes)
	require.Equal(t, 1, rec.StrikeDays)
}

func TestIsLimitReached_RequiresRecentLastStrike(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	_, err = s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(1))
	require.NoError(t, err)
	rec, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(2))
	require.NoError(t, err)

	require.True(t, rec.IsLimitReached(3, 3, day(2)))
	require.True(t, rec.IsLimitReached(3, 3, day(3)))
	require.False(t, rec.IsLimitReached(3, 3, day(4)))
	require.False(t, rec.IsLimitReached(4, 3, day(2)))
}

func TestDelete_RemovesRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, domain.StrikeUnlinked, "hash-a"))

	rec, err := s.Get(ctx, domain.StrikeUnlinked, "hash-a")
	require.NoError(t, err)
	require.Equal(t, 0, rec.Strikes)
}

func TestPruneMissing_OnlyRemovesKeysNotInLiveSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Strike(ctx, domain.StrikeUnlinked, "hash-a", day(0))
	require.NoError(t, err)
	_, err = s.Strike(ctx, domain.StrikeUnlinked, "hash-b", day(0))
	require.NoError(t, err)

	require.NoError(t, s.PruneMissing(ctx, domain.StrikeUnlinked, map[string]struct{}{"hash-a": {}}))

	recA, err := s.Get(ctx, domain.StrikeUnlinked, "hash-a")
	require.NoError(t, err)
	require.Equal(t, 1, recA.Strikes)

	recB, err := s.Get(ctx, domain.StrikeUnlinked, "hash-b")
	require.NoError(t, err)
	require.Equal(t, 0, recB.Strikes)
}

func TestMigrateLegacyStrikeType_RewritesForgottenRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO strikes (strike_type, key, strikes, strike_days, last_strike_date)
		VALUES ('handle_forgotten', 'hash-a', 2, 2, ?)
	`, day(0).Format(dateLayout))
	require.NoError(t, err)

	require.NoError(t, s.MigrateLegacyStrikeType(ctx))

	rec, err := s.Get(ctx, domain.StrikeUnlinked, "hash-a")
	require.NoError(t, err)
	require.Equal(t, 2, rec.Strikes)
}

func TestJobRun_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	zero, err := s.GetLastJobRun(ctx, "handle_unlinked")
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	when := day(0)
	require.NoError(t, s.SetLastJobRun(ctx, "handle_unlinked", when))

	got, err := s.GetLastJobRun(ctx, "handle_unlinked")
	require.NoError(t, err)
	require.True(t, got.Equal(when.UTC()))
}
