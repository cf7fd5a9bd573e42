// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package strikestore persists the per-(strike_type, key) counters the
// job runners use to gate destructive action on sustained, reproducible
// conditions, and the last-run timestamp used by the scheduler.
package strikestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

const dateLayout = "2006-01-02"

// Store reads and updates strike and job-run rows.
type Store struct {
	conn *sql.DB
}

// New wraps an open database connection.
func New(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// Get returns the current record for (strikeType, key), or a zero-value
// record with Strikes == 0 if none exists yet.
func (s *Store) Get(ctx context.Context, strikeType domain.StrikeType, key string) (domain.StrikeRecord, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT strikes, strike_days, last_strike_date
		FROM strikes
		WHERE strike_type = ? AND key = ?
	`, string(strikeType), key)

	var strikes, strikeDays int
	var lastStrikeDate string
	err := row.Scan(&strikes, &strikeDays, &lastStrikeDate)
	switch {
	case err == sql.ErrNoRows:
		return domain.StrikeRecord{StrikeType: strikeType, Key: key}, nil
	case err != nil:
		return domain.StrikeRecord{}, fmt.Errorf("get strike %s/%s: %w", strikeType, key, err)
	}

	last, err := time.Parse(dateLayout, lastStrikeDate)
	if err != nil {
		return domain.StrikeRecord{}, fmt.Errorf("parse last_strike_date %q: %w", lastStrikeDate, err)
	}

	return domain.StrikeRecord{
		StrikeType:     strikeType,
		Key:            key,
		Strikes:        strikes,
		StrikeDays:     strikeDays,
		LastStrikeDate: last,
	}, nil
}

// Strike advances the counter for (strikeType, key) given today's date:
//   - no prior record, or the last strike predates yesterday: reset to
//     (strikes=1, strike_days=1)
//   - last strike was yesterday: strikes+1, strike_days+1
//   - last strike was today: strikes+1, strike_days unchanged
//
// It returns the record as it stands after the update.
func (s *Store) Strike(ctx context.Context, strikeType domain.StrikeType, key string, today time.Time) (domain.StrikeRecord, error) {
	today = dateOnly(today)
	yesterday := today.AddDate(0, 0, -1)

	existing, err := s.Get(ctx, strikeType, key)
	if err != nil {
		return domain.StrikeRecord{}, err
	}

	next := domain.StrikeRecord{StrikeType: strikeType, Key: key, LastStrikeDate: today}
	last := dateOnly(existing.LastStrikeDate)

	switch {
	case existing.Strikes == 0:
		next.Strikes, next.StrikeDays = 1, 1
	case last.Equal(today):
		next.Strikes, next.StrikeDays = existing.Strikes+1, existing.StrikeDays
	case last.Equal(yesterday):
		next.Strikes, next.StrikeDays = existing.Strikes+1, existing.StrikeDays+1
	default:
		next.Strikes, next.StrikeDays = 1, 1
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO strikes (strike_type, key, strikes, strike_days, last_strike_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (strike_type, key) DO UPDATE SET
			strikes = excluded.strikes,
			strike_days = excluded.strike_days,
			last_strike_date = excluded.last_strike_date
	`, string(strikeType), key, next.Strikes, next.StrikeDays, next.LastStrikeDate.Format(dateLayout))
	if err != nil {
		return domain.StrikeRecord{}, fmt.Errorf("strike %s/%s: %w", strikeType, key, err)
	}

	return next, nil
}

// Delete removes the record for (strikeType, key), e.g. once a condition
// no longer holds or the torrent has been acted on.
func (s *Store) Delete(ctx context.Context, strikeType domain.StrikeType, key string) error {
	if _, err := s.conn.ExecContext(ctx, `
		DELETE FROM strikes WHERE strike_type = ? AND key = ?
	`, string(strikeType), key); err != nil {
		return fmt.Errorf("delete strike %s/%s: %w", strikeType, key, err)
	}
	return nil
}

// PruneMissing removes every strike record of strikeType whose key is not
// present in liveKeys, so keys that have disappeared from the current
// snapshot (a torrent removed by hand, a path that no longer exists) do
// not keep a strike history that can never be reached again. Keys still
// present in liveKeys are kept whether or not their criteria hold.
func (s *Store) PruneMissing(ctx context.Context, strikeType domain.StrikeType, liveKeys map[string]struct{}) error {
	rows, err := s.conn.QueryContext(ctx, `SELECT key FROM strikes WHERE strike_type = ?`, string(strikeType))
	if err != nil {
		return fmt.Errorf("list strikes for %s: %w", strikeType, err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("scan strike key: %w", err)
		}
		if _, ok := liveKeys[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate strikes for %s: %w", strikeType, err)
	}

	for _, key := range stale {
		if err := s.Delete(ctx, strikeType, key); err != nil {
			return err
		}
	}
	return nil
}

// MigrateLegacyStrikeType rewrites any rows persisted under the pre-rename
// "handle_forgotten" literal to "handle_unlinked". Safe to call on every
// startup: a no-op once the rewrite has happened.
func (s *Store) MigrateLegacyStrikeType(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `
		UPDATE strikes SET strike_type = ? WHERE strike_type = ?
	`, string(domain.StrikeUnlinked), string(domain.StrikeForgottenLegacy)); err != nil {
		return fmt.Errorf("migrate legacy strike type: %w", err)
	}
	return nil
}

// GetLastJobRun returns the last recorded run time for jobName, or the
// zero time if the job has never run.
func (s *Store) GetLastJobRun(ctx context.Context, jobName string) (time.Time, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT last_job_run FROM jobs WHERE job_name = ?`, jobName)
	var raw string
	switch err := row.Scan(&raw); {
	case err == sql.ErrNoRows:
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("get last run for job %s: %w", jobName, err)
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_job_run %q: %w", raw, err)
	}
	return t, nil
}

// SetLastJobRun records when as the last run time of jobName. The
// scheduler calls it as a run starts, before the handler executes.
func (s *Store) SetLastJobRun(ctx context.Context, jobName string, when time.Time) error {
	if _, err := s.conn.ExecContext(ctx, `
		INSERT INTO jobs (job_name, last_job_run) VALUES (?, ?)
		ON CONFLICT (job_name) DO UPDATE SET last_job_run = excluded.last_job_run
	`, jobName, when.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("set last run for job %s: %w", jobName, err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
