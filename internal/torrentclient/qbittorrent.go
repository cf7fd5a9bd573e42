// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/avast/retry-go"
	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/domain"
)

const (
	requestTimeout = 10 * time.Second

	loginAttempts = 6
	loginDelay    = 60 * time.Second

	callAttempts = 3
	callDelay    = 3 * time.Second
)

// QBittorrent adapts github.com/autobrr/go-qbittorrent to the Client
// interface, layering the bounded-retry policy required of every call:
// on non-2xx/transport errors a call is tried up to callAttempts times in
// total, callDelay apart; a 401/403 response triggers a re-login before
// the next attempt; and the login call itself is tried up to loginAttempts
// times, loginDelay apart.
type QBittorrent struct {
	inner *qbt.Client
	log   zerolog.Logger
}

// NewQBittorrent builds an adapter around a freshly constructed
// go-qbittorrent client for baseURL/username/password.
func NewQBittorrent(baseURL, username, password string, log zerolog.Logger) *QBittorrent {
	return &QBittorrent{
		inner: qbt.NewClient(qbt.Config{
			Host:     baseURL,
			Username: username,
			Password: password,
			Timeout:  int(requestTimeout / time.Second),
		}),
		log: log,
	}
}

func (c *QBittorrent) Login(ctx context.Context) error {
	return retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			return c.inner.LoginCtx(ctx)
		},
		retry.Attempts(loginAttempts),
		retry.Delay(loginDelay),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Err(err).Uint("attempt", n+1).Msg("qbittorrent login failed, retrying")
		}),
	)
}

func (c *QBittorrent) Logout(ctx context.Context) error {
	return c.call(ctx, func(ctx context.Context) error {
		return c.inner.LogoutCtx(ctx)
	})
}

func (c *QBittorrent) IsLoggedIn(ctx context.Context) (bool, error) {
	var loggedIn bool
	err := c.call(ctx, func(ctx context.Context) error {
		_, err := c.inner.GetWebAPIVersionCtx(ctx)
		if err != nil {
			loggedIn = false
			return err
		}
		loggedIn = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return loggedIn, nil
}

func (c *QBittorrent) GetAllTorrents(ctx context.Context) ([]domain.Torrent, error) {
	var out []domain.Torrent
	err := c.call(ctx, func(ctx context.Context) error {
		torrents, err := c.inner.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
		if err != nil {
			return err
		}
		out = make([]domain.Torrent, 0, len(torrents))
		for _, t := range torrents {
			out = append(out, domain.Torrent{
				Hash:         t.Hash,
				Name:         t.Name,
				Size:         t.Size,
				ContentPath:  t.ContentPath,
				SavePath:     t.SavePath,
				Ratio:        t.Ratio,
				State:        domain.TorrentState(t.State),
				Tracker:      t.Tracker,
				Category:     t.Category,
				Tags:         t.Tags,
				AddedOn:      t.AddedOn,
				CompletionOn: t.CompletionOn,
				SeedingTime:  t.SeedingTime,
			})
		}
		return nil
	})
	return out, err
}

func (c *QBittorrent) GetTorrentTrackers(ctx context.Context, hash string) ([]domain.Tracker, error) {
	var out []domain.Tracker
	err := c.call(ctx, func(ctx context.Context) error {
		trackers, err := c.inner.GetTorrentTrackersCtx(ctx, hash)
		if err != nil {
			return err
		}
		out = make([]domain.Tracker, 0, len(trackers))
		for _, tr := range trackers {
			out = append(out, domain.Tracker{
				URL:     tr.Url,
				Status:  domain.TrackerStatus(tr.Status),
				Message: tr.Message,
			})
		}
		return nil
	})
	return out, err
}

func (c *QBittorrent) GetTorrentFiles(ctx context.Context, hash string) ([]domain.TorrentFile, error) {
	var out []domain.TorrentFile
	err := c.call(ctx, func(ctx context.Context) error {
		files, err := c.inner.GetFilesInformationCtx(ctx, hash)
		if err != nil {
			return err
		}
		out = make([]domain.TorrentFile, 0, len(*files))
		for _, f := range *files {
			out = append(out, domain.TorrentFile{
				RelativeName: f.Name,
				SizeBytes:    f.Size,
			})
		}
		return nil
	})
	return out, err
}

func (c *QBittorrent) StopTorrent(ctx context.Context, hash string) error {
	return c.call(ctx, func(ctx context.Context) error {
		return c.inner.StopCtx(ctx, []string{hash})
	})
}

func (c *QBittorrent) DeleteTorrent(ctx context.Context, hash string, deleteFiles bool) error {
	return c.call(ctx, func(ctx context.Context) error {
		return c.inner.DeleteCtx(ctx, []string{hash}, deleteFiles)
	})
}

// call runs fn with the standard retry policy, re-authenticating on a
// 401/403 before the next attempt.
func (c *QBittorrent) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()

			err := fn(callCtx)
			if err == nil {
				return nil
			}

			if isAuthError(err) {
				c.log.Warn().Err(err).Msg("qbittorrent session expired, re-authenticating")
				if loginErr := c.Login(ctx); loginErr != nil {
					return fmt.Errorf("re-authenticate after %w: %w", err, loginErr)
				}
			}
			return err
		},
		retry.Attempts(callAttempts),
		retry.Delay(callDelay),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Err(err).Uint("attempt", n+1).Msg("qbittorrent request failed, retrying")
		}),
	)
}

// isAuthError reports whether err indicates an HTTP 401/403 response, the
// signal that qBittorrent's own session cookie has expired. go-qbittorrent
// does not expose a typed status-code error, so this matches on the status
// text the library embeds in its error messages (mirrors the original
// implementation's direct status-code comparison).
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, strconv.Itoa(http.StatusUnauthorized)) ||
		strings.Contains(msg, strconv.Itoa(http.StatusForbidden)) ||
		strings.Contains(msg, "Unauthorized") ||
		strings.Contains(msg, "Forbidden")
}
