// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifier sends job outcome/error notifications to a
// Discord-compatible webhook, with its own rate-limit and cooldown
// bookkeeping so a misbehaving webhook endpoint cannot wedge a job run.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// failureWindow is the sliding window used to decide the endpoint is
	// unhealthy enough to back off hard.
	failureWindow = 10 * time.Second
	// failureThreshold is how many failures inside failureWindow trigger
	// the cooldown.
	failureThreshold = 4
	// cooldownDuration is how long to sleep once failureThreshold is hit.
	cooldownDuration = 60 * time.Second
	// retryAfterMargin is added to a 429 response's Retry-After to avoid
	// racing the rate limit window's exact edge.
	retryAfterMargin = 500 * time.Millisecond

	embedColor = 0x697cff
)

// Notifier sends embeds to a Discord-compatible webhook URL. The zero
// value with an empty URL is a valid no-op notifier.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	log        zerolog.Logger

	mu      sync.Mutex
	history []time.Time // recent failure timestamps, used for the failure-burst check
}

// New builds a Notifier. An empty webhookURL makes Send a no-op, matching
// the "notifications disabled" state.
func New(webhookURL string, log zerolog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Field is a single embed field.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// Send posts a single embed with title/description/fields. A no-op when
// the notifier has no webhook URL configured.
func (n *Notifier) Send(ctx context.Context, title, description string, fields []Field) error {
	if !n.Enabled() {
		return nil
	}

	embedFields := make([]embedField, 0, len(fields))
	for _, f := range fields {
		embedFields = append(embedFields, embedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	payload := webhookPayload{
		Username: "Torrent Cleaner",
		Embeds: []embed{{
			Title:       title,
			Description: description,
			Color:       embedColor,
			Fields:      embedFields,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	return n.post(ctx, body)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	for {
		if err := n.waitForCooldown(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.recordFailure()
			return fmt.Errorf("send webhook request: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := parseRetryAfter(resp.Header.Get("Retry-After")) + retryAfterMargin
			resp.Body.Close()
			n.log.Warn().Dur("wait", wait).Msg("webhook rate limited, backing off")
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			resp.Body.Close()
			n.recordSuccess()
			return nil
		default:
			resp.Body.Close()
			n.recordFailure()
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
	}
}

// waitForCooldown drops recorded failures older than failureWindow. If
// failureThreshold or more remain, it clears the history and sleeps for
// cooldownDuration (returning early if ctx is done).
func (n *Notifier) waitForCooldown(ctx context.Context) error {
	n.mu.Lock()
	now := time.Now()
	cutoff := now.Add(-failureWindow)
	kept := n.history[:0]
	for _, t := range n.history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	n.history = kept
	tripped := len(n.history) >= failureThreshold
	if tripped {
		n.history = nil
	}
	n.mu.Unlock()

	if tripped {
		n.log.Warn().Dur("wait", cooldownDuration).Msg("webhook failing repeatedly, cooling down")
		return sleepCtx(ctx, cooldownDuration)
	}
	return nil
}

func (n *Notifier) recordFailure() {
	n.mu.Lock()
	n.history = append(n.history, time.Now())
	n.mu.Unlock()
}

func (n *Notifier) recordSuccess() {
	n.mu.Lock()
	n.history = nil
	n.mu.Unlock()
}

// parseRetryAfter reads a Retry-After header value as milliseconds,
// falling back to 3000ms when the header is absent or unparsable.
func parseRetryAfter(header string) time.Duration {
	if ms, err := strconv.Atoi(header); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return 3000 * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
