// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package domain holds the plain data types shared across the torrent
// cleaner: the torrent/tracker snapshot read from the client and the
// strike/job-run records persisted to the store.
package domain

import "strings"

// Torrent is an immutable snapshot of a single torrent as reported by the
// torrent client at the start of a job run.
type Torrent struct {
	Hash         string
	Name         string
	Size         int64
	ContentPath  string
	SavePath     string
	Ratio        float64
	State        TorrentState
	Tracker      string
	Category     string
	Tags         string
	AddedOn      int64
	CompletionOn int64
	SeedingTime  int64
}

// TorrentState is the lifecycle string reported by the torrent client.
type TorrentState string

const (
	StatePausedUP  TorrentState = "pausedUP"
	StateStoppedUP TorrentState = "stoppedUP"
	StatePausedDL  TorrentState = "pausedDL"
	StateStoppedDL TorrentState = "stoppedDL"
)

// IsCompleted reports whether the torrent has finished downloading.
// completion_on == -1 means "never completed".
func (t Torrent) IsCompleted() bool {
	return t.CompletionOn != -1
}

// TagSet splits the space-or-comma-joined Tags field into a normalized set.
func (t Torrent) TagSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(t.Tags, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		field = strings.TrimSpace(field)
		if field != "" {
			set[field] = struct{}{}
		}
	}
	return set
}

// HasTag reports whether tag is present among the torrent's tags.
func (t Torrent) HasTag(tag string) bool {
	_, ok := t.TagSet()[tag]
	return ok
}

// TorrentFile is a single file belonging to a torrent, relative to SavePath.
type TorrentFile struct {
	RelativeName string
	SizeBytes    int64
}

// AbsolutePath reconstructs the on-disk path of the file given the owning
// torrent's save path.
func (f TorrentFile) AbsolutePath(savePath string) string {
	return strings.TrimRight(savePath, "/") + "/" + f.RelativeName
}

// TrackerStatus mirrors the qBittorrent tracker status enumeration.
type TrackerStatus int

const (
	TrackerDisabled     TrackerStatus = 0
	TrackerNotContacted TrackerStatus = 1
	TrackerWorking      TrackerStatus = 2
	TrackerUpdating     TrackerStatus = 3
	TrackerNotWorking   TrackerStatus = 4
)

// Tracker is a single tracker entry reported for a torrent.
type Tracker struct {
	URL     string
	Status  TrackerStatus
	Message string
}

// unregisteredPhrases are lowercase substrings that, when found in a
// non-working tracker's message, indicate the tracker considers the
// torrent unregistered rather than merely unreachable.
var unregisteredPhrases = []string{
	"complete season uploaded", "dead", "dupe", "i'm sorry dave",
	"infohash not found", "internal available", "not exist", "not registered",
	"nuked", "pack is available", "packs are available",
	"problem with description", "problem with file", "problem with pack",
	"retitled", "season pack", "specifically banned", "torrent does not exist",
	"torrent existiert nicht", "torrent has been deleted",
	"torrent has been nuked", "torrent introuvable",
	"torrent is not authorized for use on this tracker",
	"torrent is not found", "torrent nicht gefunden",
	"tracker nicht registriert", "torrent not found", "trump", "unknown",
	"unregistered", "não registrado", "upgraded", "uploaded",
}

// IsUnregistered reports whether this tracker's status and message
// indicate the tracker considers the torrent unregistered.
func (t Tracker) IsUnregistered() bool {
	if t.Status == TrackerWorking {
		return false
	}
	msg := strings.ToLower(t.Message)
	for _, phrase := range unregisteredPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// SpecialTrackerURLs are the synthetic tracker URLs qBittorrent reports for
// DHT, PeX and LSD peer sources rather than real trackers.
const (
	TrackerURLDHT = "** [DHT] **"
	TrackerURLPeX = "** [PeX] **"
	TrackerURLLSD = "** [LSD] **"
)
