// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package hardlink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_DetectsNoExternalLinksForUniqueFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	idx, err := Build(dir)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(path)
	require.NoError(t, err)
	require.False(t, external)
}

func TestBuild_InternalHardlinkIsNotExternal(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "movie.mkv")
	linked := filepath.Join(dir, "copy.mkv")
	require.NoError(t, os.WriteFile(original, []byte("data"), 0o644))
	require.NoError(t, os.Link(original, linked))

	idx, err := Build(dir)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(original)
	require.NoError(t, err)
	require.False(t, external)
}

func TestBuild_ExternalHardlinkIsDetected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	inside := filepath.Join(root, "movie.mkv")
	require.NoError(t, os.WriteFile(inside, []byte("data"), 0o644))

	outsideLink := filepath.Join(outside, "movie.mkv")
	require.NoError(t, os.Link(inside, outsideLink))

	idx, err := Build(root)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(inside)
	require.NoError(t, err)
	require.True(t, external)
}

func TestHasExternalHardlinks_ReflectsLinksAddedAfterBuild(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	inside := filepath.Join(root, "movie.mkv")
	require.NoError(t, os.WriteFile(inside, []byte("data"), 0o644))

	idx, err := Build(root)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(inside)
	require.NoError(t, err)
	require.False(t, external)

	outsideLink := filepath.Join(outside, "movie.mkv")
	require.NoError(t, os.Link(inside, outsideLink))

	external, err = idx.HasExternalHardlinks(inside)
	require.NoError(t, err)
	require.True(t, external)
}

func TestHasExternalHardlinks_RecursesIntoDirectoryContentPath(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	contentPath := filepath.Join(root, "Some.Show.S01")
	require.NoError(t, os.Mkdir(contentPath, 0o755))

	unlinkedEpisode := filepath.Join(contentPath, "ep01.mkv")
	require.NoError(t, os.WriteFile(unlinkedEpisode, []byte("data"), 0o644))

	linkedEpisode := filepath.Join(contentPath, "ep02.mkv")
	require.NoError(t, os.WriteFile(linkedEpisode, []byte("data"), 0o644))
	require.NoError(t, os.Link(linkedEpisode, filepath.Join(outside, "ep02.mkv")))

	idx, err := Build(root)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(contentPath)
	require.NoError(t, err)
	require.True(t, external)
}

func TestHasExternalHardlinks_DirectoryWithNoExternalLinksIsFalse(t *testing.T) {
	root := t.TempDir()

	contentPath := filepath.Join(root, "Some.Movie")
	require.NoError(t, os.Mkdir(contentPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contentPath, "movie.mkv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(contentPath, "movie.srt"), []byte("data"), 0o644))

	idx, err := Build(root)
	require.NoError(t, err)

	external, err := idx.HasExternalHardlinks(contentPath)
	require.NoError(t, err)
	require.False(t, external)
}

func TestHasExternalHardlinks_MissingPathFails(t *testing.T) {
	root := t.TempDir()
	idx, err := Build(root)
	require.NoError(t, err)

	_, err = idx.HasExternalHardlinks(filepath.Join(root, "does-not-exist"))
	require.Error(t, err)
}
