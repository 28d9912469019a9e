package runregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateIsMonotonic(t *testing.T) {
	t.Parallel()

	r := New()
	first := r.Allocate("nightly", "etl")
	second := r.Allocate("nightly", "etl")

	require.Equal(t, uint32(1), first.ID)
	require.Equal(t, uint32(2), second.ID)
}

func TestAppendAndRead(t *testing.T) {
	t.Parallel()

	r := New()
	key := r.Allocate("nightly", "etl")
	r.Append(key.ID, []string{"line one", "line two"})

	lines, err := r.Read(key.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"line one", "line two"}, lines)
}

func TestReadMissingReturnsIDNotFound(t *testing.T) {
	t.Parallel()

	r := New()
	_, err := r.Read(99)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Id is not found")
}

func TestAppendAfterArchiveRecreatesEntry(t *testing.T) {
	t.Parallel()

	r := New()
	key := r.Allocate("nightly", "etl")
	r.Append(key.ID, []string{"before archive"})

	dir := t.TempDir()
	require.NoError(t, r.Archive(key.ID, dir))

	_, err := r.Read(key.ID)
	require.Error(t, err)

	r.Append(key.ID, []string{"after archive"})
	lines, err := r.Read(key.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"after archive"}, lines)
}

func TestListIDsSnapshotsKeys(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Allocate("nightly", "etl")
	b := r.Allocate("nightly", "backfill")

	keys := r.ListIDs()
	require.Len(t, keys, 2)

	ids := map[uint32]bool{}
	for _, k := range keys {
		ids[k.ID] = true
	}
	require.True(t, ids[a.ID])
	require.True(t, ids[b.ID])
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	r := New()
	key := r.Allocate("nightly", "etl")
	r.Append(key.ID, []string{"2026-07-30 00:00:00 Info step one", "2026-07-30 00:00:01 Info step two"})

	dir := t.TempDir()
	require.NoError(t, r.Archive(key.ID, dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Equal(t, "2026-07-30 00:00:00 Info step one\n2026-07-30 00:00:01 Info step two\n", string(content))

	_, err = r.Read(key.ID)
	require.Error(t, err)
}

func TestArchiveAllArchivesAndEvictsEveryRun(t *testing.T) {
	t.Parallel()

	r := New()
	a := r.Allocate("nightly", "etl")
	b := r.Allocate("nightly", "backfill")
	r.Append(a.ID, []string{"a"})
	r.Append(b.ID, []string{"b"})

	dir := t.TempDir()
	archived, failures := r.ArchiveAll(dir)
	require.Len(t, archived, 2)
	require.Empty(t, failures)

	_, err := r.Read(a.ID)
	require.Error(t, err)
	_, err = r.Read(b.ID)
	require.Error(t, err)
}
