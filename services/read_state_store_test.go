package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/repository"
)

func newTestStore(kv repository.KVStore) ReadStateStore {
	return NewReadStateStore(repository.NewReadStateRepo(kv), func() time.Time { return time.UnixMilli(5000) })
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestMarkResourceReadIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	store := newTestStore(kv)

	once, err := store.MarkResourceRead(ctx, "u1", "r1")
	require.NoError(t, err)
	twice, err := store.MarkResourceRead(ctx, "u1", "r1")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"r1"}, twice.IDs())
	assert.Equal(t, 2, kv.Writes(), "every mark writes exactly once")

	raw, _ := kv.Raw("seen_res_u1")
	assert.JSONEq(t, `["r1"]`, string(raw))
}

func TestMarkEachCollection(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	store := newTestStore(kv)

	_, err := store.MarkChapterRead(ctx, "u1", "c1")
	require.NoError(t, err)
	_, err = store.MarkPublicResourceRead(ctx, "u1", "p1")
	require.NoError(t, err)
	seenAt, err := store.MarkBatchSeen(ctx, "u1", "B")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), seenAt)

	raw, _ := kv.Raw("seen_ch_u1")
	assert.JSONEq(t, `["c1"]`, string(raw))
	raw, _ = kv.Raw("seen_public_res_u1")
	assert.JSONEq(t, `["p1"]`, string(raw))
	raw, _ = kv.Raw("batch_last_seen_u1")
	assert.JSONEq(t, `{"B":5000}`, string(raw))

	state := store.Load(ctx, "u1")
	assert.True(t, state.SeenChapters.Has("c1"))
	assert.True(t, state.SeenPublicResources.Has("p1"))
	assert.False(t, state.SeenResources.Has("p1"))
}

func TestMarkRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	store := newTestStore(kv)

	_, err := store.MarkResourceRead(ctx, "u1", "  ")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = store.MarkBatchSeen(ctx, "u1", "")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Zero(t, kv.Writes())
}

func TestLoadHappensOncePerScope(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	kv.PutRaw("seen_res_u1", []byte(`["r1"]`))
	store := newTestStore(kv)

	assert.True(t, store.Load(ctx, "u1").SeenResources.Has("r1"))

	kv.PutRaw("seen_res_u1", []byte(`["r1","r2"]`))
	assert.False(t, store.Load(ctx, "u1").SeenResources.Has("r2"), "in-memory view is not re-read")

	store.Discard("u1")
	assert.True(t, store.Load(ctx, "u1").SeenResources.Has("r2"))
}

func TestLoadSnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(repository.NewMemoryKVStore())

	snap := store.Load(ctx, "u1")
	snap.SeenResources.Add("r9")

	assert.False(t, store.Load(ctx, "u1").SeenResources.Has("r9"))
}

func TestMalformedRecordLoadsEmptyAndLogs(t *testing.T) {
	buf := captureLog(t)
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	kv.PutRaw("seen_res_u1", []byte(`{{{`))
	kv.PutRaw("seen_ch_u1", []byte(`["c1"]`))
	store := newTestStore(kv)

	state := store.Load(ctx, "u1")

	assert.Empty(t, state.SeenResources)
	assert.True(t, state.SeenChapters.Has("c1"))
	assert.Contains(t, buf.String(), "[readstate]")
	assert.Contains(t, buf.String(), "seen_res_u1")

	// the empty collection is usable and the next write replaces the bad record
	_, err := store.MarkResourceRead(ctx, "u1", "r1")
	require.NoError(t, err)
	raw, _ := kv.Raw("seen_res_u1")
	assert.JSONEq(t, `["r1"]`, string(raw))
}

func TestWriteFailureKeepsInMemoryMark(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	kv.FailWrites(errors.New("quota exceeded"))
	store := newTestStore(kv)

	set, err := store.MarkResourceRead(ctx, "u1", "r1")

	require.Error(t, err)
	assert.ErrorIs(t, err, pkg.ErrStorage)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, set.Has("r1"))
	assert.True(t, store.Load(ctx, "u1").SeenResources.Has("r1"), "not rolled back")

	_, found := kv.Raw("seen_res_u1")
	assert.False(t, found)

	seenAt, err := store.MarkBatchSeen(ctx, "u1", "B")
	assert.ErrorIs(t, err, pkg.ErrStorage)
	assert.Equal(t, int64(5000), store.Load(ctx, "u1").LastSeenByBatch["B"])
	assert.Equal(t, int64(5000), seenAt)
}

func TestViewerIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(repository.NewMemoryKVStore())

	_, err := store.MarkResourceRead(ctx, "a", "r1")
	require.NoError(t, err)

	r1 := models.Resource{ID: "r1", New: true}
	assert.False(t, IsResourceUnread(r1, store.Load(ctx, "a").SeenResources))
	assert.True(t, IsResourceUnread(r1, store.Load(ctx, "b").SeenResources))
}

func TestMonotonicity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(repository.NewMemoryKVStore())
	r := models.Resource{ID: "r1", New: true}

	ops := []func(){
		func() { _, _ = store.MarkChapterRead(ctx, "u1", "c1") },
		func() { _, _ = store.MarkResourceRead(ctx, "u1", "r1") },
		func() { _, _ = store.MarkBatchSeen(ctx, "u1", "B") },
		func() { _, _ = store.MarkResourceRead(ctx, "u1", "r2") },
		func() { _, _ = store.MarkPublicResourceRead(ctx, "u1", "r1") },
		func() { _, _ = store.MarkResourceRead(ctx, "u1", "r1") },
	}

	read := false
	for _, op := range ops {
		op()
		unread := IsResourceUnread(r, store.Load(ctx, "u1").SeenResources)
		if read {
			assert.False(t, unread, "a read resource never becomes unread again")
		}
		read = read || !unread
	}
	assert.True(t, read)
}

func TestSeparateContextsLastWriterWins(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	repo := repository.NewReadStateRepo(kv)

	tabA := NewReadStateStore(repo, time.Now)
	tabB := NewReadStateStore(repo, time.Now)
	tabA.Load(ctx, "u1")
	tabB.Load(ctx, "u1")

	_, err := tabA.MarkResourceRead(ctx, "u1", "r1")
	require.NoError(t, err)
	_, err = tabB.MarkResourceRead(ctx, "u1", "r2")
	require.NoError(t, err)

	raw, _ := kv.Raw("seen_res_u1")
	assert.JSONEq(t, `["r2"]`, string(raw), "tab B overwrote tab A's record")
	assert.False(t, tabA.Load(ctx, "u1").SeenResources.Has("r2"))
	assert.False(t, tabB.Load(ctx, "u1").SeenResources.Has("r1"))
}

func TestReadFailureNeverOverwritesStoredIDs(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	kv.PutRaw("seen_res_u1", []byte(`["a","b"]`))
	kv.FailReads(errors.New("io timeout"))
	store := newTestStore(kv)

	set, err := store.MarkResourceRead(ctx, "u1", "c")
	assert.ErrorIs(t, err, pkg.ErrStorage)
	assert.True(t, set.Has("c"))
	assert.Equal(t, 0, kv.Writes())
	raw, _ := kv.Raw("seen_res_u1")
	assert.JSONEq(t, `["a","b"]`, string(raw))
	assert.True(t, store.Load(ctx, "u1").SeenResources.Has("c"), "the mark is kept in memory")

	kv.FailReads(nil)

	state := store.Load(ctx, "u1")
	assert.Equal(t, []string{"a", "b", "c"}, state.SeenResources.IDs())

	_, err = store.MarkResourceRead(ctx, "u1", "d")
	require.NoError(t, err)
	raw, _ = kv.Raw("seen_res_u1")
	assert.JSONEq(t, `["a","b","c","d"]`, string(raw))
}

func TestReadFailureDefersBatchWrite(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	kv := repository.NewMemoryKVStore()
	kv.PutRaw("batch_last_seen_u1", []byte(`{"A":1000,"B":1000}`))
	kv.FailReads(errors.New("io timeout"))
	store := newTestStore(kv)

	seenAt, err := store.MarkBatchSeen(ctx, "u1", "B")
	assert.ErrorIs(t, err, pkg.ErrStorage)
	assert.Equal(t, int64(5000), seenAt)
	raw, _ := kv.Raw("batch_last_seen_u1")
	assert.JSONEq(t, `{"A":1000,"B":1000}`, string(raw))

	kv.FailReads(nil)
	_, err = store.MarkBatchSeen(ctx, "u1", "C")
	require.NoError(t, err)

	raw, _ = kv.Raw("batch_last_seen_u1")
	assert.JSONEq(t, `{"A":1000,"B":5000,"C":5000}`, string(raw))
}
