package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yksanjo/roblox-world-generator/internal/index"
	"github.com/yksanjo/roblox-world-generator/internal/storage"
	"github.com/yksanjo/roblox-world-generator/pkg/prompt"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
	"github.com/yksanjo/roblox-world-generator/pkg/world"
)

var quiet = log.New(io.Discard, "", 0)

func newStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.Open(storage.Options{Backend: storage.BackendFile, Dir: t.TempDir(), Logger: quiet})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	if opts.Store == nil {
		opts.Store = newStore(t)
	}
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	m, err := NewManager(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m
}

func fullRequest(text string) Request {
	return Request{
		Prompt:            text,
		IncludeTerrain:    true,
		IncludeStructures: true,
		IncludeObjects:    true,
	}
}

func waitTerminal(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	var j Job
	require.Eventually(t, func() bool {
		var err error
		j, err = m.Get(context.Background(), id)
		return err == nil && j.Status.Terminal()
	}, 10*time.Second, 5*time.Millisecond)
	return j
}

// blocking returns a translator that waits for release (or cancellation)
// before delegating to the keyword translator.
func blocking(release <-chan struct{}) prompt.Translator {
	return prompt.TranslatorFunc(func(ctx context.Context, text string, h prompt.Hints) (*spec.Spec, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return prompt.Keyword{}.Translate(ctx, text, h)
	})
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recorder struct {
	mu                 sync.Mutex
	queued, started    int
	finished           map[string]int
	objectsOnCompleted int
}

func (r *recorder) JobQueued()  { r.mu.Lock(); r.queued++; r.mu.Unlock() }
func (r *recorder) JobStarted() { r.mu.Lock(); r.started++; r.mu.Unlock() }
func (r *recorder) JobFinished(status string, _ time.Duration, objects int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = make(map[string]int)
	}
	r.finished[status]++
	if status == "completed" {
		r.objectsOnCompleted += objects
	}
}

func TestSubmitCompletes(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, Options{Workers: 2, QueueSize: 4, Metrics: rec})

	j, err := m.Submit(fullRequest("a castle on a tropical island"))
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, 0, j.Progress)
	assert.Equal(t, world.DefaultWorldSize, j.WorldSize)
	assert.NotEmpty(t, j.ID)

	done := waitTerminal(t, m, j.ID)
	require.Equal(t, StatusCompleted, done.Status, done.Error)
	assert.Equal(t, 100, done.Progress)
	assert.NotNil(t, done.Seed)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.FailedAt)
	assert.NotEmpty(t, done.FilePath)
	assert.Zero(t, done.Objects)

	raw, err := m.Raw(context.Background(), j.ID)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.0", doc["version"])

	d, err := m.Document(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, d.Metadata.JobID)
	assert.Equal(t, *done.Seed, d.Metadata.Seed)
	assert.Len(t, d.Workspace.Models, 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.queued)
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.finished["completed"])
	assert.Zero(t, rec.objectsOnCompleted)
}

func TestSubmitInlineSpecIsReproducible(t *testing.T) {
	m := newManager(t, Options{Workers: 2, QueueSize: 4})

	count := 25
	seed := int64(7)
	req := Request{
		Spec: &spec.Spec{
			Terrain: &spec.TerrainRequest{Type: "mountain"},
			Objects: []spec.ObjectGroupRequest{{Type: "rock", Count: &count}},
		},
		WorldSize:      256,
		IncludeTerrain: true,
		IncludeObjects: true,
		Seed:           &seed,
	}

	a, err := m.Submit(req)
	require.NoError(t, err)
	b, err := m.Submit(req)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, waitTerminal(t, m, a.ID).Status)
	require.Equal(t, StatusCompleted, waitTerminal(t, m, b.ID).Status)

	da, err := m.Document(context.Background(), a.ID)
	require.NoError(t, err)
	db, err := m.Document(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, da.Workspace, db.Workspace)
	assert.Equal(t, int64(7), da.Metadata.Seed)
	assert.Len(t, da.Workspace.Parts, 25)
	assert.Empty(t, da.Workspace.Models)
}

func TestSubmitEmpty(t *testing.T) {
	m := newManager(t, Options{})
	_, err := m.Submit(Request{Prompt: "   "})
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestTranslatorFailure(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, Options{
		Metrics: rec,
		Translator: prompt.TranslatorFunc(func(context.Context, string, prompt.Hints) (*spec.Spec, error) {
			return nil, errors.New("model unavailable")
		}),
	})

	j, err := m.Submit(fullRequest("anything"))
	require.NoError(t, err)
	done := waitTerminal(t, m, j.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Contains(t, done.Error, "model unavailable")
	assert.NotNil(t, done.FailedAt)
	assert.Nil(t, done.CompletedAt)

	_, err = m.Raw(context.Background(), j.ID)
	assert.ErrorIs(t, err, ErrNotCompleted)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.finished["failed"])
}

func TestTooManyObjectsFails(t *testing.T) {
	m := newManager(t, Options{MaxObjects: 5})
	count := 6
	j, err := m.Submit(Request{
		Spec:           &spec.Spec{Objects: []spec.ObjectGroupRequest{{Count: &count}}},
		IncludeObjects: true,
	})
	require.NoError(t, err)
	done := waitTerminal(t, m, j.ID)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Contains(t, done.Error, world.ErrTooManyObjects.Error())
}

func TestLargeGroupAndWarningsAreReported(t *testing.T) {
	m := newManager(t, Options{})
	count, spread := 6000, -1.0
	j, err := m.Submit(Request{
		Spec:           &spec.Spec{Objects: []spec.ObjectGroupRequest{{Type: "rock", Count: &count, Spread: &spread}}},
		WorldSize:      256,
		IncludeObjects: true,
	})
	require.NoError(t, err)
	done := waitTerminal(t, m, j.ID)
	require.Equal(t, StatusCompleted, done.Status, done.Error)
	assert.Equal(t, 6000, done.Objects)
	require.Len(t, done.Warnings, 1)
	assert.Contains(t, done.Warnings[0], "objects[0].spread")
}

// gatedIndex holds every Upsert until the gate opens.
type gatedIndex struct {
	*index.SQLiteIndex
	gate    chan struct{}
	upserts atomic.Int64
}

func (g *gatedIndex) Upsert(ctx context.Context, r index.Record) error {
	<-g.gate
	g.upserts.Add(1)
	return g.SQLiteIndex.Upsert(ctx, r)
}

func TestSlowIndexDoesNotStallJobs(t *testing.T) {
	sqlite, err := index.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	idx := &gatedIndex{SQLiteIndex: sqlite, gate: make(chan struct{})}

	m, err := NewManager(Options{Store: newStore(t), Index: idx, Logger: quiet, QueueSize: 1})
	require.NoError(t, err)

	// Far more snapshots than any fixed buffer would hold.
	var last Job
	for i := 0; i < 20; i++ {
		j, err := m.Submit(fullRequest("a house by the lake"))
		require.NoError(t, err)
		last = waitTerminal(t, m, j.ID)
		require.Equal(t, StatusCompleted, last.Status, last.Error)
	}

	close(idx.gate)
	require.NoError(t, m.Close(context.Background()))
	assert.Positive(t, idx.upserts.Load())

	r, err := sqlite.Get(context.Background(), last.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", r.Status)
	assert.Equal(t, 100, r.Progress)
}

func TestEvictFinishedJobs(t *testing.T) {
	idx, err := index.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	withIndex := newManager(t, Options{Index: idx, Retention: time.Minute})
	bare := newManager(t, Options{Retention: time.Minute})

	for _, m := range []*Manager{withIndex, bare} {
		j, err := m.Submit(fullRequest("a castle"))
		require.NoError(t, err)
		done := waitTerminal(t, m, j.ID)
		require.Equal(t, StatusCompleted, done.Status)

		m.flush()
		assert.Zero(t, m.evict(done.CompletedAt.Add(30*time.Second)), "inside retention")
		assert.Equal(t, 1, m.evict(done.CompletedAt.Add(2*time.Minute)))

		m.mu.Lock()
		assert.Empty(t, m.jobs)
		m.mu.Unlock()

		got, err := m.Get(context.Background(), j.ID)
		if m == bare {
			assert.ErrorIs(t, err, ErrNotFound)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		_, err = m.Raw(context.Background(), j.ID)
		assert.NoError(t, err)
	}
}

func TestEvictKeepsRunningJobs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m := newManager(t, Options{Translator: blocking(release), Retention: time.Minute})
	j, err := m.Submit(fullRequest("slow"))
	require.NoError(t, err)
	assert.Zero(t, m.evict(time.Now().Add(24*time.Hour)))
	_, err = m.Get(context.Background(), j.ID)
	assert.NoError(t, err)
}

func TestStartupFailsUnfinishedJobs(t *testing.T) {
	idx, err := index.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	now := time.Now().UTC()
	require.NoError(t, idx.Upsert(context.Background(), index.Record{
		ID: "left-over", Status: string(StatusProcessing), Progress: 40, WorldSize: 512, CreatedAt: now,
	}))

	m := newManager(t, Options{Index: idx})
	got, err := m.Get(context.Background(), "left-over")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, interruptedReason, got.Error)
	assert.NotNil(t, got.FailedAt)
}

func TestUnknownJob(t *testing.T) {
	m := newManager(t, Options{})
	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Raw(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = m.Subscribe("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	m := newManager(t, Options{Workers: 1, QueueSize: 1, Translator: blocking(release)})

	first, err := m.Submit(fullRequest("first"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, _ := m.Get(context.Background(), first.ID)
		return j.Status == StatusProcessing
	}, 5*time.Second, 5*time.Millisecond)

	second, err := m.Submit(fullRequest("second"))
	require.NoError(t, err)
	_, err = m.Submit(fullRequest("third"))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	assert.Equal(t, StatusCompleted, waitTerminal(t, m, first.ID).Status)
	assert.Equal(t, StatusCompleted, waitTerminal(t, m, second.ID).Status)
}

func TestSubscribeProgress(t *testing.T) {
	release := make(chan struct{})
	m := newManager(t, Options{Translator: blocking(release)})

	j, err := m.Submit(fullRequest("a village in the forest"))
	require.NoError(t, err)
	ch, cancel, err := m.Subscribe(j.ID)
	require.NoError(t, err)
	defer cancel()
	close(release)

	var seen []Job
	for s := range ch {
		seen = append(seen, s)
	}
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Progress, seen[i-1].Progress)
	}

	// A finished job yields its final snapshot and a closed channel.
	ch, _, err = m.Subscribe(j.ID)
	require.NoError(t, err)
	s, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, s.Status)
	_, ok = <-ch
	assert.False(t, ok)
}

func TestSubscribeCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m := newManager(t, Options{Translator: blocking(release)})

	j, err := m.Submit(fullRequest("x"))
	require.NoError(t, err)
	ch, cancel, err := m.Subscribe(j.ID)
	require.NoError(t, err)
	cancel()
	cancel()
	for range ch {
	}
}

func TestListNewestFirst(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newManager(t, Options{Now: c.Now, QueueSize: 8})

	var ids []string
	for _, p := range []string{"one", "two", "three"} {
		j, err := m.Submit(fullRequest(p))
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	list, err := m.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	list, err = m.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIndexSurvivesRestart(t *testing.T) {
	idx, err := index.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	store := newStore(t)

	first, err := NewManager(Options{Store: store, Index: idx, Logger: quiet})
	require.NoError(t, err)
	j, err := first.Submit(fullRequest("a desert house"))
	require.NoError(t, err)
	done := waitTerminal(t, first, j.ID)
	require.Equal(t, StatusCompleted, done.Status)
	require.NoError(t, first.Close(context.Background()))

	r, err := idx.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", r.Status)
	assert.Equal(t, 100, r.Progress)
	assert.Equal(t, "a desert house", r.Prompt)

	second := newManager(t, Options{Store: store, Index: idx})
	got, err := second.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, *done.Seed, *got.Seed)

	raw, err := second.Raw(context.Background(), j.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	list, err := second.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, j.ID, list[0].ID)
}

func TestCloseCancelsInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m, err := NewManager(Options{Store: newStore(t), Translator: blocking(release), Logger: quiet})
	require.NoError(t, err)

	j, err := m.Submit(fullRequest("stuck"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Close(ctx), context.DeadlineExceeded)

	got, err := m.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	_, err = m.Submit(fullRequest("late"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, m.Close(context.Background()))
}

func TestStageProgress(t *testing.T) {
	cases := []struct {
		st   world.Stage
		want int
	}{
		{world.Stage{Kind: world.StageTerrain, Total: 1}, 40},
		{world.Stage{Kind: world.StageStructures, Index: 0, Total: 2}, 40},
		{world.Stage{Kind: world.StageStructures, Index: 1, Total: 2}, 45},
		{world.Stage{Kind: world.StageObjects, Index: 0, Total: 4}, 50},
		{world.Stage{Kind: world.StageObjects, Index: 3, Total: 4}, 57},
		{world.Stage{Kind: world.StageObjects}, 50},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, stageProgress(c.st), "%+v", c.st)
	}
}
