package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yksanjo/roblox-world-generator/internal/index"
	"github.com/yksanjo/roblox-world-generator/internal/storage"
	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/prompt"
	"github.com/yksanjo/roblox-world-generator/pkg/scene"
	"github.com/yksanjo/roblox-world-generator/pkg/validation"
	"github.com/yksanjo/roblox-world-generator/pkg/world"
)

// Index persists job snapshots. *index.SQLiteIndex satisfies it.
type Index interface {
	Upsert(ctx context.Context, r index.Record) error
	Get(ctx context.Context, id string) (index.Record, error)
	Recent(ctx context.Context, limit int) ([]index.Record, error)
	FailUnfinished(ctx context.Context, reason string, at time.Time) (int64, error)
}

// interruptedReason is recorded on jobs a previous process left unfinished.
const interruptedReason = "interrupted before completion"

// DefaultRetention is how long finished jobs stay in memory.
const DefaultRetention = time.Hour

// Recorder receives job lifecycle events. *metrics.Metrics satisfies it.
type Recorder interface {
	JobQueued()
	JobStarted()
	JobFinished(status string, d time.Duration, objects int)
}

type nopRecorder struct{}

func (nopRecorder) JobQueued()                             {}
func (nopRecorder) JobStarted()                            {}
func (nopRecorder) JobFinished(string, time.Duration, int) {}

// Options configures a Manager. Store is required.
type Options struct {
	Workers   int
	QueueSize int

	Translator prompt.Translator
	Store      storage.Store
	Index      Index // optional
	Metrics    Recorder

	DefaultWorldSize int
	MaxObjects       int
	Noise            noise.Mode

	// Retention bounds how long finished jobs are held in memory. With an
	// index they remain readable from it afterwards.
	Retention time.Duration

	Logger *log.Logger
	Now    func() time.Time
}

type entry struct {
	job  Job
	subs map[int]chan Job
}

type task struct {
	id  string
	req Request
}

// Manager owns the job table, the work queue and the worker goroutines.
type Manager struct {
	opts Options

	mu      sync.Mutex
	jobs    map[string]*entry
	nextSub int
	closed  bool

	queue chan task

	// pending holds the latest unwritten snapshot per job. The single
	// writer drains it, so rows for one job are written in order.
	pending map[string]index.Record
	wake    chan struct{}
	stop    chan struct{}
	flushMu sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	bg      sync.WaitGroup
}

// NewManager starts opts.Workers workers.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("jobs: nil store")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Translator == nil {
		opts.Translator = prompt.Keyword{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.DefaultWorldSize < 1 {
		opts.DefaultWorldSize = world.DefaultWorldSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}

	if opts.Index != nil {
		n, err := opts.Index.FailUnfinished(context.Background(), interruptedReason, opts.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("jobs: recovering index: %w", err)
		}
		if n > 0 {
			opts.Logger.Printf("marked %d unfinished jobs from a previous run as failed", n)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:    opts,
		jobs:    make(map[string]*entry),
		queue:   make(chan task, opts.QueueSize),
		pending: make(map[string]index.Record),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	m.bg.Add(1)
	go m.housekeep()

	m.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go m.work()
	}
	return m, nil
}

// Submit queues req and returns the queued job snapshot.
func (m *Manager) Submit(req Request) (Job, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" && req.Spec == nil {
		return Job{}, ErrEmptyRequest
	}
	if req.WorldSize == 0 {
		req.WorldSize = m.opts.DefaultWorldSize
	}
	if req.Noise == "" {
		req.Noise = m.opts.Noise
	}

	j := Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Progress:  ProgressQueued,
		Prompt:    req.Prompt,
		WorldSize: req.WorldSize,
		CreatedAt: m.opts.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Job{}, ErrClosed
	}
	select {
	case m.queue <- task{id: j.ID, req: req}:
	default:
		return Job{}, ErrQueueFull
	}
	// The worker cannot observe the job until the lock is released.
	m.jobs[j.ID] = &entry{job: j, subs: make(map[int]chan Job)}
	m.record(j)
	m.opts.Metrics.JobQueued()
	return j, nil
}

// Get returns the current snapshot of a job, consulting the index for jobs
// from earlier runs.
func (m *Manager) Get(ctx context.Context, id string) (Job, error) {
	m.mu.Lock()
	e, ok := m.jobs[id]
	var j Job
	if ok {
		j = e.job
	}
	m.mu.Unlock()
	if ok {
		return j, nil
	}

	if m.opts.Index == nil {
		return Job{}, ErrNotFound
	}
	r, err := m.opts.Index.Get(ctx, id)
	if errors.Is(err, index.ErrNotFound) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	return fromRecord(r), nil
}

// List returns up to limit jobs, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]Job, error) {
	if limit < 1 {
		return []Job{}, nil
	}

	byID := make(map[string]Job)
	if m.opts.Index != nil {
		recs, err := m.opts.Index.Recent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("listing index: %w", err)
		}
		for _, r := range recs {
			byID[r.ID] = fromRecord(r)
		}
	}
	m.mu.Lock()
	for id, e := range m.jobs {
		byID[id] = e.job
	}
	m.mu.Unlock()

	out := make([]Job, 0, len(byID))
	for _, j := range byID {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Subscribe streams snapshots of job id, starting with the current one.
// The channel is closed after a terminal snapshot or when cancel is called.
// Slow readers may miss intermediate snapshots but always get the last.
func (m *Manager) Subscribe(id string) (<-chan Job, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.jobs[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	ch := make(chan Job, 8)
	ch <- e.job
	if e.job.Status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	key := m.nextSub
	m.nextSub++
	e.subs[key] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := e.subs[key]; ok {
				delete(e.subs, key)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// Document loads the saved scene document of a completed job.
func (m *Manager) Document(ctx context.Context, id string) (*scene.Document, error) {
	if err := m.completed(ctx, id); err != nil {
		return nil, err
	}
	return m.opts.Store.Load(ctx, id)
}

// Raw returns the saved scene document of a completed job as JSON.
func (m *Manager) Raw(ctx context.Context, id string) ([]byte, error) {
	if err := m.completed(ctx, id); err != nil {
		return nil, err
	}
	return m.opts.Store.Raw(ctx, id)
}

func (m *Manager) completed(ctx context.Context, id string) error {
	j, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: current status %s", ErrNotCompleted, j.Status)
	}
	return nil
}

// Close stops accepting jobs and waits for queued ones to finish. If ctx
// expires first, in-flight jobs are cancelled and fail.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		m.cancel()
		<-done
	}
	m.cancel()

	close(m.stop)
	m.bg.Wait()
	return err
}

func (m *Manager) work() {
	defer m.workers.Done()
	for t := range m.queue {
		m.process(t)
	}
}

func (m *Manager) process(t task) {
	start := m.opts.Now()
	m.opts.Metrics.JobStarted()

	objects, err := m.run(t)
	if err != nil {
		m.opts.Logger.Printf("job %s failed: %v", t.id, err)
		m.update(t.id, func(j *Job) {
			now := m.opts.Now().UTC()
			j.Status = StatusFailed
			j.Error = err.Error()
			j.FailedAt = &now
		})
		m.opts.Metrics.JobFinished(string(StatusFailed), m.opts.Now().Sub(start), 0)
		return
	}
	m.opts.Metrics.JobFinished(string(StatusCompleted), m.opts.Now().Sub(start), objects)
}

func (m *Manager) run(t task) (int, error) {
	ctx := m.ctx
	req := t.req

	m.progress(t.id, StatusProcessing, ProgressProcessing)

	s := req.Spec
	if s == nil {
		hints := prompt.Hints{Style: req.Style, Complexity: req.Complexity}
		var err error
		s, err = m.opts.Translator.Translate(ctx, req.Prompt, hints)
		if err != nil {
			return 0, fmt.Errorf("translating prompt: %w", err)
		}
	}
	m.progress(t.id, StatusProcessing, ProgressTranslated)

	m.progress(t.id, StatusProcessing, ProgressComposing)
	model, err := world.Compose(ctx, s, world.Options{
		WorldSize:         req.WorldSize,
		IncludeTerrain:    req.IncludeTerrain,
		IncludeStructures: req.IncludeStructures,
		IncludeObjects:    req.IncludeObjects,
		Seed:              req.Seed,
		Noise:             req.Noise,
		MaxObjects:        m.opts.MaxObjects,
		Observer: func(st world.Stage) {
			m.progress(t.id, StatusProcessing, stageProgress(st))
		},
	})
	if err != nil {
		return 0, fmt.Errorf("composing world: %w", err)
	}
	seed := model.Seed
	m.update(t.id, func(j *Job) {
		j.Progress = ProgressComposed
		j.Seed = &seed
		j.Objects = len(model.Objects)
		j.Warnings = warningMessages(model.Normalization)
	})

	doc := scene.Project(model)
	report := scene.Validate(doc)
	if err := report.Err(); err != nil {
		return 0, fmt.Errorf("validating document: %w", err)
	}
	m.update(t.id, func(j *Job) {
		j.Progress = ProgressProjected
		j.Warnings = append(j.Warnings, warningMessages(report)...)
	})

	path, err := m.opts.Store.Save(ctx, t.id, doc)
	if err != nil {
		return 0, fmt.Errorf("saving world: %w", err)
	}
	m.progress(t.id, StatusProcessing, ProgressSaved)

	m.update(t.id, func(j *Job) {
		now := m.opts.Now().UTC()
		j.Status = StatusCompleted
		j.Progress = ProgressDone
		j.FilePath = path
		j.CompletedAt = &now
	})
	return len(model.Objects), nil
}

// stageProgress maps a compose stage into [ProgressComposing, ProgressComposed):
// terrain at 40, structures across 40-50, objects across 50-60.
func stageProgress(st world.Stage) int {
	frac := func(lo, hi int) int {
		if st.Total < 1 {
			return lo
		}
		return lo + (hi-lo)*st.Index/st.Total
	}
	switch st.Kind {
	case world.StageStructures:
		return frac(40, 50)
	case world.StageObjects:
		return frac(50, 60)
	default:
		return ProgressComposing
	}
}

func (m *Manager) progress(id string, s Status, p int) {
	m.update(id, func(j *Job) {
		j.Status = s
		j.Progress = p
	})
}

// update applies fn to the job, keeping progress monotonic, then persists
// and publishes the new snapshot.
func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.jobs[id]
	if !ok || e.job.Status.Terminal() {
		return
	}
	prev := e.job.Progress
	fn(&e.job)
	if e.job.Progress < prev {
		e.job.Progress = prev
	}
	j := e.job

	m.record(j)
	for key, ch := range e.subs {
		publish(ch, j)
		if j.Status.Terminal() {
			delete(e.subs, key)
			close(ch)
		}
	}
}

// publish delivers j without blocking, displacing the oldest pending
// snapshot when the subscriber is behind.
func publish(ch chan Job, j Job) {
	select {
	case ch <- j:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- j:
	default:
	}
}

func warningMessages(r *validation.Report) []string {
	if r == nil || len(r.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		if w.SpecPath != "" {
			out = append(out, w.SpecPath+": "+w.Message)
			continue
		}
		out = append(out, w.Message)
	}
	return out
}

// record stages a snapshot for the index writer. Callers hold m.mu; it
// never blocks.
func (m *Manager) record(j Job) {
	if m.opts.Index == nil {
		return
	}
	m.pending[j.ID] = j.record()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// housekeep writes staged snapshots to the index and evicts expired jobs
// until Close.
func (m *Manager) housekeep() {
	defer m.bg.Done()
	sweep := time.NewTicker(min(m.opts.Retention, time.Minute))
	defer sweep.Stop()
	for {
		select {
		case <-m.wake:
			m.flush()
		case <-sweep.C:
			m.flush()
			m.evict(m.opts.Now())
		case <-m.stop:
			m.flush()
			return
		}
	}
}

// flush writes every staged snapshot. When it returns, snapshots staged
// before the call are in the index.
func (m *Manager) flush() {
	if m.opts.Index == nil {
		return
	}
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	m.mu.Lock()
	batch := m.pending
	if len(batch) > 0 {
		m.pending = make(map[string]index.Record)
	}
	m.mu.Unlock()

	for _, r := range batch {
		if err := m.opts.Index.Upsert(context.Background(), r); err != nil {
			m.opts.Logger.Printf("index job %s: %v", r.ID, err)
		}
	}
}

// evict drops finished jobs older than the retention window. Their last
// snapshot must already be in the index, so callers flush first.
func (m *Manager) evict(now time.Time) int {
	cutoff := now.Add(-m.opts.Retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.jobs {
		at := e.job.finishedAt()
		if at == nil || !at.Before(cutoff) {
			continue
		}
		if _, staged := m.pending[id]; staged {
			continue
		}
		delete(m.jobs, id)
		n++
	}
	return n
}
