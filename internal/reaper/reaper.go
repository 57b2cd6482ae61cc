package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/semaphore"
)

// Event types published to the Notifier.
const (
	EventScheduled    = "artifact.scheduled"
	EventDeferred     = "artifact.deferred"
	EventDeleted      = "artifact.deleted"
	EventDeleteFailed = "artifact.delete_failed"
	EventCancelled    = "artifact.cancelled"
)

const defaultMaxConcurrentDeletes = 4

var (
	// ErrInvalidID is returned by Schedule for empty or non-canonical resource IDs.
	ErrInvalidID = errors.New("invalid resource id")
	// ErrNegativeDelay is returned by Schedule for delays below zero.
	ErrNegativeDelay = errors.New("negative delay")
	// ErrClosed is returned by Schedule after Close.
	ErrClosed = errors.New("reaper closed")
)

// Deleter removes the artifact behind a resource ID. It must tolerate being
// called for an artifact that is already gone.
type Deleter interface {
	DeleteArtifact(ctx context.Context, id string) error
}

// DeleterFunc adapts a function to Deleter.
type DeleterFunc func(ctx context.Context, id string) error

func (f DeleterFunc) DeleteArtifact(ctx context.Context, id string) error {
	return f(ctx, id)
}

// Notifier receives lifecycle events. events.Hub satisfies it.
type Notifier interface {
	Publish(eventType string, data any)
}

// PendingDeletion is a snapshot of one scheduled deletion.
type PendingDeletion struct {
	ResourceID string        `json:"resource_id"`
	Deadline   time.Time     `json:"deadline"`
	Delay      time.Duration `json:"delay"`
}

type entryState int

const (
	statePending entryState = iota
	stateFiring
)

// entry owns the timer for one resource. It is only read or written with
// Reaper.mu held.
type entry struct {
	id       string
	delay    time.Duration
	deadline time.Time
	timer    clockwork.Timer
	state    entryState
}

// Reaper tracks one pending deletion timer per resource.
type Reaper struct {
	deleter  Deleter
	notifier Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	sem      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
	retired map[string]time.Time // id -> when its deletion ran
	closed  bool
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithClock sets the clock used to arm timers.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reaper) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reaper) { r.logger = l }
}

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n Notifier) Option {
	return func(r *Reaper) { r.notifier = n }
}

// WithMaxConcurrentDeletes bounds how many deletions run at once.
func WithMaxConcurrentDeletes(n int) Option {
	return func(r *Reaper) {
		if n > 0 {
			r.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates a Reaper that calls deleter when a timer fires.
func New(deleter Deleter, opts ...Option) *Reaper {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reaper{
		deleter: deleter,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		sem:     semaphore.NewWeighted(defaultMaxConcurrentDeletes),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		retired: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reaper")
	return r
}

// Schedule arms a deletion of id after delay, replacing any pending deletion
// for the same id. Artifacts that are being deleted or already were are left
// alone.
func (r *Reaper) Schedule(id string, delay time.Duration) error {
	if err := validateID(id); err != nil {
		return err
	}
	if delay < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeDelay, delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, gone := r.retired[id]; gone {
		r.logger.Debug("ignoring schedule for deleted artifact", "artifact", id)
		return nil
	}

	replaced := false
	if cur, ok := r.entries[id]; ok {
		if cur.state == stateFiring {
			r.logger.Debug("ignoring schedule for artifact being deleted", "artifact", id)
			return nil
		}
		// A false Stop means the old callback is already queued behind this
		// lock; it will find itself superseded and exit.
		cur.timer.Stop()
		replaced = true
	}

	e := r.armLocked(id, delay)
	r.publish(EventScheduled, map[string]any{
		"artifact": id,
		"deadline": e.deadline,
		"replaced": replaced,
	})
	r.logger.Info("artifact deletion scheduled", "artifact", id, "delay", delay, "deadline", e.deadline, "replaced", replaced)
	return nil
}

// Touch defers the pending deletion of id by a full delay window. It returns
// true if the deletion was deferred and false if there was nothing to defer or
// the timer had already fired.
func (r *Reaper) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[id]
	if !ok || r.closed || cur.state != statePending {
		return false
	}
	if !cur.timer.Stop() {
		// Lost the race against the timer; the deletion proceeds.
		return false
	}

	e := r.armLocked(id, cur.delay)
	r.publish(EventDeferred, map[string]any{
		"artifact":          id,
		"previous_deadline": cur.deadline,
		"deadline":          e.deadline,
	})
	r.logger.Debug("artifact deletion deferred", "artifact", id, "deadline", e.deadline)
	return true
}

// Cancel drops the pending deletion of id without deleting the artifact.
func (r *Reaper) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[id]
	if !ok || cur.state != statePending {
		return false
	}
	if !cur.timer.Stop() {
		return false
	}
	delete(r.entries, id)
	r.publish(EventCancelled, map[string]any{"artifact": id})
	r.logger.Info("artifact deletion cancelled", "artifact", id)
	return true
}

// Deadline reports when id is due for deletion.
func (r *Reaper) Deadline(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[id]
	if !ok || cur.state != statePending {
		return time.Time{}, false
	}
	return cur.deadline, true
}

// Tracked reports whether id has a pending or in-flight deletion.
func (r *Reaper) Tracked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of pending deletions.
func (r *Reaper) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.state == statePending {
			n++
		}
	}
	return n
}

// Pending returns the pending deletions ordered by deadline.
func (r *Reaper) Pending() []PendingDeletion {
	r.mu.Lock()
	out := make([]PendingDeletion, 0, len(r.entries))
	for _, e := range r.entries {
		if e.state != statePending {
			continue
		}
		out = append(out, PendingDeletion{ResourceID: e.id, Deadline: e.deadline, Delay: e.delay})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].ResourceID < out[j].ResourceID
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

// Close stops every pending timer without deleting its artifact and waits for
// deletions already in progress.
func (r *Reaper) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.wg.Wait()
		return
	}
	r.closed = true
	stopped := 0
	for id, e := range r.entries {
		if e.state != statePending {
			continue
		}
		e.timer.Stop()
		delete(r.entries, id)
		stopped++
	}
	r.mu.Unlock()

	r.logger.Info("reaper closing", "stopped_timers", stopped)
	r.wg.Wait()
	r.cancel()
}

// armLocked registers a fresh pending entry for id. r.mu must be held.
func (r *Reaper) armLocked(id string, delay time.Duration) *entry {
	e := &entry{
		id:       id,
		delay:    delay,
		deadline: r.clock.Now().Add(delay),
		state:    statePending,
	}
	r.entries[id] = e
	e.timer = r.clock.AfterFunc(delay, func() { r.fire(e) })
	return e
}

// fire runs on the timer goroutine.
func (r *Reaper) fire(e *entry) {
	r.mu.Lock()
	if r.closed || r.entries[e.id] != e || e.state != statePending {
		r.mu.Unlock()
		return
	}
	e.state = stateFiring
	r.wg.Add(1)
	r.mu.Unlock()

	defer r.wg.Done()
	defer r.retire(e)

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.logger.Warn("artifact deletion abandoned", "artifact", e.id, "error", err)
		return
	}
	defer r.sem.Release(1)

	if err := r.deleter.DeleteArtifact(r.ctx, e.id); err != nil {
		r.publish(EventDeleteFailed, map[string]any{"artifact": e.id, "error": err.Error()})
		r.logger.Warn("artifact deletion failed", "artifact", e.id, "error", err)
		return
	}
	r.publish(EventDeleted, map[string]any{"artifact": e.id})
	r.logger.Info("artifact deleted", "artifact", e.id)
}

func (r *Reaper) retire(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[e.id] == e {
		delete(r.entries, e.id)
	}
	r.retired[e.id] = r.clock.Now()
}

// ForgetRetired drops the tombstones of artifacts deleted at least olderThan
// ago and returns how many were dropped. Until then Schedule refuses to
// resurrect those IDs; afterwards they are unknown again.
func (r *Reaper) ForgetRetired(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-olderThan)
	n := 0
	for id, at := range r.retired {
		if !at.After(cutoff) {
			delete(r.retired, id)
			n++
		}
	}
	return n
}

func (r *Reaper) publish(eventType string, data map[string]any) {
	if r.notifier == nil {
		return
	}
	r.notifier.Publish(eventType, data)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidID, id)
	}
	if filepath.Clean(id) != id {
		return fmt.Errorf("%w: %q is not a clean path", ErrInvalidID, id)
	}
	return nil
}
