// Package buffer decouples bursty record delivery from the fixed-rate update of the
// retained record view.
//
// Records are pushed into a pending queue from the broker goroutine. A ticker drains the
// queue at a fixed cadence into a capacity-limited retained sequence that evicts its oldest
// records first. Readers get immutable snapshots, so the retained view changes at most once
// per flush interval no matter how fast records arrive.
package buffer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/metrics"
)

// Defaults used when no option overrides them.
const (
	DefaultCapacity      = 500
	DefaultFlushInterval = 120 * time.Millisecond
)

// Listener is notified from the drain goroutine. Implementations must not block.
type Listener interface {
	// OnRecords receives the records appended by one drain, oldest first.
	OnRecords(batch []domain.Record)
	// OnReset is called after the buffer was cleared.
	OnReset()
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithCapacity sets how many records are retained. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithFlushInterval sets the drain cadence. Non-positive values are ignored.
func WithFlushInterval(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithMaxPending caps the pending queue; when full the oldest pending record is dropped.
// Zero keeps the queue unbounded.
func WithMaxPending(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.maxPending = n
		}
	}
}

// WithObserver reports evictions, drains and resets to o.
func WithObserver(o metrics.BufferObserver) Option {
	return func(b *Buffer) {
		if o != nil {
			b.observer = o
		}
	}
}

// Buffer is the only writer of the retained sequence.
type Buffer struct {
	capacity   int
	interval   time.Duration
	maxPending int
	observer   metrics.BufferObserver

	// drainMu serializes Drain and Reset so a reset never races a half-applied drain.
	drainMu sync.Mutex

	pendingMu sync.Mutex
	pending   []domain.Record

	retained atomic.Pointer[[]domain.Record]

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		capacity:  DefaultCapacity,
		interval:  DefaultFlushInterval,
		observer:  metrics.NoopObserver{},
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(b)
	}
	empty := make([]domain.Record, 0)
	b.retained.Store(&empty)
	return b
}

// Capacity returns the maximum number of retained records.
func (b *Buffer) Capacity() int { return b.capacity }

// FlushInterval returns the drain cadence used by Run.
func (b *Buffer) FlushInterval() time.Duration { return b.interval }

// Push queues a record for the next drain. Safe to call from any goroutine; never blocks on readers.
func (b *Buffer) Push(r domain.Record) {
	dropped := 0
	b.pendingMu.Lock()
	if b.maxPending > 0 && len(b.pending) >= b.maxPending {
		dropped = len(b.pending) - b.maxPending + 1
		b.pending = b.pending[dropped:]
	}
	b.pending = append(b.pending, r)
	b.pendingMu.Unlock()
	if dropped > 0 {
		b.observer.RecordPendingDropped(dropped)
	}
}

// Drain moves every pending record into the retained sequence, evicting the oldest
// retained records beyond capacity. It returns the number of records drained.
func (b *Buffer) Drain() int {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	b.pendingMu.Lock()
	batch := b.pending
	b.pending = nil
	b.pendingMu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	old := *b.retained.Load()
	total := len(old) + len(batch)
	evict := total - b.capacity
	if evict < 0 {
		evict = 0
	}

	next := make([]domain.Record, 0, total-evict)
	if evict < len(old) {
		next = append(next, old[evict:]...)
		next = append(next, batch...)
	} else {
		next = append(next, batch[evict-len(old):]...)
	}
	b.retained.Store(&next)

	if evict > 0 {
		b.observer.RecordEvicted(evict)
	}
	b.observer.RecordDrain(len(batch), len(next))

	// only the part of the batch that survived eviction is announced
	appended := batch
	if len(appended) > len(next) {
		appended = appended[len(appended)-len(next):]
	}
	b.notify(func(l Listener) { l.OnRecords(appended) })
	return len(batch)
}

// Reset clears both the pending queue and the retained sequence.
func (b *Buffer) Reset() {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	b.pendingMu.Lock()
	b.pending = nil
	b.pendingMu.Unlock()

	empty := make([]domain.Record, 0)
	b.retained.Store(&empty)
	b.observer.RecordReset()
	b.notify(func(l Listener) { l.OnReset() })
}

// Snapshot returns the retained records, oldest first. The slice is shared and must not be modified.
func (b *Buffer) Snapshot() []domain.Record {
	s := *b.retained.Load()
	return s[:len(s):len(s)]
}

// Sync calls fn with the retained records while no drain or reset can run. A listener uses it
// to seed a new reader so the next notification continues exactly where the snapshot ends.
func (b *Buffer) Sync(fn func(snapshot []domain.Record)) {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()
	fn(b.Snapshot())
}

// Len returns the number of retained records.
func (b *Buffer) Len() int {
	return len(*b.retained.Load())
}

// Pending returns the number of records waiting for the next drain.
func (b *Buffer) Pending() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return len(b.pending)
}

// Find looks up a retained record by partition and offset.
func (b *Buffer) Find(partition int32, offset string) (domain.Record, bool) {
	s := *b.retained.Load()
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Partition == partition && s[i].Offset == offset {
			return s[i], true
		}
	}
	return domain.Record{}, false
}

// Subscribe registers l and returns a function that removes it.
func (b *Buffer) Subscribe(l Listener) func() {
	b.listenersMu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.listenersMu.Unlock()

	return func() {
		b.listenersMu.Lock()
		delete(b.listeners, id)
		b.listenersMu.Unlock()
	}
}

func (b *Buffer) notify(fn func(Listener)) {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	for _, l := range b.listeners {
		fn(l)
	}
}

// Run drains the buffer every flush interval until ctx is done.
func (b *Buffer) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Drain()
		}
	}
}
