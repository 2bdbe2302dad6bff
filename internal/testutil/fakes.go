// Package testutil provides in-memory test doubles for the broker collaborators.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
)

// FakeSession is a domain.Session driven by the test. Records passed to Emit are handed to
// the onRecord callback from the goroutine running Run, like a real poll loop does.
type FakeSession struct {
	Cfg      domain.StartConfig
	CloseErr error

	// stuck makes Run ignore cancellation and Close block until it is closed, like a client
	// talking to a broker that stopped answering.
	stuck   chan struct{}
	records chan domain.RawRecord
	fail    chan error
	closed  chan struct{}
	started chan struct{}
	exited  chan struct{}

	mu         sync.Mutex
	onRecord   func(domain.RawRecord)
	closeCount int
	startOnce  sync.Once
	closeOnce  sync.Once
}

// NewFakeSession returns a session whose poll loop waits for Emit, Fail or Close.
func NewFakeSession(cfg domain.StartConfig) *FakeSession {
	return &FakeSession{
		Cfg:     cfg,
		records: make(chan domain.RawRecord),
		fail:    make(chan error, 1),
		closed:  make(chan struct{}),
		started: make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

func (s *FakeSession) Run(ctx context.Context, onRecord func(domain.RawRecord)) error {
	s.mu.Lock()
	s.onRecord = onRecord
	s.mu.Unlock()
	s.startOnce.Do(func() { close(s.started) })
	defer close(s.exited)

	done, closed := ctx.Done(), (<-chan struct{})(s.closed)
	if s.stuck != nil {
		done, closed = nil, s.stuck
	}
	for {
		select {
		case <-done:
			return nil
		case <-closed:
			return nil
		case err := <-s.fail:
			return err
		case r := <-s.records:
			onRecord(r)
		}
	}
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	s.closeCount++
	s.mu.Unlock()
	if s.stuck != nil {
		<-s.stuck
	}
	s.closeOnce.Do(func() { close(s.closed) })
	return s.CloseErr
}

// Emit hands r to the running poll loop. It reports false once the loop has exited.
func (s *FakeSession) Emit(r domain.RawRecord) bool {
	select {
	case s.records <- r:
		return true
	case <-s.exited:
		return false
	}
}

// Deliver invokes the captured callback directly, as a callback still in flight after the
// loop was told to stop would.
func (s *FakeSession) Deliver(r domain.RawRecord) {
	s.mu.Lock()
	fn := s.onRecord
	s.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

// Fail makes Run return err, as a broker that keeps failing would.
func (s *FakeSession) Fail(err error) {
	s.fail <- err
}

// WaitRunning waits until Run was called.
func (s *FakeSession) WaitRunning(timeout time.Duration) bool {
	select {
	case <-s.started:
		return true
	case <-time.After(timeout):
		return false
	}
}

// WaitExited waits until Run returned.
func (s *FakeSession) WaitExited(timeout time.Duration) bool {
	select {
	case <-s.exited:
		return true
	case <-time.After(timeout):
		return false
	}
}

// CloseCount reports how many times Close was called, including calls still blocked.
func (s *FakeSession) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

// FakeConnector hands out FakeSessions. Errs fails Connect per topic; Gates blocks Connect
// for a topic until the channel is closed. Sessions for a topic in Stuck hang in Run and
// Close until that channel is closed.
type FakeConnector struct {
	Errs    map[string]error
	Gates   map[string]chan struct{}
	Stuck   map[string]chan struct{}
	Entered chan string

	mu       sync.Mutex
	sessions []*FakeSession
}

func NewFakeConnector() *FakeConnector {
	return &FakeConnector{
		Errs:    map[string]error{},
		Gates:   map[string]chan struct{}{},
		Stuck:   map[string]chan struct{}{},
		Entered: make(chan string, 16),
	}
}

func (c *FakeConnector) Connect(ctx context.Context, cfg domain.StartConfig) (domain.Session, error) {
	select {
	case c.Entered <- cfg.Topic:
	default:
	}

	c.mu.Lock()
	gate := c.Gates[cfg.Topic]
	err := c.Errs[cfg.Topic]
	stuck := c.Stuck[cfg.Topic]
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	s := NewFakeSession(cfg)
	s.stuck = stuck
	c.mu.Lock()
	c.sessions = append(c.sessions, s)
	c.mu.Unlock()
	return s, nil
}

// Sessions returns every session created so far, oldest first.
func (c *FakeConnector) Sessions() []*FakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeSession(nil), c.sessions...)
}

// Last returns the most recent session or nil.
func (c *FakeConnector) Last() *FakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		return nil
	}
	return c.sessions[len(c.sessions)-1]
}

// FakeTopicLister is a domain.TopicLister with canned answers.
type FakeTopicLister struct {
	Topics []string
	Err    error

	mu      sync.Mutex
	brokers []string
}

func (f *FakeTopicLister) ListTopics(_ context.Context, brokers []string) ([]string, error) {
	f.mu.Lock()
	f.brokers = brokers
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.Topics...), nil
}

// Brokers returns the broker list of the last call.
func (f *FakeTopicLister) Brokers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.brokers
}
