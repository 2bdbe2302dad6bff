package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/metrics"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/google/uuid"
)

const defaultStopTimeout = 10 * time.Second

// RecordSink receives normalized records and is cleared when a new session starts.
type RecordSink interface {
	Push(r domain.Record)
	Reset()
}

// ConsumerOption configures a ConsumerService.
type ConsumerOption func(*ConsumerService)

// WithConsumerObserver reports deliveries, drops and the running state to o.
func WithConsumerObserver(o metrics.ConsumerObserver) ConsumerOption {
	return func(s *ConsumerService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the poll loop to exit and the connection
// to be released.
func WithStopTimeout(d time.Duration) ConsumerOption {
	return func(s *ConsumerService) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// WithStatusListener registers fn to be called after every state change. fn runs while the
// service lock is held: it must not block and must not call back into the service.
func WithStatusListener(fn func(domain.ConsumerStatus)) ConsumerOption {
	return func(s *ConsumerService) {
		s.onStatus = fn
	}
}

// ConsumerService owns the single broker subscription.
type ConsumerService struct {
	connector   domain.Connector
	sink        RecordSink
	observer    metrics.ConsumerObserver
	stopTimeout time.Duration
	onStatus    func(domain.ConsumerStatus)

	// lifecycleMu makes Start and Stop one critical section, so two subscriptions never overlap.
	lifecycleMu sync.Mutex

	mu      sync.RWMutex
	current *subscription
	status  domain.ConsumerStatus
}

type subscription struct {
	id      string
	cfg     domain.StartConfig
	session domain.Session
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
}

// delivery is everything the broker goroutine is allowed to touch.
type delivery struct {
	running  *atomic.Bool
	sink     RecordSink
	mask     bool
	observer metrics.ConsumerObserver
}

// onRecord drops the record unless the subscription is still running. A late drop is
// harmless; a record delivered after stop was requested is not.
func (d delivery) onRecord(raw domain.RawRecord) {
	if !d.running.Load() || d.sink == nil {
		d.observer.RecordDropped()
		return
	}
	d.sink.Push(Normalize(raw, d.mask))
	d.observer.RecordDelivered()
}

// NewConsumerService creates a stopped consumer feeding sink.
func NewConsumerService(connector domain.Connector, sink RecordSink, opts ...ConsumerOption) *ConsumerService {
	s := &ConsumerService{
		connector:   connector,
		sink:        sink,
		observer:    metrics.NoopObserver{},
		stopTimeout: defaultStopTimeout,
		status:      domain.ConsumerStatus{State: domain.StateStopped},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current consumer status.
func (s *ConsumerService) Status() domain.ConsumerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Start stops any active subscription, then connects with cfg. The retained records are
// cleared only once the new subscription is established. Connection failures leave the
// consumer in the failed state and are returned wrapped in ErrConnection.
func (s *ConsumerService) Start(ctx context.Context, cfg domain.StartConfig) (domain.ConsumerStatus, error) {
	if err := cfg.Validate(); err != nil {
		return s.Status(), fmt.Errorf("%w: %w", ErrInvalidStartConfig, err)
	}

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.stopLocked(ctx)

	s.setStatus(domain.ConsumerStatus{
		State:       domain.StateStarting,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: cfg.StartOffset,
		Mask:        cfg.Mask,
	})
	utils.Logger.Info("consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID, "offset", cfg.StartOffset)

	session, err := s.connector.Connect(ctx, cfg)
	if err != nil {
		utils.Logger.Error("consumer start failed", "topic", cfg.Topic, "err", err)
		st := s.setStatus(domain.ConsumerStatus{
			State:       domain.StateFailed,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			StartOffset: cfg.StartOffset,
			Mask:        cfg.Mask,
			Error:       err.Error(),
		})
		return st, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if s.sink != nil {
		s.sink.Reset()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		id:      uuid.NewString(),
		cfg:     cfg,
		session: session,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	sub.running.Store(true)

	s.mu.Lock()
	s.current = sub
	s.mu.Unlock()
	s.observer.SetRunning(true)

	st := s.setStatus(domain.ConsumerStatus{
		State:       domain.StateRunning,
		SessionID:   sub.id,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: cfg.StartOffset,
		Mask:        cfg.Mask,
		StartedAt:   sub.started.UnixMilli(),
	})

	go s.run(runCtx, sub)

	utils.Logger.Info("consumer started", "session", sub.id, "topic", cfg.Topic, "group", cfg.GroupID)
	return st, nil
}

// Stop ends the active subscription. Calling it when nothing runs is a no-op. Failures
// releasing the connection are logged and never fail the stop. Waiting for the poll loop
// and the release is bounded by the stop timeout and ctx, so an unreachable broker cannot
// hold Stop or a following Start.
func (s *ConsumerService) Stop(ctx context.Context) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	s.stopLocked(ctx)
}

func (s *ConsumerService) stopLocked(ctx context.Context) {
	s.mu.Lock()
	sub := s.current
	s.current = nil
	s.mu.Unlock()
	if sub == nil {
		return
	}

	// the flag flips before anything is released so in-flight records are dropped
	owner := sub.running.Swap(false)
	sub.cancel()
	released := make(chan struct{})
	if owner {
		go func() {
			defer close(released)
			s.closeSession(sub)
		}()
	} else {
		close(released)
	}

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
wait:
	for done, rel := sub.done, released; done != nil || rel != nil; {
		select {
		case <-done:
			done = nil
		case <-rel:
			rel = nil
		case <-timer.C:
			utils.Logger.Warn("consumer did not shut down in time", "session", sub.id, "timeout", s.stopTimeout, "loop_exited", done == nil, "released", rel == nil)
			break wait
		case <-ctx.Done():
			utils.Logger.Warn("consumer stop wait aborted", "session", sub.id, "err", ctx.Err(), "loop_exited", done == nil, "released", rel == nil)
			break wait
		}
	}

	s.observer.SetRunning(false)
	s.setStatus(domain.ConsumerStatus{State: domain.StateStopped})
	utils.Logger.Info("consumer stopped", "session", sub.id, "topic", sub.cfg.Topic)
}

// run owns the poll loop of one subscription. When the loop ends without a stop request
// the subscription tears itself down and the failure becomes visible through Status.
func (s *ConsumerService) run(ctx context.Context, sub *subscription) {
	defer close(sub.done)

	d := delivery{running: &sub.running, sink: s.sink, mask: sub.cfg.Mask, observer: s.observer}
	err := sub.session.Run(ctx, d.onRecord)

	if !sub.running.Swap(false) {
		return
	}

	if err != nil {
		utils.Logger.Error("consumer poll loop failed", "session", sub.id, "topic", sub.cfg.Topic, "err", err)
	} else {
		utils.Logger.Warn("consumer poll loop ended", "session", sub.id, "topic", sub.cfg.Topic)
	}
	s.closeSession(sub)

	st := domain.ConsumerStatus{State: domain.StateStopped, Topic: sub.cfg.Topic, GroupID: sub.cfg.GroupID}
	if err != nil {
		st.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a concurrent Stop already took the subscription and reports its own status
	if s.current != sub {
		return
	}
	s.current = nil
	s.observer.SetRunning(false)
	s.setStatusLocked(st)
}

func (s *ConsumerService) closeSession(sub *subscription) {
	if err := sub.session.Close(); err != nil {
		utils.Logger.Warn("release broker connection failed", "session", sub.id, "err", err)
	}
}

func (s *ConsumerService) setStatus(st domain.ConsumerStatus) domain.ConsumerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusLocked(st)
	return st
}

// setStatusLocked notifies under the lock so listeners observe transitions in order.
func (s *ConsumerService) setStatusLocked(st domain.ConsumerStatus) {
	s.status = st
	if s.onStatus != nil {
		s.onStatus(st)
	}
}
