package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/buffer"
	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/masking"
	"github.com/OliveiraNt/kafka-lens/internal/testutil"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func startCfg(topic string) domain.StartConfig {
	return domain.StartConfig{
		Brokers:     []string{"localhost:9092"},
		Topic:       topic,
		GroupID:     "lens",
		StartOffset: domain.OffsetEarliest,
	}
}

type stateRecorder struct {
	mu     sync.Mutex
	states []domain.ConsumerState
}

func (r *stateRecorder) record(st domain.ConsumerStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st.State)
}

func (r *stateRecorder) all() []domain.ConsumerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ConsumerState(nil), r.states...)
}

func TestConsumerService_StartDeliversRecords(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	buf := buffer.New()
	svc := NewConsumerService(conn, buf)

	cfg := startCfg("orders")
	cfg.Mask = true
	st, err := svc.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, domain.StateRunning, st.State)
	require.NotEmpty(t, st.SessionID)
	require.True(t, st.Mask)
	require.Equal(t, st, svc.Status())

	sess := conn.Last()
	require.NotNil(t, sess)
	require.True(t, sess.WaitRunning(waitFor))
	require.True(t, sess.Emit(domain.RawRecord{Topic: "orders", Offset: 7, Value: []byte("mail a@b.io")}))

	require.Eventually(t, func() bool { return buf.Pending() == 1 }, waitFor, 5*time.Millisecond)
	buf.Drain()
	got := buf.Snapshot()
	require.Len(t, got, 1)
	require.Equal(t, "7", got[0].Offset)
	require.Equal(t, "mail "+masking.EmailToken, got[0].Value)

	svc.Stop(context.Background())
}

func TestConsumerService_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	svc := NewConsumerService(conn, buffer.New())

	// nothing running
	svc.Stop(context.Background())
	require.Equal(t, domain.StateStopped, svc.Status().State)

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	sess := conn.Last()

	svc.Stop(context.Background())
	svc.Stop(context.Background())
	require.Equal(t, domain.StateStopped, svc.Status().State)
	require.Equal(t, 1, sess.CloseCount())
	require.True(t, sess.WaitExited(waitFor))
}

func TestConsumerService_StopIgnoresCloseError(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	svc := NewConsumerService(conn, buffer.New())

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	conn.Last().CloseErr = errors.New("broker gone")

	svc.Stop(context.Background())
	require.Equal(t, domain.StateStopped, svc.Status().State)
}

func TestConsumerService_RecordsAfterStopAreDropped(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	buf := buffer.New()
	svc := NewConsumerService(conn, buf)

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	sess := conn.Last()
	require.True(t, sess.WaitRunning(waitFor))

	svc.Stop(context.Background())

	// a callback still in flight when stop was requested
	sess.Deliver(domain.RawRecord{Offset: 1, Value: []byte("late")})
	require.False(t, sess.Emit(domain.RawRecord{Offset: 2}))
	require.Equal(t, 0, buf.Pending())
	require.Equal(t, 0, buf.Drain())
}

func TestConsumerService_StartReplacesPreviousSubscription(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	gate := make(chan struct{})
	conn.Gates["a"] = gate
	buf := buffer.New()
	svc := NewConsumerService(conn, buf)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Start(context.Background(), startCfg("a"))
		errs <- err
	}()
	require.Equal(t, "a", <-conn.Entered)

	// B is issued while A is still connecting
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Start(context.Background(), startCfg("b"))
		errs <- err
	}()
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sessions := conn.Sessions()
	require.Len(t, sessions, 2)
	a, b := sessions[0], sessions[1]
	require.Equal(t, "a", a.Cfg.Topic)
	require.Equal(t, "b", b.Cfg.Topic)

	st := svc.Status()
	require.Equal(t, domain.StateRunning, st.State)
	require.Equal(t, "b", st.Topic)

	require.Equal(t, 1, a.CloseCount())
	require.True(t, a.WaitExited(waitFor))
	require.Equal(t, 0, b.CloseCount())

	// only B may deliver
	a.Deliver(domain.RawRecord{Topic: "a", Offset: 1})
	require.True(t, b.WaitRunning(waitFor))
	require.True(t, b.Emit(domain.RawRecord{Topic: "b", Offset: 1}))
	require.Eventually(t, func() bool { return buf.Pending() == 1 }, waitFor, 5*time.Millisecond)
	buf.Drain()
	require.Equal(t, "b", buf.Snapshot()[0].Topic)

	svc.Stop(context.Background())
}

func TestConsumerService_StartResetsRetainedRecords(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	buf := buffer.New()
	svc := NewConsumerService(conn, buf)

	buf.Push(domain.Record{Offset: "1"})
	buf.Drain()
	buf.Push(domain.Record{Offset: "2"})
	require.Equal(t, 1, buf.Len())

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Pending())
	svc.Stop(context.Background())
}

func TestConsumerService_StartFailure(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	conn.Errs["missing"] = errors.New("unknown topic")
	buf := buffer.New()
	buf.Push(domain.Record{Offset: "1"})
	buf.Drain()
	svc := NewConsumerService(conn, buf)

	st, err := svc.Start(context.Background(), startCfg("missing"))
	require.ErrorIs(t, err, ErrConnection)
	require.Contains(t, err.Error(), "unknown topic")
	require.Equal(t, domain.StateFailed, st.State)
	require.Equal(t, "unknown topic", svc.Status().Error)
	require.Empty(t, conn.Sessions())
	// a failed start keeps what was on screen
	require.Equal(t, 1, buf.Len())

	// stop after a failed start leaves the failure visible
	svc.Stop(context.Background())
	require.Equal(t, domain.StateFailed, svc.Status().State)

	// and a later start recovers
	_, err = svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	require.Equal(t, domain.StateRunning, svc.Status().State)
	svc.Stop(context.Background())
}

func TestConsumerService_StartFailureStopsPreviousSubscription(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	conn.Errs["missing"] = errors.New("unknown topic")
	svc := NewConsumerService(conn, buffer.New())

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	first := conn.Last()

	_, err = svc.Start(context.Background(), startCfg("missing"))
	require.ErrorIs(t, err, ErrConnection)
	require.Equal(t, 1, first.CloseCount())
	require.True(t, first.WaitExited(waitFor))
}

func TestConsumerService_InvalidConfig(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	svc := NewConsumerService(conn, buffer.New())

	tests := []struct {
		name string
		cfg  domain.StartConfig
	}{
		{"no brokers", domain.StartConfig{Topic: "t", GroupID: "g", StartOffset: domain.OffsetLatest}},
		{"no topic", domain.StartConfig{Brokers: []string{"b"}, GroupID: "g", StartOffset: domain.OffsetLatest}},
		{"bad offset", domain.StartConfig{Brokers: []string{"b"}, Topic: "t", GroupID: "g", StartOffset: "middle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), tt.cfg)
			require.ErrorIs(t, err, ErrInvalidStartConfig)
		})
	}
	require.Empty(t, conn.Sessions())
	require.Equal(t, domain.StateStopped, svc.Status().State)
}

func TestConsumerService_PollLoopFailureStopsConsumer(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	svc := NewConsumerService(conn, buffer.New())

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	sess := conn.Last()
	require.True(t, sess.WaitRunning(waitFor))

	sess.Fail(errors.New("too many consecutive fetch errors"))
	require.Eventually(t, func() bool {
		return svc.Status().State == domain.StateStopped
	}, waitFor, 5*time.Millisecond)
	require.Equal(t, "too many consecutive fetch errors", svc.Status().Error)
	require.Equal(t, "orders", svc.Status().Topic)
	require.Equal(t, 1, sess.CloseCount())

	svc.Stop(context.Background())
	require.Equal(t, 1, sess.CloseCount())
}

func TestConsumerService_StatusListenerSeesTransitionsInOrder(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	conn := testutil.NewFakeConnector()
	rec := &stateRecorder{}
	svc := NewConsumerService(conn, buffer.New(), WithStatusListener(rec.record), WithStopTimeout(time.Second))

	_, err := svc.Start(context.Background(), startCfg("orders"))
	require.NoError(t, err)
	svc.Stop(context.Background())

	require.Equal(t, []domain.ConsumerState{
		domain.StateStarting,
		domain.StateRunning,
		domain.StateStopped,
	}, rec.all())
}

func TestConsumerService_StopIsBoundedWhenBrokerHangs(t *testing.T) {
	t.Parallel()
	utils.InitLogger()

	tests := []struct {
		name        string
		stopTimeout time.Duration
		ctxTimeout  time.Duration
	}{
		{name: "stop timeout", stopTimeout: 100 * time.Millisecond, ctxTimeout: time.Minute},
		{name: "caller context", stopTimeout: time.Minute, ctxTimeout: 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			release := make(chan struct{})
			t.Cleanup(func() { close(release) })

			conn := testutil.NewFakeConnector()
			conn.Stuck["orders"] = release
			buf := buffer.New()
			svc := NewConsumerService(conn, buf, WithStopTimeout(tt.stopTimeout))

			_, err := svc.Start(context.Background(), startCfg("orders"))
			require.NoError(t, err)
			sess := conn.Last()
			require.True(t, sess.WaitRunning(waitFor))

			ctx, cancel := context.WithTimeout(context.Background(), tt.ctxTimeout)
			defer cancel()
			begin := time.Now()
			svc.Stop(ctx)
			require.Less(t, time.Since(begin), waitFor)
			require.Equal(t, domain.StateStopped, svc.Status().State)
			require.Eventually(t, func() bool { return sess.CloseCount() == 1 }, waitFor, 5*time.Millisecond)

			// the poll loop ignored cancellation and keeps handing records over
			sess.Deliver(domain.RawRecord{Offset: 1, Value: []byte("late")})
			require.True(t, sess.Emit(domain.RawRecord{Offset: 2, Value: []byte("later")}))
			require.Never(t, func() bool { return buf.Pending() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

			// the lifecycle lock was released, so a new subscription can start
			st, err := svc.Start(context.Background(), startCfg("payments"))
			require.NoError(t, err)
			require.Equal(t, domain.StateRunning, st.State)
			svc.Stop(context.Background())
		})
	}
}
