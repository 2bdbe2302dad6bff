package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxFetchErrors = 5
)

// consumer is the part of *kgo.Client a Session drives.
type consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithConnectTimeout bounds the broker handshake of Connect.
func WithConnectTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithMaxFetchErrors sets how many consecutive failed polls end a session. Zero or less
// keeps polling forever.
func WithMaxFetchErrors(n int) ConnectorOption {
	return func(c *Connector) {
		c.maxFetchErrors = n
	}
}

// Connector implements domain.Connector using franz-go.
type Connector struct {
	factory        *Factory
	connectTimeout time.Duration
	maxFetchErrors int
}

// NewConnector creates a connector building its clients with factory.
func NewConnector(factory *Factory, opts ...ConnectorOption) *Connector {
	if factory == nil {
		factory = NewFactory()
	}
	c := &Connector{
		factory:        factory,
		connectTimeout: defaultConnectTimeout,
		maxFetchErrors: defaultMaxFetchErrors,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect creates a group consumer for cfg and checks that the brokers answer and the topic
// exists. The client is closed again when the check fails.
func (c *Connector) Connect(ctx context.Context, cfg domain.StartConfig) (domain.Session, error) {
	client, err := c.factory.ConsumerClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	hctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	if err := handshake(hctx, client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	utils.Logger.Debug("kafka handshake ok", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return newSession(client, cfg.Topic, c.maxFetchErrors), nil
}

func handshake(ctx context.Context, client *kgo.Client, topic string) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("ping brokers: %w", err)
	}
	details, err := kadm.NewClient(client).ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("describe topic %q: %w", topic, err)
	}
	d, ok := details[topic]
	if !ok {
		return fmt.Errorf("topic %q does not exist", topic)
	}
	if d.Err != nil {
		return fmt.Errorf("topic %q: %w", topic, d.Err)
	}
	return nil
}

// Session implements domain.Session over one franz-go group consumer.
type Session struct {
	client         consumer
	topic          string
	maxFetchErrors int
	closeOnce      sync.Once
}

func newSession(client consumer, topic string, maxFetchErrors int) *Session {
	return &Session{client: client, topic: topic, maxFetchErrors: maxFetchErrors}
}

// Run polls until ctx is cancelled or the client is closed, both of which return nil. It
// returns an error once maxFetchErrors polls in a row failed without any record.
func (s *Session) Run(ctx context.Context, onRecord func(domain.RawRecord)) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}

		var lastErr error
		fetches.EachError(func(t string, p int32, err error) {
			lastErr = err
			utils.Logger.Error("kafka fetch failed", "topic", t, "partition", p, "err", err)
		})
		if lastErr != nil && fetches.NumRecords() == 0 {
			failures++
			if s.maxFetchErrors > 0 && failures >= s.maxFetchErrors {
				return fmt.Errorf("%d consecutive failed fetches on %s: %w", failures, s.topic, lastErr)
			}
			continue
		}
		failures = 0

		fetches.EachRecord(func(r *kgo.Record) {
			onRecord(toRawRecord(r))
		})
	}
}

// Close leaves the group and releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(s.client.Close)
	return nil
}

func toRawRecord(r *kgo.Record) domain.RawRecord {
	var headers map[string][]byte
	if len(r.Headers) > 0 {
		headers = make(map[string][]byte, len(r.Headers))
		for _, h := range r.Headers {
			headers[h.Key] = h.Value
		}
	}
	var ts int64
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.UnixMilli()
	}
	return domain.RawRecord{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Timestamp: ts,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
	}
}
