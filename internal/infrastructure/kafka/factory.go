package kafka

import (
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultClientID    = "kafka-lens"
	defaultDialTimeout = 5 * time.Second
)

// Option configures a Factory.
type Option func(*Factory)

// WithClientID sets the client id reported to the brokers.
func WithClientID(id string) Option {
	return func(f *Factory) {
		if id != "" {
			f.clientID = id
		}
	}
}

// WithDialTimeout bounds every connection attempt to a broker.
func WithDialTimeout(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.dialTimeout = d
		}
	}
}

// Factory creates franz-go clients from a start configuration.
type Factory struct {
	clientID    string
	dialTimeout time.Duration
}

// NewFactory creates a new client factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{clientID: defaultClientID, dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) baseOptions(brokers []string) []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(f.clientID),
		kgo.DialTimeout(f.dialTimeout),
	}
}

// ConsumerClient creates a group consumer for cfg.Topic.
func (f *Factory) ConsumerClient(cfg domain.StartConfig) (*kgo.Client, error) {
	opts := append(f.baseOptions(cfg.Brokers),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(resetOffset(cfg.StartOffset)),
	)
	return kgo.NewClient(opts...)
}

// AdminClient creates a plain client used for metadata requests.
func (f *Factory) AdminClient(brokers []string) (*kgo.Client, error) {
	return kgo.NewClient(f.baseOptions(brokers)...)
}

func resetOffset(o domain.StartOffset) kgo.Offset {
	if o == domain.OffsetEarliest {
		return kgo.NewOffset().AtStart()
	}
	return kgo.NewOffset().AtEnd()
}
