package domain

import "context"

// Connector opens broker sessions. Connect returns only after the broker accepted the
// connection and the topic is known, so a returned Session is ready to run.
type Connector interface {
	Connect(ctx context.Context, cfg StartConfig) (Session, error)
}

// Session is one live broker connection subscribed to a single topic.
type Session interface {
	// Run polls the broker and invokes onRecord for every record until ctx is done,
	// the session is closed, or the broker keeps failing. It returns nil on a requested shutdown.
	Run(ctx context.Context, onRecord func(RawRecord)) error
	// Close leaves the group and releases the connection.
	Close() error
}

// TopicLister looks up topic names on a cluster.
type TopicLister interface {
	ListTopics(ctx context.Context, brokers []string) ([]string, error)
}
