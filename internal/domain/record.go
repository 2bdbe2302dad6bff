// Package domain defines the core entities and collaborator interfaces for kafka-lens:
// the raw records handed over by the broker, the normalized records kept in memory for
// inspection, the request used to start a consumer, and the abstractions over the broker
// client that the application layer depends on.
package domain

// RawRecord is a record as received from the broker, before any decoding.
type RawRecord struct {
	Topic     string
	Partition int32
	Offset    int64
	// Timestamp is the broker-assigned timestamp in epoch milliseconds, 0 when unset.
	Timestamp int64
	Key       []byte
	Value     []byte
	Headers   map[string][]byte
}

// Record is the normalized, display-ready form of a RawRecord.
// Records are values; nothing mutates them after normalization.
type Record struct {
	Topic     string            `json:"topic"`
	Partition int32             `json:"partition"`
	Offset    string            `json:"offset"`
	Timestamp *int64            `json:"timestamp"`
	Key       string            `json:"key"`
	Value     string            `json:"value"`
	Headers   map[string]string `json:"headers"`
}
