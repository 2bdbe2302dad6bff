package domain

import (
	"errors"
	"strings"
)

// StartOffset is the reset policy used when the consumer group has no committed offset.
type StartOffset string

const (
	OffsetEarliest StartOffset = "earliest"
	OffsetLatest   StartOffset = "latest"
)

// StartConfig is an immutable request to begin consuming.
type StartConfig struct {
	Brokers     []string    `json:"brokers"`
	Topic       string      `json:"topic"`
	GroupID     string      `json:"group_id"`
	StartOffset StartOffset `json:"start_offset"`
	Mask        bool        `json:"mask"`
}

// ParseBrokers splits a comma-separated broker list, trimming blanks and dropping empty entries.
func ParseBrokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Validate reports the first missing or malformed field.
func (c StartConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("brokers are required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("topic is required")
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return errors.New("group id is required")
	}
	switch c.StartOffset {
	case OffsetEarliest, OffsetLatest:
	default:
		return errors.New("start offset must be earliest or latest")
	}
	return nil
}

// ConsumerState is the lifecycle state of the consumer.
type ConsumerState string

const (
	StateStopped  ConsumerState = "stopped"
	StateStarting ConsumerState = "starting"
	StateRunning  ConsumerState = "running"
	// StateFailed is a stopped consumer whose last start attempt failed.
	StateFailed ConsumerState = "failed"
)

// ConsumerStatus is a point-in-time view of the consumer for presentation.
type ConsumerStatus struct {
	State       ConsumerState `json:"state"`
	SessionID   string        `json:"session_id,omitempty"`
	Topic       string        `json:"topic,omitempty"`
	GroupID     string        `json:"group_id,omitempty"`
	StartOffset StartOffset   `json:"start_offset,omitempty"`
	Mask        bool          `json:"mask"`
	StartedAt   int64         `json:"started_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}
