package application

import "errors"

var (
	// ErrConnection is returned when the broker is unreachable, rejects the client or does not know the topic.
	ErrConnection = errors.New("connection error")

	// ErrInvalidStartConfig is returned when a start request is incomplete or malformed
	ErrInvalidStartConfig = errors.New("invalid start configuration")

	// ErrNoBrokers is returned when a topic lookup has no broker to ask
	ErrNoBrokers = errors.New("at least one broker is required")

	// ErrRecordNotFound is returned when a record is no longer retained
	ErrRecordNotFound = errors.New("record not found")
)
