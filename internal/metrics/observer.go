package metrics

// BufferObserver receives buffer events.
type BufferObserver interface {
	RecordEvicted(n int)
	RecordPendingDropped(n int)
	RecordDrain(batch, retained int)
	RecordReset()
}

// ConsumerObserver receives consumer lifecycle and delivery events.
type ConsumerObserver interface {
	RecordDelivered()
	RecordDropped()
	SetRunning(running bool)
}

// NoopObserver discards every event. It is the default for buffers and consumers built
// without metrics.
type NoopObserver struct{}

func (NoopObserver) RecordEvicted(_ int)        {}
func (NoopObserver) RecordPendingDropped(_ int) {}
func (NoopObserver) RecordDrain(_, _ int)       {}
func (NoopObserver) RecordReset()               {}
func (NoopObserver) RecordDelivered()           {}
func (NoopObserver) RecordDropped()             {}
func (NoopObserver) SetRunning(_ bool)          {}
