package application

import (
	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
)

// RecordStore is the read side of the retained record buffer.
type RecordStore interface {
	Snapshot() []domain.Record
	Find(partition int32, offset string) (domain.Record, bool)
	Reset()
	Sync(fn func(snapshot []domain.Record))
}

// MessageService serves the retained records to the presentation layer.
type MessageService struct {
	store RecordStore
}

// NewMessageService creates a new message service.
func NewMessageService(store RecordStore) *MessageService {
	return &MessageService{store: store}
}

// List returns the retained records matching query. newestFirst reverses the display order
// without touching the retained sequence.
func (s *MessageService) List(query string, newestFirst bool) []domain.Record {
	out := Filter(s.store.Snapshot(), query)
	if !newestFirst {
		return out
	}
	rev := make([]domain.Record, len(out))
	for i, r := range out {
		rev[len(out)-1-i] = r
	}
	return rev
}

// Get returns one retained record.
func (s *MessageService) Get(partition int32, offset string) (domain.Record, error) {
	r, ok := s.store.Find(partition, offset)
	if !ok {
		return domain.Record{}, ErrRecordNotFound
	}
	return r, nil
}

// Clear drops every retained and pending record.
func (s *MessageService) Clear() {
	s.store.Reset()
	utils.Logger.Info("retained records cleared")
}

// Attach hands fn the retained records at a point where no drain or reset is in progress.
// Listener notifications that follow pick up right after that snapshot.
func (s *MessageService) Attach(fn func(snapshot []domain.Record)) {
	s.store.Sync(fn)
}
