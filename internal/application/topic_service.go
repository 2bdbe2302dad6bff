package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
)

const topicLookupTimeout = 10 * time.Second

// TopicService handles topic discovery.
type TopicService struct {
	lister domain.TopicLister
}

// NewTopicService creates a new topic service.
func NewTopicService(lister domain.TopicLister) *TopicService {
	return &TopicService{lister: lister}
}

// ListTopics returns the sorted topic names known to brokers.
func (s *TopicService) ListTopics(ctx context.Context, brokers []string) ([]string, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	cctx, cancel := context.WithTimeout(ctx, topicLookupTimeout)
	defer cancel()

	topics, err := s.lister.ListTopics(cctx, brokers)
	if err != nil {
		utils.Logger.Error("list topics failed", "brokers", brokers, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	sort.Strings(topics)
	return topics, nil
}
