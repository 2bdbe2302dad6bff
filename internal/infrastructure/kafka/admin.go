package kafka

import (
	"context"
	"fmt"
	"sort"

	"github.com/twmb/franz-go/pkg/kadm"
)

// Admin implements domain.TopicLister using kadm.
type Admin struct {
	factory *Factory
}

// NewAdmin creates a new Admin
func NewAdmin(factory *Factory) *Admin {
	if factory == nil {
		factory = NewFactory()
	}
	return &Admin{factory: factory}
}

// ListTopics returns the sorted names of the non-internal topics known to brokers.
func (a *Admin) ListTopics(ctx context.Context, brokers []string) ([]string, error) {
	client, err := a.factory.AdminClient(brokers)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	defer client.Close()

	details, err := kadm.NewClient(client).ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	return topicNames(details), nil
}

func topicNames(details kadm.TopicDetails) []string {
	names := make([]string, 0, len(details))
	for name, d := range details {
		if d.IsInternal || d.Err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
