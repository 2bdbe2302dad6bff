package application

import (
	"context"
	"errors"
	"testing"

	"github.com/OliveiraNt/kafka-lens/internal/testutil"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestTopicService_ListTopics(t *testing.T) {
	t.Parallel()
	utils.InitLogger()
	lister := &testutil.FakeTopicLister{Topics: []string{"payments", "audit", "orders"}}
	svc := NewTopicService(lister)

	// no brokers
	_, err := svc.ListTopics(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoBrokers)

	// success is sorted
	topics, err := svc.ListTopics(context.Background(), []string{"b1:9092", "b2:9092"})
	require.NoError(t, err)
	require.Equal(t, []string{"audit", "orders", "payments"}, topics)
	require.Equal(t, []string{"b1:9092", "b2:9092"}, lister.Brokers())

	// lookup failure is a connection error
	lister.Err = errors.New("dial tcp: refused")
	_, err = svc.ListTopics(context.Background(), []string{"b1:9092"})
	require.ErrorIs(t, err, ErrConnection)
}
