package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/buffer"
	"github.com/OliveiraNt/kafka-lens/internal/config"
	"github.com/OliveiraNt/kafka-lens/internal/testutil"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/go-chi/chi/v5"
)

type testEnv struct {
	server    *Server
	hub       *Hub
	buf       *buffer.Buffer
	connector *testutil.FakeConnector
	lister    *testutil.FakeTopicLister
	consumer  *application.ConsumerService
	defaults  config.ConsumerConfig
}

// buildServer builds a Server wired to in-memory fakes
func buildServer(t *testing.T) *testEnv {
	t.Helper()
	utils.InitLogger()

	env := &testEnv{
		hub:       NewHub(),
		buf:       buffer.New(),
		connector: testutil.NewFakeConnector(),
		lister:    &testutil.FakeTopicLister{Topics: []string{"orders", "audit"}},
		defaults:  config.Defaults().Consumer,
	}
	env.defaults.Brokers = []string{"localhost:9092"}
	env.buf.Subscribe(env.hub)

	env.consumer = application.NewConsumerService(env.connector, env.buf, application.WithStatusListener(env.hub.OnStatus))
	t.Cleanup(func() { env.consumer.Stop(context.Background()) })

	env.server = New(
		env.consumer,
		application.NewMessageService(env.buf),
		application.NewTopicService(env.lister),
		WithHub(env.hub),
		WithConsumerDefaults(func() config.ConsumerConfig { return env.defaults }),
	)
	return env
}

// chiCtxWithParams adds multiple URL params to request context
func chiCtxWithParams(params map[string]string, req *http.Request) context.Context {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
}
