// Package cmd wires the ingestion pipeline, the broker adapter and the HTTP server together
// and runs them until the context is cancelled.
package cmd

import (
	"context"

	httpserver "github.com/OliveiraNt/kafka-lens/internal/adapters/http"
	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/buffer"
	"github.com/OliveiraNt/kafka-lens/internal/config"
	"github.com/OliveiraNt/kafka-lens/internal/infrastructure/kafka"
	"github.com/OliveiraNt/kafka-lens/internal/metrics"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
)

// StartWeb builds every layer from the active configuration and serves until ctx is done.
// Buffer sizing and broker timeouts are read once; consumer defaults follow config reloads.
func StartWeb(ctx context.Context, store *config.Store) error {
	cfg := store.Get()
	m := metrics.New()

	buf := buffer.New(
		buffer.WithCapacity(cfg.Buffer.Capacity),
		buffer.WithFlushInterval(cfg.Buffer.FlushInterval),
		buffer.WithMaxPending(cfg.Buffer.MaxPending),
		buffer.WithObserver(m),
	)
	hub := httpserver.NewHub()
	buf.Subscribe(hub)

	factory := kafka.NewFactory(kafka.WithClientID(cfg.Consumer.ClientID))
	connector := kafka.NewConnector(factory,
		kafka.WithConnectTimeout(cfg.Consumer.ConnectTimeout),
		kafka.WithMaxFetchErrors(cfg.Consumer.MaxFetchErrors),
	)
	consumerService := application.NewConsumerService(connector, buf,
		application.WithConsumerObserver(m),
		application.WithStopTimeout(cfg.Consumer.StopTimeout),
		application.WithStatusListener(hub.OnStatus),
	)
	messageService := application.NewMessageService(buf)
	topicService := application.NewTopicService(kafka.NewAdmin(factory))
	utils.Logger.Info("application layer initialized",
		"capacity", buf.Capacity(),
		"flush_interval", buf.FlushInterval(),
		"max_pending", cfg.Buffer.MaxPending,
	)

	server := httpserver.New(consumerService, messageService, topicService,
		httpserver.WithHub(hub),
		httpserver.WithConsumerDefaults(func() config.ConsumerConfig { return store.Get().Consumer }),
		httpserver.WithMetricsHandler(m.Handler()),
		httpserver.WithAllowedOrigins(cfg.HTTP.AllowedOrigins),
		httpserver.WithLifecycleRateLimit(cfg.HTTP.LifecycleRateLimit),
	)

	drainCtx, cancelDrain := context.WithCancel(context.Background())
	defer cancelDrain()
	go buf.Run(drainCtx)

	err := server.Run(ctx, cfg.HTTP.Addr)

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Consumer.StopTimeout)
	defer cancel()
	consumerService.Stop(stopCtx)
	utils.Logger.Info("kafka lens stopped")
	return err
}
