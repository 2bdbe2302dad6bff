package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/application"
	"github.com/OliveiraNt/kafka-lens/internal/config"
	"github.com/OliveiraNt/kafka-lens/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithHub sets the hub WebSocket clients attach to.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithConsumerDefaults sets the source of the values filled into incomplete start requests.
func WithConsumerDefaults(fn func() config.ConsumerConfig) Option {
	return func(s *Server) {
		if fn != nil {
			s.defaults = fn
		}
	}
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithLifecycleRateLimit caps start and stop requests per client IP and minute. Zero or a
// negative value disables it.
func WithLifecycleRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.lifecycleLimit = perMinute
	}
}

// Server provides the HTTP API and the WebSocket stream for Kafka Lens.
type Server struct {
	consumerService *application.ConsumerService
	messageService  *application.MessageService
	topicService    *application.TopicService
	hub             *Hub
	defaults        func() config.ConsumerConfig
	metrics         http.Handler
	allowedOrigins  []string
	lifecycleLimit  int
}

// New creates a new HTTP server instance.
func New(consumerService *application.ConsumerService, messageService *application.MessageService, topicService *application.TopicService, opts ...Option) *Server {
	s := &Server{
		consumerService: consumerService,
		messageService:  messageService,
		topicService:    topicService,
		hub:             NewHub(),
		defaults:        func() config.ConsumerConfig { return config.Defaults().Consumer },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			dur := time.Since(start)
			utils.Logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", dur.String(),
			)
		})
	})

	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Notification-Type", "X-Notification-Base64"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.lifecycleLimit > 0 {
				r.Use(httprate.LimitByIP(s.lifecycleLimit, time.Minute))
			}
			r.Post("/consumer/start", s.apiStartConsumer)
			r.Post("/consumer/stop", s.apiStopConsumer)
		})
		r.Get("/consumer/status", s.apiConsumerStatus)

		r.Get("/messages", s.apiListMessages)
		r.Delete("/messages", s.apiClearMessages)
		r.Get("/messages/{partition}/{offset}", s.apiGetMessage)

		r.Get("/topics", s.apiListTopics)

		r.Get("/ws", s.wsStream)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
