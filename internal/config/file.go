package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/OliveiraNt/kafka-lens/internal/buffer"
	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPAddr       = ":8080"
	DefaultLifecycleLimit = 30
	DefaultLogLevel       = "info"
	DefaultGroupID        = "kafka-lens"
	DefaultStartOffset    = string(domain.OffsetLatest)
	DefaultConnectTimeout = 10 * time.Second
	DefaultStopTimeout    = 10 * time.Second
	DefaultMaxFetchErrors = 5
)

// HTTPConfig holds the listen address of the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
	// AllowedOrigins lists the cross-origin pages allowed to call the API and open the
	// stream. Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
	// LifecycleRateLimit caps start and stop requests per client IP and minute. Zero means
	// the default, a negative value disables the limit.
	LifecycleRateLimit int `yaml:"lifecycle_rate_limit,omitempty" json:"lifecycle_rate_limit,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
}

// ConsumerConfig holds the defaults used to fill incomplete start requests and the broker
// timeouts.
type ConsumerConfig struct {
	Brokers        []string      `yaml:"brokers,omitempty" json:"brokers,omitempty"`
	GroupID        string        `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	StartOffset    string        `yaml:"start_offset,omitempty" json:"start_offset,omitempty"`
	Mask           bool          `yaml:"mask,omitempty" json:"mask,omitempty"`
	ClientID       string        `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty" json:"connect_timeout,omitempty"`
	StopTimeout    time.Duration `yaml:"stop_timeout,omitempty" json:"stop_timeout,omitempty"`
	MaxFetchErrors int           `yaml:"max_fetch_errors,omitempty" json:"max_fetch_errors,omitempty"`
}

// BufferConfig sizes the ingestion buffer. It is read once at startup.
type BufferConfig struct {
	Capacity      int           `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	FlushInterval time.Duration `yaml:"flush_interval,omitempty" json:"flush_interval,omitempty"`
	MaxPending    int           `yaml:"max_pending,omitempty" json:"max_pending,omitempty"`
}

type FileConfig struct {
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Consumer ConsumerConfig `yaml:"consumer" json:"consumer"`
	Buffer   BufferConfig   `yaml:"buffer" json:"buffer"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() FileConfig {
	return FileConfig{}.WithDefaults()
}

// WithDefaults fills every unset field with its default.
func (c FileConfig) WithDefaults() FileConfig {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.LifecycleRateLimit == 0 {
		c.HTTP.LifecycleRateLimit = DefaultLifecycleLimit
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Consumer.GroupID == "" {
		c.Consumer.GroupID = DefaultGroupID
	}
	if c.Consumer.StartOffset == "" {
		c.Consumer.StartOffset = DefaultStartOffset
	}
	if c.Consumer.ConnectTimeout == 0 {
		c.Consumer.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Consumer.StopTimeout == 0 {
		c.Consumer.StopTimeout = DefaultStopTimeout
	}
	if c.Consumer.MaxFetchErrors == 0 {
		c.Consumer.MaxFetchErrors = DefaultMaxFetchErrors
	}
	if c.Buffer.Capacity == 0 {
		c.Buffer.Capacity = buffer.DefaultCapacity
	}
	if c.Buffer.FlushInterval == 0 {
		c.Buffer.FlushInterval = buffer.DefaultFlushInterval
	}
	return c
}

// WithEnv applies the environment overrides.
func (c FileConfig) WithEnv() FileConfig {
	if v := strings.TrimSpace(os.Getenv("KAFKA_LENS_HTTP_ADDR")); v != "" {
		c.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_LENS_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	return c
}

// Validate reports values that cannot be defaulted away.
func (c FileConfig) Validate() error {
	var errs []error
	switch domain.StartOffset(c.Consumer.StartOffset) {
	case domain.OffsetEarliest, domain.OffsetLatest:
	default:
		errs = append(errs, fmt.Errorf("consumer.start_offset: %q is not earliest or latest", c.Consumer.StartOffset))
	}
	if c.Consumer.ConnectTimeout < 0 {
		errs = append(errs, errors.New("consumer.connect_timeout must not be negative"))
	}
	if c.Consumer.StopTimeout < 0 {
		errs = append(errs, errors.New("consumer.stop_timeout must not be negative"))
	}
	if c.Buffer.Capacity < 0 {
		errs = append(errs, errors.New("buffer.capacity must not be negative"))
	}
	if c.Buffer.FlushInterval < 0 {
		errs = append(errs, errors.New("buffer.flush_interval must not be negative"))
	}
	if c.Buffer.MaxPending < 0 {
		errs = append(errs, errors.New("buffer.max_pending must not be negative"))
	}
	return errors.Join(errs...)
}

// StartDefaults fills the fields req leaves empty from the consumer defaults.
func (c ConsumerConfig) StartDefaults(req domain.StartConfig) domain.StartConfig {
	if len(req.Brokers) == 0 {
		req.Brokers = append([]string(nil), c.Brokers...)
	}
	if strings.TrimSpace(req.GroupID) == "" {
		req.GroupID = c.GroupID
	}
	if req.StartOffset == "" {
		req.StartOffset = domain.StartOffset(c.StartOffset)
	}
	return req
}

// ReadConfig reads path and fills unset values with defaults. An empty file is valid.
func ReadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}

func WriteConfig(path string, cfg FileConfig) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
