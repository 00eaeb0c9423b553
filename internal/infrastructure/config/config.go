package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bundle-cluster-analyzer/internal/domain/clustering"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Neo4J    Neo4JConfig    `mapstructure:"neo4j"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	HTTPPort        int           `mapstructure:"http_port"`
	WorkerPoolSize  int           `mapstructure:"worker_pool_size"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AnalysisConfig holds the clustering engine parameters
type AnalysisConfig struct {
	TemporalWindow     int64  `mapstructure:"temporal_window"`
	MinTemporalWallets int    `mapstructure:"min_temporal_wallets"`
	SyncSellWindow     int64  `mapstructure:"sync_sell_window"`
	FundingMode        string `mapstructure:"funding_mode"`
	// ActivityLimit caps the wallets loaded from the graph for one token
	ActivityLimit int `mapstructure:"activity_limit"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                 string        `mapstructure:"url"`
	Enabled             bool          `mapstructure:"enabled"`
	StreamName          string        `mapstructure:"stream_name"`
	RequestSubject      string        `mapstructure:"request_subject"`
	ResultSubjectPrefix string        `mapstructure:"result_subject_prefix"`
	QueueGroup          string        `mapstructure:"queue_group"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts   int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay      time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages  int           `mapstructure:"max_pending_messages"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	return load(viper.New(), ".", "./config", "/etc/bundle-cluster-analyzer")
}

// ErrInvalidConfig is returned when a loaded value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variables
	v.AutomaticEnv()

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if _, err := config.Analysis.EngineOptions(); err != nil {
		return nil, err
	}
	if config.Analysis.ActivityLimit <= 0 {
		return nil, fmt.Errorf("%w: analysis.activity_limit must be positive, got %d", ErrInvalidConfig, config.Analysis.ActivityLimit)
	}

	return &config, nil
}

// EngineOptions converts the analysis section into validated clustering options
func (c AnalysisConfig) EngineOptions() (clustering.Options, error) {
	mode, err := clustering.ParseFundingMode(c.FundingMode)
	if err != nil {
		return clustering.Options{}, err
	}

	opts := clustering.DefaultOptions()
	opts.TemporalWindow = c.TemporalWindow
	opts.MinTemporalWallets = c.MinTemporalWallets
	opts.SyncSellWindow = c.SyncSellWindow
	opts.FundingMode = mode

	if err := opts.Validate(); err != nil {
		return clustering.Options{}, err
	}
	return opts, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 10)
	v.SetDefault("app.request_timeout", "30s")
	v.SetDefault("app.shutdown_timeout", "15s")

	// Analysis defaults
	v.SetDefault("analysis.temporal_window", 2)
	v.SetDefault("analysis.min_temporal_wallets", 3)
	v.SetDefault("analysis.sync_sell_window", 60)
	v.SetDefault("analysis.funding_mode", string(clustering.FundingModeShared))
	v.SetDefault("analysis.activity_limit", 5000)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.stream_name", "BUNDLE_ANALYSIS")
	v.SetDefault("nats.request_subject", "bundles.analyze")
	v.SetDefault("nats.result_subject_prefix", "bundles.results")
	v.SetDefault("nats.queue_group", "bundle-cluster-analyzer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 1000)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Bind env for NATS URL
	_ = v.BindEnv("nats.url", "NATS_URL")
}
