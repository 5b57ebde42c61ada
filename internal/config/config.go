package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Report   ReportConfig   `mapstructure:"report"`
	Registry RegistryConfig `mapstructure:"registry"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Host        string `mapstructure:"host"`          // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort    int    `mapstructure:"http_port"`     // HTTP server port
	GRPCPort    int    `mapstructure:"grpc_port"`     // gRPC server port, 0 disables it
	BodyLimitMB int    `mapstructure:"body_limit_mb"` // Max size of an uploaded dataset
}

// DatasetConfig controls how sources are read
type DatasetConfig struct {
	Separator        string        `mapstructure:"separator"`          // Field separator, tab by default
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`      // 0 waits for the remote server indefinitely
	MaxTimestampSpan int64         `mapstructure:"max_timestamp_span"` // Largest timestamp the per-timestamp table expands to, 0 disables the limit
	Root             string        `mapstructure:"root"`               // Directory served local sources must live in, empty disables local sources
	AllowURLs        bool          `mapstructure:"allow_urls"`         // Accept http(s) sources in served requests
}

// ReportConfig controls exported reports
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"` // Directory for saved mappings
	Format    string `mapstructure:"format"`     // Summary encoding: json, protobuf
	Compress  bool   `mapstructure:"compress"`   // Write mappings as snappy framed .sz files
}

// RegistryConfig represents the dataset registry backend
type RegistryConfig struct {
	Type        string        `mapstructure:"type"` // memory (default) or etcd
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`

	// Client TLS for etcd; all empty means plaintext
	CertFile      string `mapstructure:"cert_file"`
	KeyFile       string `mapstructure:"key_file"`
	TrustedCAFile string `mapstructure:"trusted_ca_file"`
}

// TLSEnabled reports whether any TLS file is configured
func (c *RegistryConfig) TLSEnabled() bool {
	return c.CertFile != "" || c.KeyFile != "" || c.TrustedCAFile != ""
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // Publish summaries / consume analysis requests
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Subject prefix; requests arrive on <prefix>.requests, summaries leave on <prefix>.summaries
	SubjectPrefix string `mapstructure:"subject_prefix"`

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`
	RedisGroup    string `mapstructure:"redis_group"`
	RedisConsumer string `mapstructure:"redis_consumer"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report config: %w", err)
	}

	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}

	if c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("grpc_port and http_port must differ")
	}

	if c.BodyLimitMB < 1 {
		return fmt.Errorf("body_limit_mb must be positive")
	}

	return nil
}

// Validate validates dataset configuration
func (c *DatasetConfig) Validate() error {
	if c.Separator == "" {
		return fmt.Errorf("dataset.separator is required")
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("dataset.fetch_timeout cannot be negative")
	}

	if c.MaxTimestampSpan < 0 {
		return fmt.Errorf("dataset.max_timestamp_span cannot be negative")
	}

	return nil
}

// Validate validates report configuration
func (c *ReportConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}

	if c.Format != "json" && c.Format != "protobuf" {
		return fmt.Errorf("report.format must be 'json' or 'protobuf'")
	}

	return nil
}

// Validate validates registry configuration
func (c *RegistryConfig) Validate() error {
	switch c.Type {
	case "", "memory":
		return nil
	case "etcd":
		if len(c.Endpoints) == 0 {
			return fmt.Errorf("registry.endpoints is required for etcd")
		}
		if c.DialTimeout <= 0 {
			return fmt.Errorf("registry.dial_timeout must be positive")
		}
		if (c.CertFile == "") != (c.KeyFile == "") {
			return fmt.Errorf("registry.cert_file and registry.key_file must be set together")
		}
		return nil
	default:
		return fmt.Errorf("registry.type must be 'memory' or 'etcd'")
	}
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.SubjectPrefix == "" {
		return fmt.Errorf("queue.subject_prefix is required")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("queue.kafka_brokers is required for kafka")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
