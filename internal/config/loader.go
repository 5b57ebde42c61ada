package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dbstats")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dbstats")
	}

	setDefaults(v)

	// DBSTATS_REPORT_OUTPUT_DIR overrides report.output_dir
	v.SetEnvPrefix("DBSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.grpc_port", d.Server.GRPCPort)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)

	v.SetDefault("dataset.separator", d.Dataset.Separator)
	v.SetDefault("dataset.fetch_timeout", d.Dataset.FetchTimeout)
	v.SetDefault("dataset.max_timestamp_span", d.Dataset.MaxTimestampSpan)
	v.SetDefault("dataset.root", d.Dataset.Root)
	v.SetDefault("dataset.allow_urls", d.Dataset.AllowURLs)

	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.compress", d.Report.Compress)

	v.SetDefault("registry.type", d.Registry.Type)
	v.SetDefault("registry.endpoints", d.Registry.Endpoints)
	v.SetDefault("registry.dial_timeout", d.Registry.DialTimeout)
	v.SetDefault("registry.prefix", d.Registry.Prefix)

	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject_prefix", d.Queue.SubjectPrefix)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    5580,
			GRPCPort:    5581,
			BodyLimitMB: 256,
		},
		Dataset: DatasetConfig{
			Separator:        "\t",
			MaxTimestampSpan: 1_000_000,
		},
		Report: ReportConfig{
			OutputDir: "./reports",
			Format:    "json",
		},
		Registry: RegistryConfig{
			Type:        "memory",
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
			Prefix:      "/dbstats/datasets",
		},
		Queue: QueueConfig{
			Type:          "nats",
			URL:           "nats://localhost:4222",
			SubjectPrefix: "dbstats",
			RedisGroup:    "dbstats-group",
			KafkaGroupID:  "dbstats-group",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
