package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the sanctions screening service.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Sanctions SanctionsConfig `mapstructure:"sanctions"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name            string `mapstructure:"name"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Environment     string `mapstructure:"environment"`
	Debug           bool   `mapstructure:"debug"`
	LogLevel        string `mapstructure:"log_level"`
	DataDir         string `mapstructure:"data_dir"`
	ConfigDir       string `mapstructure:"config_dir"`
	APIRateLimit    int    `mapstructure:"api_rate_limit"`
	DefaultMaxHops  int    `mapstructure:"default_max_hops"`
}

// SanctionsConfig configures the sanctions index's byte source.
type SanctionsConfig struct {
	Dir           string `mapstructure:"dir"`
	FileName      string `mapstructure:"file_name"`
	FeedURL       string `mapstructure:"feed_url"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`
}

// IndexerConfig configures the blockchain indexer client.
type IndexerConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	RateLimitMax    int    `mapstructure:"rate_limit_max"`
	RateLimitWindow int    `mapstructure:"rate_limit_window_seconds"`
}

// AuditConfig configures the day-bucketed audit log file tree.
type AuditConfig struct {
	LogsDir          string `mapstructure:"logs_dir"`
	RiskAssessmentsDir string `mapstructure:"risk_assessments_dir"`
	DefaultQueryDays int    `mapstructure:"default_query_days"`
}

// KafkaConfig configures the optional asynchronous ingestion feed.
type KafkaConfig struct {
	Enabled       bool               `mapstructure:"enabled"`
	Brokers       []string           `mapstructure:"brokers"`
	ConsumerGroup string             `mapstructure:"consumer_group"`
	Topics        KafkaTopicsConfig  `mapstructure:"topics"`
	Producer      KafkaProducerConfig `mapstructure:"producer"`
}

// KafkaTopicsConfig holds Kafka topic names.
type KafkaTopicsConfig struct {
	TransactionsSubmitted string `mapstructure:"transactions_submitted"`
	ScreeningCompleted    string `mapstructure:"screening_completed"`
	SanctionsHit          string `mapstructure:"sanctions_hit"`
}

// KafkaProducerConfig holds Kafka producer configuration.
type KafkaProducerConfig struct {
	RequiredAcks string `mapstructure:"required_acks"`
	RetryMax     int    `mapstructure:"retry_max"`
}

// HealthConfig holds health/readiness check configuration.
type HealthConfig struct {
	Interval int `mapstructure:"interval"`
	Timeout  int `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/btc-sanctions/")

	v.SetEnvPrefix("BTCSANC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "btc-sanctions-screener")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8090)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.data_dir", "./data")
	v.SetDefault("app.config_dir", "./config")
	v.SetDefault("app.api_rate_limit", 60)
	v.SetDefault("app.default_max_hops", 3)

	v.SetDefault("sanctions.dir", "./data/sanctions")
	v.SetDefault("sanctions.file_name", "sdn_crypto.json")
	v.SetDefault("sanctions.feed_url", "")
	v.SetDefault("sanctions.cache_ttl_hours", 1)

	v.SetDefault("indexer.base_url", "http://localhost:3000")
	v.SetDefault("indexer.timeout_seconds", 10)
	v.SetDefault("indexer.rate_limit_max", 60)
	v.SetDefault("indexer.rate_limit_window_seconds", 60)

	v.SetDefault("audit.logs_dir", "./data/audit")
	v.SetDefault("audit.risk_assessments_dir", "./data/risk-assessments")
	v.SetDefault("audit.default_query_days", 7)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group", "btc-sanctions-consumer")
	v.SetDefault("kafka.topics.transactions_submitted", "btc.sanctions.transactions.submitted")
	v.SetDefault("kafka.topics.screening_completed", "btc.sanctions.screening.completed")
	v.SetDefault("kafka.topics.sanctions_hit", "btc.sanctions.hit")
	v.SetDefault("kafka.producer.required_acks", "all")
	v.SetDefault("kafka.producer.retry_max", 3)

	v.SetDefault("health.interval", 30)
	v.SetDefault("health.timeout", 10)
}

// applyDefaults fills in zero-valued fields that SetDefault could not
// reach because the key was present but empty in the config source.
func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "btc-sanctions-screener"
	}
	if c.App.Host == "" {
		c.App.Host = "0.0.0.0"
	}
	if c.App.Port == 0 {
		c.App.Port = 8090
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.APIRateLimit == 0 {
		c.App.APIRateLimit = 60
	}
	if c.App.DefaultMaxHops == 0 {
		c.App.DefaultMaxHops = 3
	}
	if c.Sanctions.FileName == "" {
		c.Sanctions.FileName = "sdn_crypto.json"
	}
	if c.Sanctions.CacheTTLHours == 0 {
		c.Sanctions.CacheTTLHours = 1
	}
	if c.Indexer.TimeoutSeconds == 0 {
		c.Indexer.TimeoutSeconds = 10
	}
	if c.Indexer.RateLimitMax == 0 {
		c.Indexer.RateLimitMax = 60
	}
	if c.Indexer.RateLimitWindow == 0 {
		c.Indexer.RateLimitWindow = 60
	}
	if c.Audit.DefaultQueryDays == 0 {
		c.Audit.DefaultQueryDays = 7
	}
}

// GetServerAddress returns the server's listen address.
func (c *AppConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
