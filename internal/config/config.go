package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SCHED_DB_HOST.
const EnvPrefix = "SCHED"

type Config struct {
	Server     ServerConfig     `mapstructure:"server" envconfig:"server"`
	Database   DatabaseConfig   `mapstructure:"database" envconfig:"db"`
	Storage    StorageConfig    `mapstructure:"storage" envconfig:"storage"`
	Redis      RedisConfig      `mapstructure:"redis" envconfig:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka" envconfig:"kafka"`
	Notifier   NotifierConfig   `mapstructure:"notifier" envconfig:"notifier"`
	Scheduling SchedulingConfig `mapstructure:"scheduling" envconfig:"scheduling"`
	Reminder   ReminderConfig   `mapstructure:"reminder" envconfig:"reminder"`
	Logging    LoggingConfig    `mapstructure:"logging" envconfig:"log"`
	Cache      CacheConfig      `mapstructure:"cache" envconfig:"cache"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" split_words:"true"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int           `mapstructure:"burst" split_words:"true"`
	Mode              string        `mapstructure:"mode" split_words:"true"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" split_words:"true"`
	Port            int           `mapstructure:"port" split_words:"true"`
	User            string        `mapstructure:"user" split_words:"true"`
	Password        string        `mapstructure:"password" split_words:"true"`
	Name            string        `mapstructure:"name" split_words:"true"`
	SSLMode         string        `mapstructure:"sslmode" split_words:"true"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
	Migrate         bool          `mapstructure:"migrate" split_words:"true"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" split_words:"true"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" split_words:"true"`
	Channel      string        `mapstructure:"channel" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" split_words:"true"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers" split_words:"true"`
	Topic   string `mapstructure:"topic" split_words:"true"`
}

type NotifierConfig struct {
	Channel string     `mapstructure:"channel" split_words:"true"`
	SMTP    SMTPConfig `mapstructure:"smtp" envconfig:"smtp"`
	// Breaker trips after this many consecutive dispatch failures.
	BreakerFailures uint32        `mapstructure:"breaker_failures" split_words:"true"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" split_words:"true"`
	SendTimeout     time.Duration `mapstructure:"send_timeout" split_words:"true"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" split_words:"true"`
	Port     int    `mapstructure:"port" split_words:"true"`
	Username string `mapstructure:"username" split_words:"true"`
	Password string `mapstructure:"password" split_words:"true"`
	From     string `mapstructure:"from" split_words:"true"`
}

type SchedulingConfig struct {
	MaxRetries int    `mapstructure:"max_retries" split_words:"true"`
	Timezone   string `mapstructure:"timezone" split_words:"true"`
}

// Location resolves Timezone, falling back to UTC when empty.
func (c SchedulingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type ReminderConfig struct {
	// Schedule is a robfig/cron spec such as "@every 5m" or "*/10 * * * *".
	Schedule     string        `mapstructure:"schedule" split_words:"true"`
	ScanTimeout  time.Duration `mapstructure:"scan_timeout" split_words:"true"`
	HealthPort   int           `mapstructure:"health_port" split_words:"true"`
	RunOnStartup bool          `mapstructure:"run_on_startup" split_words:"true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" split_words:"true"`
	Format string `mapstructure:"format" split_words:"true"`
}

type CacheConfig struct {
	PractitionerTTL time.Duration `mapstructure:"practitioner_ttl" split_words:"true"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
}

var (
	storageDrivers   = map[string]bool{"postgres": true, "memory": true}
	notifierChannels = map[string]bool{"log": true, "email": true, "redis": true, "kafka": true}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.requests_per_second", 50.0)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "scheduling")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "appointment.reminders")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "appointment.reminders")

	v.SetDefault("notifier.channel", "log")
	v.SetDefault("notifier.smtp.port", 587)
	v.SetDefault("notifier.breaker_failures", 5)
	v.SetDefault("notifier.breaker_timeout", 30*time.Second)
	v.SetDefault("notifier.send_timeout", 10*time.Second)

	v.SetDefault("scheduling.max_retries", 3)
	v.SetDefault("scheduling.timezone", "UTC")

	v.SetDefault("reminder.schedule", "@every 5m")
	v.SetDefault("reminder.scan_timeout", time.Minute)
	v.SetDefault("reminder.health_port", 8081)
	v.SetDefault("reminder.run_on_startup", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cache.practitioner_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
}

// LoadConfig reads config.yml from the usual locations, falls back to
// defaults when no file exists, then applies SCHED_* environment overrides.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the binaries cannot start with.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	c.Notifier.Channel = strings.ToLower(c.Notifier.Channel)

	if !storageDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if !notifierChannels[c.Notifier.Channel] {
		return fmt.Errorf("unknown notifier channel %q", c.Notifier.Channel)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if c.Scheduling.MaxRetries < 0 {
		return fmt.Errorf("scheduling max_retries must not be negative")
	}
	if _, err := c.Scheduling.Location(); err != nil {
		return fmt.Errorf("invalid scheduling timezone: %w", err)
	}
	if c.Reminder.Schedule == "" {
		return fmt.Errorf("reminder schedule is required")
	}
	if c.Reminder.ScanTimeout <= 0 {
		return fmt.Errorf("reminder scan_timeout must be positive")
	}
	if c.Notifier.Channel == "email" && (c.Notifier.SMTP.Host == "" || c.Notifier.SMTP.From == "") {
		return fmt.Errorf("email notifier requires smtp host and from address")
	}
	if c.Notifier.Channel == "kafka" && (c.Kafka.Brokers == "" || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka notifier requires brokers and topic")
	}
	return nil
}
