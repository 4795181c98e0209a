package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend       BackendConfig       `yaml:"backend"`
	Polling       PollingConfig       `yaml:"polling"`
	Tables        TablesConfig        `yaml:"tables"`
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	RabbitMQ      RabbitMQConfig      `yaml:"rabbitmq"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

type BackendConfig struct {
	// BaseURL of the catalog/order service. Empty runs the terminal against
	// the in-memory demo backend.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type TablesConfig struct {
	Count int `yaml:"count"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Enabled reports whether the journal database is configured
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Exchange string `yaml:"exchange"`
}

func (c RabbitMQConfig) Enabled() bool { return c.Host != "" }

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

type NotificationsConfig struct {
	Capacity int `yaml:"capacity"`
}

// Default returns the configuration used for every key the file leaves out
func Default() *Config {
	return &Config{
		Backend:       BackendConfig{Timeout: 10 * time.Second},
		Polling:       PollingConfig{Interval: 5 * time.Second},
		Tables:        TablesConfig{Count: 6},
		HTTP:          HTTPConfig{Port: 3000},
		Database:      DatabaseConfig{Port: 5432},
		RabbitMQ:      RabbitMQConfig{Port: 5672, Exchange: "notifications_fanout"},
		Logging:       LoggingConfig{Level: "info"},
		Notifications: NotificationsConfig{Capacity: 50},
	}
}

// Load reads the YAML file at path (a missing file keeps the defaults), then
// applies .env and POS_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse yaml: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"POS_BACKEND_URL":       &c.Backend.BaseURL,
		"POS_DB_HOST":           &c.Database.Host,
		"POS_DB_USER":           &c.Database.User,
		"POS_DB_PASSWORD":       &c.Database.Password,
		"POS_DB_NAME":           &c.Database.Database,
		"POS_RABBITMQ_HOST":     &c.RabbitMQ.Host,
		"POS_RABBITMQ_USER":     &c.RabbitMQ.User,
		"POS_RABBITMQ_PASSWORD": &c.RabbitMQ.Password,
		"POS_LOG_LEVEL":         &c.Logging.Level,
		"POS_LOG_FILE":          &c.Logging.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("POS_HTTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POS_HTTP_PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	if v, ok := os.LookupEnv("POS_POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POS_POLL_INTERVAL: %w", err)
		}
		c.Polling.Interval = d
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Polling.Interval <= 0 {
		return errors.New("polling.interval must be > 0")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be > 0")
	}
	if c.Tables.Count < 1 || c.Tables.Count > 100 {
		return errors.New("tables.count must be between 1 and 100")
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be a valid TCP port")
	}
	if c.Notifications.Capacity < 1 {
		return errors.New("notifications.capacity must be > 0")
	}
	return nil
}
