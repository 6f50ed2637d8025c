package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// SlackConfig holds the credentials and transport settings of the Slack app.
type SlackConfig struct {
	BotToken      string `yaml:"bot_token" envconfig:"SLACK_BOT_TOKEN"`
	AppToken      string `yaml:"app_token" envconfig:"SLACK_APP_TOKEN"`
	SigningSecret string `yaml:"signing_secret" envconfig:"SLACK_SIGNING_SECRET"`
	RunMode       string `yaml:"run_mode" envconfig:"SLACK_RUN_MODE"`
	// AckTimeoutMS bounds a single dispatch; 0 -> default.
	AckTimeoutMS int  `yaml:"ack_timeout_ms" envconfig:"SLACK_ACK_TIMEOUT_MS"`
	Debug        bool `yaml:"debug" envconfig:"SLACK_DEBUG"`
}

// HTTPConfig specifies the listener used in http run mode.
type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port   int    `yaml:"port" envconfig:"HTTP_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// DatabaseConfig holds Postgres connection settings. An empty Host selects
// the in-memory enrollment store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.Host) != ""
}

// FormsConfig points at the modal templates.
type FormsConfig struct {
	TemplatesDir string `yaml:"templates_dir" envconfig:"FORMS_TEMPLATES_DIR"`
	Watch        bool   `yaml:"watch" envconfig:"FORMS_WATCH"`
}

// SenderConfig tunes the asynchronous outbound queue.
type SenderConfig struct {
	QueueSize      int `yaml:"queue_size"`
	Workers        int `yaml:"workers"`
	MaxRetries     int `yaml:"max_retries"`
	RetryBackoffMS int `yaml:"retry_backoff_ms"`
}

// MetricsConfig exposes Prometheus metrics on a dedicated listener in socket
// mode. In http mode the metrics handler is mounted on the main listener.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

const (
	// RunModeSocket receives events over a Socket Mode websocket.
	RunModeSocket = "socket"
	// RunModeHTTP receives events as signed HTTP requests.
	RunModeHTTP = "http"

	// DefaultAckTimeoutMS stays under Slack's three second acknowledgment budget.
	DefaultAckTimeoutMS = 2500
	// DefaultTemplatesDir is where modal templates are looked up.
	DefaultTemplatesDir = "modals"
	// DefaultMigrationsDir is where SQL migrations are looked up.
	DefaultMigrationsDir = "migrations"
)

// Config aggregates the application configuration.
type Config struct {
	Slack    SlackConfig    `yaml:"slack"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Forms    FormsConfig    `yaml:"forms"`
	Sender   SenderConfig   `yaml:"sender"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Load reads configuration from an optional YAML file and environment variables.
// A missing file is not an error: every setting can come from the environment.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Slack.BotToken = strings.TrimSpace(cfg.Slack.BotToken)
	cfg.Slack.AppToken = strings.TrimSpace(cfg.Slack.AppToken)
	if cfg.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token (SLACK_BOT_TOKEN) is required")
	}
	if cfg.Slack.AppToken == "" {
		return fmt.Errorf("slack.app_token (SLACK_APP_TOKEN) is required")
	}
	if !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
		return fmt.Errorf("slack.app_token must be an app-level token (xapp-...)")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Slack.RunMode))
	if rm == "" || rm == "socketmode" || rm == "socket_mode" {
		rm = RunModeSocket
	}
	switch rm {
	case RunModeSocket:
	case RunModeHTTP:
		if strings.TrimSpace(cfg.Slack.SigningSecret) == "" {
			return fmt.Errorf("slack.signing_secret is required when slack.run_mode is 'http'")
		}
		if cfg.HTTP.Port <= 0 {
			return fmt.Errorf("http.port must be > 0 when slack.run_mode is 'http'")
		}
	default:
		return fmt.Errorf("invalid slack.run_mode %q; allowed: socket, http", cfg.Slack.RunMode)
	}
	cfg.Slack.RunMode = rm

	if cfg.Slack.AckTimeoutMS < 0 {
		return fmt.Errorf("slack.ack_timeout_ms must be >= 0")
	}
	if cfg.Slack.AckTimeoutMS == 0 {
		cfg.Slack.AckTimeoutMS = DefaultAckTimeoutMS
	}

	if strings.TrimSpace(cfg.Forms.TemplatesDir) == "" {
		cfg.Forms.TemplatesDir = DefaultTemplatesDir
	}

	if cfg.Database.Enabled() {
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = DefaultMigrationsDir
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when database.host is set")
		}
	}

	if cfg.Sender.MaxRetries < 0 {
		return fmt.Errorf("sender.max_retries must be >= 0")
	}
	return nil
}
