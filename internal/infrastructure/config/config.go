package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/helpdesk/internal/shared/config"
)

const envPrefix = "HELPDESK"

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	SMTP         sharedConfig.SMTPConfig         `mapstructure:"smtp"`
	Mailbox      sharedConfig.MailboxConfig      `mapstructure:"mailbox"`
	Ingestion    sharedConfig.IngestionConfig    `mapstructure:"ingestion"`
	Workflow     sharedConfig.WorkflowConfig     `mapstructure:"workflow"`
	Routing      sharedConfig.RoutingConfig      `mapstructure:"routing"`
	Notification sharedConfig.NotificationConfig `mapstructure:"notification"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
	validate    = validator.New()
)

// Loader reads the configuration file and keeps the viper instance around
// so the file can be watched afterwards.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. An empty path searches ./configs and its
// parents for config.yaml.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v}
}

// Load reads the file, applies env overrides and validates the result. A
// missing file is not an error; defaults and env still apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// ConfigFile is the path of the file that was read, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the file whenever it changes and hands the new routing
// section to onRouting. Other sections need a restart. A file that no
// longer validates is reported to onError and the previous config stays.
func (l *Loader) Watch(onRouting func(sharedConfig.RoutingConfig) error, onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err == nil {
			err = onRouting(cfg.Routing)
		}
		if err != nil && onError != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
		}
	})
	l.v.WatchConfig()
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Database.Driver == sharedConfig.DriverSQLite && cfg.Database.Path == "" {
		return fmt.Errorf("invalid config: database.path is required for sqlite")
	}
	if cfg.Routing.DefaultQueue == "" && len(cfg.Routing.Routes) == 0 {
		return fmt.Errorf("invalid config: routing needs a default_queue or at least one route")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.admin_token_hash", "")
	v.SetDefault("server.max_message_bytes", 10<<20)
	v.SetDefault("server.push_rate_limit", 120)

	// Database defaults
	v.SetDefault("database.driver", sharedConfig.DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "helpdesk")
	v.SetDefault("database.password", "helpdesk")
	v.SetDefault("database.database", "helpdesk")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "helpdesk.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// SMTP defaults
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 1025)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_address", "support@helpdesk.local")
	v.SetDefault("smtp.from_name", "Support")
	v.SetDefault("smtp.message_id_domain", "helpdesk.local")

	// Mailbox defaults
	v.SetDefault("mailbox.source", "pop3")
	v.SetDefault("mailbox.directory", "")
	v.SetDefault("mailbox.processed_dir", "")
	v.SetDefault("mailbox.host", "")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.port", 995)
	v.SetDefault("mailbox.tls", true)
	v.SetDefault("mailbox.batch_size", 50)
	v.SetDefault("mailbox.delete_after_fetch", true)
	v.SetDefault("mailbox.dial_timeout_seconds", 30)

	// Ingestion defaults
	v.SetDefault("ingestion.workers", 4)
	v.SetDefault("ingestion.poll_interval_seconds", 10)
	v.SetDefault("ingestion.max_attempts", 3)
	v.SetDefault("ingestion.retry_base_ms", 50)
	v.SetDefault("ingestion.db_timeout_seconds", 10)
	v.SetDefault("ingestion.dedup_cache_size", 10000)
	v.SetDefault("ingestion.dedup_ttl_hours", 72)
	v.SetDefault("ingestion.max_body_bytes", 131072)
	v.SetDefault("ingestion.auto_assign", true)
	v.SetDefault("ingestion.subject_match_requires_sender", false)

	// Workflow defaults
	v.SetDefault("workflow.initial_status", "New")
	v.SetDefault("workflow.active_status", "In Progress")
	v.SetDefault("workflow.reopen_status", "Reopened")

	// Routing defaults
	v.SetDefault("routing.default_queue", "DEF")

	// Notification defaults
	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.max_attempts", 5)
	v.SetDefault("notification.initial_backoff_ms", 500)
	v.SetDefault("notification.template_dir", "")
}
