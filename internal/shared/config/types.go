package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
	// AdminToken and AdminTokenHash guard the admin API. With both empty it
	// is open.
	AdminToken      string `mapstructure:"admin_token"`
	AdminTokenHash  string `mapstructure:"admin_token_hash" validate:"omitempty,len=64,hexadecimal"`
	MaxMessageBytes int64  `mapstructure:"max_message_bytes"`
	// PushRateLimit caps POST /api/messages per client IP and minute when
	// Redis is enabled. Zero disables the limit.
	PushRateLimit int `mapstructure:"push_rate_limit"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=postgres mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the driver specific connection string.
func (d *DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	case DriverSQLite:
		return d.Path
	default:
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.Username, d.Password, d.Database, sslMode)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SMTPConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	FromAddress     string `mapstructure:"from_address" validate:"required,email"`
	FromName        string `mapstructure:"from_name"`
	MessageIDDomain string `mapstructure:"message_id_domain"`
}

// MailboxConfig describes where the poller reads mail from: a POP3 account,
// an IMAP folder or a spool directory of .eml files.
type MailboxConfig struct {
	Source           string `mapstructure:"source" validate:"oneof=pop3 imap directory"`
	Directory        string `mapstructure:"directory" validate:"required_if=Source directory"`
	ProcessedDir     string `mapstructure:"processed_dir"`
	Host             string `mapstructure:"host"`
	Folder           string `mapstructure:"folder"`
	Port             int    `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	TLS              bool   `mapstructure:"tls"`
	TLSSkipVerify    bool   `mapstructure:"tls_skip_verify"`
	BatchSize        int    `mapstructure:"batch_size" validate:"min=1"`
	DeleteAfterFetch bool   `mapstructure:"delete_after_fetch"`
	DialTimeout      int    `mapstructure:"dial_timeout_seconds"`
}

type IngestionConfig struct {
	Workers                    int   `mapstructure:"workers" validate:"min=1"`
	PollIntervalSeconds        int   `mapstructure:"poll_interval_seconds" validate:"min=1"`
	MaxAttempts                int   `mapstructure:"max_attempts" validate:"min=1"`
	RetryBaseMillis            int   `mapstructure:"retry_base_ms" validate:"min=1"`
	DBTimeoutSeconds           int   `mapstructure:"db_timeout_seconds" validate:"min=1"`
	DedupCacheSize             int   `mapstructure:"dedup_cache_size"`
	DedupTTLHours              int   `mapstructure:"dedup_ttl_hours"`
	MaxBodyBytes               int64 `mapstructure:"max_body_bytes"`
	AutoAssign                 bool  `mapstructure:"auto_assign"`
	SubjectMatchRequiresSender bool  `mapstructure:"subject_match_requires_sender"`
}

func (i *IngestionConfig) PollInterval() time.Duration {
	return time.Duration(i.PollIntervalSeconds) * time.Second
}

func (i *IngestionConfig) DBTimeout() time.Duration {
	return time.Duration(i.DBTimeoutSeconds) * time.Second
}

func (i *IngestionConfig) RetryBase() time.Duration {
	return time.Duration(i.RetryBaseMillis) * time.Millisecond
}

func (i *IngestionConfig) DedupTTL() time.Duration {
	return time.Duration(i.DedupTTLHours) * time.Hour
}

// WorkflowConfig names the statuses the ingestion workflow moves tickets into.
type WorkflowConfig struct {
	InitialStatus string `mapstructure:"initial_status" validate:"required"`
	ActiveStatus  string `mapstructure:"active_status" validate:"required"`
	ReopenStatus  string `mapstructure:"reopen_status" validate:"required"`
}

type RouteConfig struct {
	Pattern string `mapstructure:"pattern" validate:"required"`
	Queue   string `mapstructure:"queue" validate:"required"`
}

type RoutingConfig struct {
	DefaultQueue string        `mapstructure:"default_queue"`
	Routes       []RouteConfig `mapstructure:"routes" validate:"dive"`
}

type NotificationConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	MaxAttempts         int  `mapstructure:"max_attempts" validate:"min=1"`
	InitialBackoffMilli int  `mapstructure:"initial_backoff_ms" validate:"min=1"`
	// TemplateDir holds <kind>.md files overriding the built-in templates.
	TemplateDir string `mapstructure:"template_dir"`
}

func (n *NotificationConfig) InitialBackoff() time.Duration {
	return time.Duration(n.InitialBackoffMilli) * time.Millisecond
}
