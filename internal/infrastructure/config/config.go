package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config.toml
const EnvPrefix = "TC"

// dotEnvPaths are tried in order; the first readable file wins
var dotEnvPaths = []string{".env", "./backend/.env", "/app/.env"}

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Bulk      BulkConfig
	Jobs      JobsConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// Swagger UI exposure; an empty allow list admits every client
	SwaggerEnabled    bool
	SwaggerAllowedIPs []string
}

// StorageConfig holds blob store settings
type StorageConfig struct {
	Backend      string // s3, memory
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

// BulkConfig holds bulk action runner settings
type BulkConfig struct {
	MaxResults            int // 0 = unbounded
	SnapshotBucket        string
	SnapshotPrefix        string
	TestEnvironmentBucket string
	TestEnvironmentPrefix string
	IdempotencyTTL        time.Duration
}

// JobsConfig holds job dispatch settings
type JobsConfig struct {
	Backend       string // memory, redis
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	QueueName     string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool   // Export zap logs through the OTLP log bridge
	ProfilingEnabled  bool   // Continuous profiling with Pyroscope
	ProfilingServer   string // Pyroscope server address
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
}

// Load loads configuration from config.toml in the usual locations.
// Priority (highest to lowest):
// 1. Environment variables with TC_ prefix (e.g., TC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadDotEnv exports the variables of the first .env file found into the
// process environment without overriding variables already set. It returns
// the loaded path, or "" when no file was found.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = dotEnvPaths
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFrom loads configuration from configFile, or searches the usual
// locations when configFile is empty.
func LoadFrom(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		LoadDotEnv()
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./backend")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:    v.GetBool("http.swagger_enabled"),
			SwaggerAllowedIPs: v.GetStringSlice("http.swagger_allowed_ips"),
		},
		Storage: StorageConfig{
			Backend:      v.GetString("storage.backend"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		Bulk: BulkConfig{
			MaxResults:            v.GetInt("bulk.max_results"),
			SnapshotBucket:        v.GetString("bulk.snapshot_bucket"),
			SnapshotPrefix:        v.GetString("bulk.snapshot_prefix"),
			TestEnvironmentBucket: v.GetString("bulk.test_environment_bucket"),
			TestEnvironmentPrefix: v.GetString("bulk.test_environment_prefix"),
			IdempotencyTTL:        v.GetDuration("bulk.idempotency_ttl"),
		},
		Jobs: JobsConfig{
			Backend:       v.GetString("jobs.backend"),
			Workers:       v.GetInt("jobs.workers"),
			QueueSize:     v.GetInt("jobs.queue_size"),
			JobTimeout:    v.GetDuration("jobs.job_timeout"),
			RetryAttempts: v.GetInt("jobs.retry_attempts"),
			RetryDelay:    v.GetDuration("jobs.retry_delay"),
			QueueName:     v.GetString("jobs.queue_name"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingServer:   v.GetString("telemetry.profiling_server"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bulk-runner"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "tradecomply"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// No CORS origin fallback: cross-origin requests stay disabled until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-User-ID"}
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Bulk.SnapshotBucket == "" {
		cfg.Bulk.SnapshotBucket = "bulk-snapshots"
	}
	if cfg.Bulk.SnapshotPrefix == "" {
		cfg.Bulk.SnapshotPrefix = "bulk"
	}
	if cfg.Bulk.TestEnvironmentBucket == "" {
		cfg.Bulk.TestEnvironmentBucket = "integration-test"
	}
	if cfg.Bulk.IdempotencyTTL == 0 {
		cfg.Bulk.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Jobs.Backend == "" {
		cfg.Jobs.Backend = "memory"
	}
	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.QueueSize == 0 {
		cfg.Jobs.QueueSize = 100
	}
	if cfg.Jobs.JobTimeout == 0 {
		cfg.Jobs.JobTimeout = 30 * time.Minute
	}
	if cfg.Jobs.RetryAttempts == 0 {
		cfg.Jobs.RetryAttempts = 3
	}
	if cfg.Jobs.RetryDelay == 0 {
		cfg.Jobs.RetryDelay = 30 * time.Second
	}
	if cfg.Jobs.QueueName == "" {
		cfg.Jobs.QueueName = "bulk:jobs"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Bulk.MaxResults < 0 {
		return fmt.Errorf("bulk.max_results cannot be negative")
	}
	switch c.Storage.Backend {
	case "memory":
	case "s3":
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be 's3' or 'memory', got %q", c.Storage.Backend)
	}
	switch c.Jobs.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("jobs.backend must be 'memory' or 'redis', got %q", c.Jobs.Backend)
	}
	if c.Jobs.Workers < 0 || c.Jobs.QueueSize < 0 || c.Jobs.RetryAttempts < 0 {
		return fmt.Errorf("jobs.workers, jobs.queue_size and jobs.retry_attempts cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// A memory blob store loses retained work orders on restart
		if c.Storage.Backend == "memory" {
			return fmt.Errorf("storage.backend cannot be 'memory' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServer == "" {
		return fmt.Errorf("telemetry.profiling_server is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
