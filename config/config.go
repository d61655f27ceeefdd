package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Chatbot    ChatbotConfig    `yaml:"chatbot"`
	Push       PushConfig       `yaml:"push"`
	Backup     BackupConfig     `yaml:"backup"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RequestIPHeader string   `yaml:"request_ip_header"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the Redis connection used for session storage.
type RedisConfig struct {
	Addr              string        `yaml:"addr"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
	SessionTTL        time.Duration `yaml:"-"`
}

// WorkflowConfig holds the tunable business policy for the transaction workflow.
type WorkflowConfig struct {
	DefaultLoanDays int     `yaml:"default_loan_days"`
	LateFeePerDay   float64 `yaml:"late_fee_per_day"`
}

// ChatbotConfig holds the upstream NLP/SQL service configuration.
type ChatbotConfig struct {
	ServiceURL     string        `yaml:"service_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	JobWorkers     int           `yaml:"job_workers"`
	JobTTLMinutes  int           `yaml:"job_ttl_minutes"`
	FallbackTTL    time.Duration `yaml:"-"`
}

// BackupConfig holds the database backup settings.
type BackupConfig struct {
	Dir         string `yaml:"dir"`
	PGDumpPath  string `yaml:"pg_dump_path"`
	PSQLPath    string `yaml:"psql_path"`
	KeepLatestN int    `yaml:"keep_latest_n"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file, so the file can be committed without credentials.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AI_SERVICE_URL"); v != "" {
		cfg.Chatbot.ServiceURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Redis.SessionTTLMinutes <= 0 {
		cfg.Redis.SessionTTLMinutes = 12 * 60
	}
	cfg.Redis.SessionTTL = time.Duration(cfg.Redis.SessionTTLMinutes) * time.Minute

	if cfg.Workflow.DefaultLoanDays <= 0 {
		cfg.Workflow.DefaultLoanDays = 14
	}
	if cfg.Workflow.LateFeePerDay <= 0 {
		cfg.Workflow.LateFeePerDay = 1.0
	}

	if cfg.Chatbot.TimeoutSeconds <= 0 {
		cfg.Chatbot.TimeoutSeconds = 60
	}
	cfg.Chatbot.Timeout = time.Duration(cfg.Chatbot.TimeoutSeconds) * time.Second
	if cfg.Chatbot.JobWorkers <= 0 {
		cfg.Chatbot.JobWorkers = 2
	}
	if cfg.Chatbot.JobTTLMinutes <= 0 {
		cfg.Chatbot.JobTTLMinutes = 30
	}
	cfg.Chatbot.FallbackTTL = 10 * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = "./backups"
	}
	if cfg.Backup.PGDumpPath == "" {
		cfg.Backup.PGDumpPath = "pg_dump"
	}
	if cfg.Backup.PSQLPath == "" {
		cfg.Backup.PSQLPath = "psql"
	}
	if cfg.Backup.KeepLatestN <= 0 {
		cfg.Backup.KeepLatestN = 10
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
