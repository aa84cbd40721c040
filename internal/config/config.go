package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Export     ExportConfig     `yaml:"export"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Redis      RedisConfig      `yaml:"redis"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         string   `yaml:"port"`
	Mode         string   `yaml:"mode"`          // debug, release, test
	AllowOrigins []string `yaml:"allow_origins"` // empty allows any origin
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"` // log every SQL statement
}

// StorageConfig describes where original media files live.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // local, s3
	Root          string `yaml:"root"`   // local disk root
	PublicBaseURL string `yaml:"public_base_url"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	UseSSL        bool   `yaml:"use_ssl"`
	CacheDir      string `yaml:"cache_dir"` // download cache for s3 objects
}

type ExportConfig struct {
	TempDir        string  `yaml:"temp_dir"`
	OutputDir      string  `yaml:"output_dir"` // finished queued exports
	RetentionHours int     `yaml:"retention_hours"`
	SweepCron      string  `yaml:"sweep_cron"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	Concurrency    int     `yaml:"concurrency"` // async worker goroutines
}

// MonitoringConfig is informational; the stale threshold is a constant of the
// aggregator and is echoed here for operators.
type MonitoringConfig struct {
	StaleAfterDays int `yaml:"stale_after_days"`
}

// RedisConfig for optional async export queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyFallbacks()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	tmp := filepath.Join(os.TempDir(), "guestflow")
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "guestflow.db",
		},
		Storage: StorageConfig{
			Driver:        "local",
			Root:          "storage/media",
			PublicBaseURL: "http://localhost:8080/storage",
			Region:        "us-east-1",
			CacheDir:      filepath.Join(tmp, "media-cache"),
		},
		Export: ExportConfig{
			TempDir:        filepath.Join(tmp, "exports-tmp"),
			OutputDir:      filepath.Join(tmp, "exports"),
			RetentionHours: 24,
			SweepCron:      "@hourly",
			RateLimitRPS:   1,
			RateLimitBurst: 3,
			Concurrency:    2,
		},
		Monitoring: MonitoringConfig{
			StaleAfterDays: 5,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		LogLevel: "info",
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.Server.AllowOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.AllowOrigins = append(c.Server.AllowOrigins, origin)
			}
		}
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if root := os.Getenv("STORAGE_ROOT"); root != "" {
		c.Storage.Root = root
	}
	if base := os.Getenv("STORAGE_PUBLIC_BASE_URL"); base != "" {
		c.Storage.PublicBaseURL = base
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		c.Storage.AccessKey = key
	}
	if secret := os.Getenv("S3_SECRET_KEY"); secret != "" {
		c.Storage.SecretKey = secret
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if useSSL := os.Getenv("S3_USE_SSL"); useSSL != "" {
		c.Storage.UseSSL, _ = strconv.ParseBool(useSSL)
	}
	if dir := os.Getenv("EXPORT_TEMP_DIR"); dir != "" {
		c.Export.TempDir = dir
	}
	if dir := os.Getenv("EXPORT_OUTPUT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

func (c *Config) applyFallbacks() {
	if c.Export.RetentionHours <= 0 {
		c.Export.RetentionHours = 24
	}
	if c.Export.SweepCron == "" {
		c.Export.SweepCron = "@hourly"
	}
	if c.Export.RateLimitRPS <= 0 {
		c.Export.RateLimitRPS = 1
	}
	if c.Export.RateLimitBurst <= 0 {
		c.Export.RateLimitBurst = 3
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = 2
	}
	if c.Export.TempDir == "" {
		c.Export.TempDir = os.TempDir()
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
