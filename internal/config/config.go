package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Dashboard DashboardConfig
	Logger    LoggerConfig
	Tracing   TracingConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	CSVFile  string
	CacheDir string
}

// DashboardConfig tunes the aggregations and the per-browser sessions. It
// can be overridden from the dashboard section of CONFIG_FILE.
type DashboardConfig struct {
	SpendPolicy        string        `yaml:"spend_policy"`
	SpendHigh          float64       `yaml:"spend_high"`
	SpendMedium        float64       `yaml:"spend_medium"`
	TopFacetValues     int           `yaml:"top_facet_values"`
	DefaultGranularity string        `yaml:"default_granularity"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	MaxSessions        int           `yaml:"max_sessions"`
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	SampleRatio float64
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
	SecureCookies   bool
}

type fileConfig struct {
	Dashboard *DashboardConfig `yaml:"dashboard"`
	Data      *struct {
		CSVFile  string `yaml:"csv_file"`
		CacheDir string `yaml:"cache_dir"`
	} `yaml:"data"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			CSVFile:  getEnvString("CSV_FILE", "data/customer_shopping_data.csv"),
			CacheDir: getEnvString("CACHE_DIR", ".cache"),
		},
		Dashboard: DashboardConfig{
			SpendPolicy:        getEnvString("DASHBOARD_SPEND_POLICY", "fixed"),
			SpendHigh:          getEnvFloat("DASHBOARD_SPEND_HIGH", 300),
			SpendMedium:        getEnvFloat("DASHBOARD_SPEND_MEDIUM", 100),
			TopFacetValues:     getEnvInt("DASHBOARD_TOP_FACET_VALUES", 5),
			DefaultGranularity: getEnvString("DASHBOARD_DEFAULT_GRANULARITY", "daily"),
			SessionTTL:         getEnvDuration("DASHBOARD_SESSION_TTL", 30*time.Minute),
			MaxSessions:        getEnvInt("DASHBOARD_MAX_SESSIONS", 10000),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", true),
			ServiceName: getEnvString("TRACING_SERVICE_NAME", "retail-dashboard"),
			SampleRatio: getEnvFloat("TRACING_SAMPLE_RATIO", 1),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			SecureCookies:   getEnvBool("SECURITY_SECURE_COOKIES", false),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyFile overlays the YAML file at path onto cfg. Only the keys present
// in the file replace the environment values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.applyYAML(data)
}

func (c *Config) applyYAML(data []byte) error {
	file := fileConfig{Dashboard: &c.Dashboard}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if file.Data != nil {
		if file.Data.CSVFile != "" {
			c.Data.CSVFile = file.Data.CSVFile
		}
		if file.Data.CacheDir != "" {
			c.Data.CacheDir = file.Data.CacheDir
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	validPolicies := []string{"fixed", "tertile"}
	if !slices.Contains(validPolicies, c.Dashboard.SpendPolicy) {
		return fmt.Errorf("invalid spend policy %q, must be one of: %s", c.Dashboard.SpendPolicy, strings.Join(validPolicies, ", "))
	}

	if c.Dashboard.SpendMedium < 0 || c.Dashboard.SpendHigh < c.Dashboard.SpendMedium {
		return fmt.Errorf("spend thresholds must satisfy 0 <= medium <= high, got medium=%v high=%v", c.Dashboard.SpendMedium, c.Dashboard.SpendHigh)
	}

	if c.Dashboard.TopFacetValues <= 0 {
		return fmt.Errorf("top facet values must be positive")
	}

	validGranularities := []string{"daily", "weekly", "monthly", "quarterly"}
	if !slices.Contains(validGranularities, c.Dashboard.DefaultGranularity) {
		return fmt.Errorf("invalid default granularity %q, must be one of: %s", c.Dashboard.DefaultGranularity, strings.Join(validGranularities, ", "))
	}

	if c.Dashboard.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Dashboard.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio must be between 0 and 1")
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
