// internal/common/config/config.go
package config

import (
	"net"
	"strconv"
	"time"
)

// Deployment profiles.
const (
	ProfileDevelopment = "development"
	ProfileProduction  = "production"
)

// Pre-flight handling modes.
const (
	// PreflightCORS lets the CORS middleware answer OPTIONS with an empty 200.
	PreflightCORS = "cors"
	// PreflightService routes OPTIONS /predict to the prediction handler.
	PreflightService = "service"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Models  ModelsConfig  `mapstructure:"models"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Profile string `mapstructure:"profile"`
}

type ServerConfig struct {
	Host            string     `mapstructure:"host"`
	Port            int        `mapstructure:"port"`
	FrontendURL     string     `mapstructure:"frontend_url"`
	CORS            CORSConfig `mapstructure:"cors"`
	ReadTimeout     int        `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int        `mapstructure:"write_timeout"`    // milliseconds
	IdleTimeout     int        `mapstructure:"idle_timeout"`     // milliseconds
	ShutdownTimeout int        `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64      `mapstructure:"max_body_bytes"`
}

// Addr returns the host:port the listener binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	Preflight      string   `mapstructure:"preflight"`
	MaxAge         int      `mapstructure:"max_age"` // seconds
}

// AllowsAnyOrigin reports whether the wildcard origin is configured.
func (c CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// ModelsConfig locates the three pre-trained artifacts.
type ModelsConfig struct {
	YieldStrengthPath   string `mapstructure:"yield_strength_path"`
	TensileStrengthPath string `mapstructure:"tensile_strength_path"`
	ElongationPath      string `mapstructure:"elongation_path"`
}

// LoggingConfig holds logging settings. Output is stdout, stderr or a file path.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.App.Profile == ProfileProduction
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
