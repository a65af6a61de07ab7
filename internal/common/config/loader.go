// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadOptions selects the config file and profile. Zero values mean
// "discover": configs/config.yaml plus APP_PROFILE or app.profile.
type LoadOptions struct {
	ConfigFile string
	Profile    string
}

// envBindings maps config keys to the environment variables the service
// has always honored.
var envBindings = map[string]string{
	"app.profile":                  "APP_PROFILE",
	"server.host":                  "HOST",
	"server.port":                  "PORT",
	"server.frontend_url":          "FRONTEND_URL",
	"logging.level":                "LOG_LEVEL",
	"models.yield_strength_path":   "MODEL_YIELD_PATH",
	"models.tensile_strength_path": "MODEL_TENSILE_PATH",
	"models.elongation_path":       "MODEL_ELONGATION_PATH",
}

// Sources records where configuration came from, for the startup log.
type Sources struct {
	EnvFile     string
	ConfigFiles []string
}

func Load(opts LoadOptions) (*Config, *Sources, error) {
	sources := &Sources{EnvFile: loadEnvFile()}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("metrics.enabled", true)

	// Nested keys such as server.read_timeout map to SERVER_READ_TIMEOUT.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	// 1. Base config
	if err := readBaseConfig(v, opts.ConfigFile); err != nil {
		return nil, nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		sources.ConfigFiles = append(sources.ConfigFiles, used)
	}

	// 2. Profile overlay
	profile := opts.Profile
	if profile == "" {
		profile = v.GetString("app.profile")
	}
	if profile == "" {
		profile = ProfileDevelopment
	}
	v.Set("app.profile", profile)

	overlay, err := mergeProfileConfig(v, opts.ConfigFile, profile)
	if err != nil {
		return nil, nil, err
	}
	if overlay != "" {
		sources.ConfigFiles = append(sources.ConfigFiles, overlay)
	}

	// 3. ${VAR} placeholders
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, sources, nil
}

func readBaseConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading base config: %w", err)
		}
	}
	return nil
}

// mergeProfileConfig merges config.<profile>.yaml next to the base file,
// if one exists, and returns its path.
func mergeProfileConfig(v *viper.Viper, basePath, profile string) (string, error) {
	name := "config." + profile

	if basePath == "" {
		basePath = v.ConfigFileUsed()
	}
	if basePath == "" {
		v.SetConfigName(name)
		if err := v.MergeInConfig(); err != nil {
			return "", nil
		}
		return v.ConfigFileUsed(), nil
	}

	overlay := filepath.Join(filepath.Dir(basePath), name+filepath.Ext(basePath))
	if _, err := os.Stat(overlay); err != nil {
		return "", nil
	}
	v.SetConfigFile(overlay)
	if err := v.MergeInConfig(); err != nil {
		return "", fmt.Errorf("failed to merge profile config %s: %w", overlay, err)
	}
	return overlay, nil
}

// loadEnvFile loads the first .env found and returns its path.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills unset fields, using the active profile where the
// two deployments differ.
func applyDefaults(cfg *Config) {
	production := cfg.IsProduction()

	if cfg.App.Name == "" {
		cfg.App.Name = "alloy-predictor"
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
		if production {
			cfg.Server.Host = "0.0.0.0"
		}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = "http://localhost:3000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15000
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	// CORS defaults
	cors := &cfg.Server.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
		if production {
			cors.AllowedOrigins = []string{cfg.Server.FrontendURL}
		}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cors.Preflight == "" {
		cors.Preflight = PreflightCORS
		if production {
			cors.Preflight = PreflightService
		}
	}

	// Model artifact defaults
	if cfg.Models.YieldStrengthPath == "" {
		cfg.Models.YieldStrengthPath = "yield_strength_regressor.json"
	}
	if cfg.Models.TensileStrengthPath == "" {
		cfg.Models.TensileStrengthPath = "tensile_strength_regressor.json"
	}
	if cfg.Models.ElongationPath == "" {
		cfg.Models.ElongationPath = "elongation_classifier.json"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
		if production {
			cfg.Logging.Level = "info"
		}
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
		if production {
			cfg.Logging.Format = "json"
		}
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.App.Profile {
	case ProfileDevelopment, ProfileProduction:
	default:
		return fmt.Errorf("app.profile must be %q or %q, got %q", ProfileDevelopment, ProfileProduction, cfg.App.Profile)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}

	switch cfg.Server.CORS.Preflight {
	case PreflightCORS, PreflightService:
	default:
		return fmt.Errorf("server.cors.preflight must be %q or %q", PreflightCORS, PreflightService)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level is invalid: %q", cfg.Logging.Level)
	}

	if cfg.Tracing.Enabled && cfg.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint is required when tracing is enabled")
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}

	return nil
}
