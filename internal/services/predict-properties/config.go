// internal/services/predict-properties/config.go
package predictproperties

import "alloy-predictor/internal/common/config"

type Config struct {
	// ServicePreflight registers OPTIONS /predict on this handler.
	ServicePreflight bool
	AppVersion       string
}

func DefaultConfig() *Config {
	return &Config{}
}

// ConfigFromApp derives the handler config from the loaded application config.
func ConfigFromApp(cfg *config.Config) *Config {
	return &Config{
		ServicePreflight: cfg.Server.CORS.Preflight == config.PreflightService,
		AppVersion:       cfg.App.Version,
	}
}
