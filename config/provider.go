package config

import "go.uber.org/fx"

// NewProvider supplies the engine configuration to the fx graph. A non-nil
// config is used as given; otherwise configuration is loaded from the
// environment and .env, surfacing load failures as fx errors.
func NewProvider(customConfig *Config) fx.Option {
	if customConfig != nil {
		return fx.Provide(func() *Config {
			return customConfig
		})
	}

	return fx.Provide(func() (*Config, error) {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}
