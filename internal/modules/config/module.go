package config

import "go.uber.org/fx"

// Module конфиг читается один раз в main и кладётся в граф как есть.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
