package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays environment variables named by the env tags of Config.
// Unset variables leave the current value alone; a malformed value panics.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
