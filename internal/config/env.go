package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, as in
// FUNDWATCH_DATABASE_DSN.
const EnvPrefix = "FUNDWATCH"

// dotenvFiles are loaded before the environment is read. Variables already
// set in the process environment win.
var dotenvFiles = []string{".env"}

func parseEnv(config *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return envconfig.Process(EnvPrefix, config)
}
