package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SecurityConfig
	PollingConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	API
	Security
	Polling
}

func New() Config {
	return mainConfig{}
}

// LoadDotEnv loads variables from the given .env files (default ".env") into the
// process environment. Variables that are already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
