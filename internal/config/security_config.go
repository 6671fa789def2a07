package config

import (
	"path/filepath"
	"time"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetSessionKeyFile() string
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetMaxSessionAge() time.Duration {
	d, err := time.ParseDuration(GetEnv("SESSION_MAX_AGE", "12h"))
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// GetSessionKeyFile is the secretbox key used to seal persisted credentials.
func (Security) GetSessionKeyFile() string {
	return GetEnv("SESSION_KEY_FILE", filepath.Join(EnvVars{}.GetDataFolder(), "session.key"))
}

func (Security) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() != "DEV"
}
