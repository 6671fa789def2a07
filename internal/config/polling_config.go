package config

import "time"

type PollingConfig interface {
	GetE2EPollInterval() time.Duration
	GetStatusPollInterval() time.Duration
}

type Polling struct{}

var _ PollingConfig = Polling{}

func (Polling) GetE2EPollInterval() time.Duration {
	return durationEnv("E2E_POLL_INTERVAL", 10*time.Second)
}

func (Polling) GetStatusPollInterval() time.Duration {
	return durationEnv("STATUS_POLL_INTERVAL", 30*time.Second)
}

func durationEnv(envVar string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, def.String()))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
