package config

import (
	"strings"
	"time"
)

const (
	apiURLEnvVar     = "CLIENTHUNT_API_URL"
	apiTimeoutEnvVar = "CLIENTHUNT_API_TIMEOUT"
)

// APIConfig describes how the backend REST API is reached.
type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetCSRFCookieName() string
	GetCSRFHeaderName() string
	GetCSRFTokenEndpoint() string
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend base URL without a trailing slash.
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiURLEnvVar, "http://localhost:8000"), "/")
}

// GetAPITimeout returns zero (no client timeout) unless CLIENTHUNT_API_TIMEOUT is a valid duration.
func (API) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(apiTimeoutEnvVar, "0s"))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (API) GetCSRFCookieName() string {
	return GetEnv("CSRF_COOKIE_NAME", "csrf_token")
}

func (API) GetCSRFHeaderName() string {
	return GetEnv("CSRF_HEADER_NAME", "X-CSRF-Token")
}

func (API) GetCSRFTokenEndpoint() string {
	return GetEnv("CSRF_TOKEN_ENDPOINT", "/api/v1/csrf-token")
}
