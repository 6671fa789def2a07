// Package system reports backend health for the status page.
package system

import (
	"context"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
)

const endpoint = "/api/v1/admin/status"

const (
	Healthy   = "healthy"
	Degraded  = "degraded"
	Unhealthy = "unhealthy"
)

type Component struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Message   string  `json:"message,omitempty"`
}

type Status struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	CheckedAt     apiclient.Time `json:"checked_at"`
	Components    []Component    `json:"components"`
}

func (s *Status) Uptime() time.Duration {
	return time.Duration(s.UptimeSeconds) * time.Second
}

// Healthy is true when the backend and every component report healthy.
func (s *Status) Healthy() bool {
	if s.Status != Healthy {
		return false
	}
	for _, c := range s.Components {
		if c.Status != Healthy {
			return false
		}
	}
	return true
}

// Unhealthy lists the components not reporting healthy.
func (s *Status) Unhealthy() []Component {
	var out []Component
	for _, c := range s.Components {
		if c.Status != Healthy {
			out = append(out, c)
		}
	}
	return out
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	st, err := apiclient.Get[Status](ctx, s.api, endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[system Status]")
	}
	return &st, nil
}
