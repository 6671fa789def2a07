// Package e2etests starts end-to-end test runs on the backend and reads their results.
package e2etests

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
)

const (
	endpointPrefix = "/api/v1/e2e-tests/"
	DefaultLimit   = 50
)

const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusRunning = "running"
	StatusPending = "pending"
	StatusSkipped = "skipped"
)

type Result struct {
	ID         apiclient.ID   `json:"id"`
	TestName   string         `json:"test_name"`
	Status     string         `json:"status"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	StartedAt  apiclient.Time `json:"started_at"`
}

func (r Result) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

func (r Result) InFlight() bool {
	return r.Status == StatusRunning || r.Status == StatusPending
}

type Results struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// InFlight is true while any result has not finished.
func (r *Results) InFlight() bool {
	for _, res := range r.Results {
		if res.InFlight() {
			return true
		}
	}
	return false
}

type Stats struct {
	TotalRuns int            `json:"total_runs"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	PassRate  float64        `json:"pass_rate"`
	IsRunning bool           `json:"is_running"`
	Running   int            `json:"running"`
	LastRunAt apiclient.Time `json:"last_run_at"`
}

// InFlight is true while the backend reports a run in progress.
func (s *Stats) InFlight() bool {
	return s != nil && (s.IsRunning || s.Running > 0)
}

type RunResponse struct {
	RunID   apiclient.ID `json:"run_id"`
	Status  string       `json:"status"`
	Message string       `json:"message"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) Results(ctx context.Context, limit int) (*Results, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	r, err := apiclient.Get[Results](ctx, s.api, endpointPrefix+"results", q)
	if err != nil {
		return nil, errors.Wrapf(err, "[e2etests Results]")
	}
	if r.Results == nil {
		r.Results = []Result{}
	}
	return &r, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := apiclient.Get[Stats](ctx, s.api, endpointPrefix+"stats", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[e2etests Stats]")
	}
	return &st, nil
}

func (s *Service) Run(ctx context.Context) (*RunResponse, error) {
	r, err := apiclient.Post[RunResponse](ctx, s.api, endpointPrefix+"run", apiclient.Object{})
	if err != nil {
		return nil, errors.Wrapf(err, "[e2etests Run]")
	}
	return &r, nil
}

func (s *Service) Clear(ctx context.Context) (*ClearResponse, error) {
	r, err := apiclient.Delete[ClearResponse](ctx, s.api, endpointPrefix+"clear")
	if err != nil {
		return nil, errors.Wrapf(err, "[e2etests Clear]")
	}
	return &r, nil
}

// Snapshot fetches results and stats together and reports whether work is in flight.
func (s *Service) Snapshot(ctx context.Context, limit int) (*Results, *Stats, bool, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	results, err := s.Results(ctx, limit)
	if err != nil {
		return nil, stats, stats.InFlight(), err
	}
	return results, stats, stats.InFlight() || results.InFlight(), nil
}
