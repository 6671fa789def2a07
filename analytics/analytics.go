// Package analytics reads the aggregate figures shown on the dashboard.
package analytics

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
)

const (
	endpointPrefix = "/api/v1/admin/analytics/"
	DefaultDays    = 30
	MaxDays        = 365
)

type Overview struct {
	TotalUsers          int     `json:"total_users"`
	ActiveUsers         int     `json:"active_users"`
	NewUsersToday       int     `json:"new_users_today"`
	TotalRevenue        float64 `json:"total_revenue"`
	MRR                 float64 `json:"mrr"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	ChurnRate           float64 `json:"churn_rate"`
}

type RevenuePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type Revenue struct {
	Days     int            `json:"days"`
	Total    float64        `json:"total"`
	Currency string         `json:"currency"`
	Data     []RevenuePoint `json:"data"`
}

type SignupPoint struct {
	Date    string `json:"date"`
	Signups int    `json:"signups"`
}

type UserGrowth struct {
	Days         int           `json:"days"`
	TotalSignups int           `json:"total_signups"`
	Data         []SignupPoint `json:"data"`
}

type SubscriptionBreakdown struct {
	Total    int            `json:"total"`
	ByTier   map[string]int `json:"by_tier"`
	ByStatus map[string]int `json:"by_status"`
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	o, err := apiclient.Get[Overview](ctx, s.api, endpointPrefix+"overview", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[analytics Overview]")
	}
	return &o, nil
}

func (s *Service) Revenue(ctx context.Context, days int) (*Revenue, error) {
	r, err := apiclient.Get[Revenue](ctx, s.api, endpointPrefix+"revenue", daysQuery(days))
	if err != nil {
		return nil, errors.Wrapf(err, "[analytics Revenue]")
	}
	return &r, nil
}

func (s *Service) Users(ctx context.Context, days int) (*UserGrowth, error) {
	g, err := apiclient.Get[UserGrowth](ctx, s.api, endpointPrefix+"users", daysQuery(days))
	if err != nil {
		return nil, errors.Wrapf(err, "[analytics Users]")
	}
	return &g, nil
}

func (s *Service) Subscriptions(ctx context.Context) (*SubscriptionBreakdown, error) {
	b, err := apiclient.Get[SubscriptionBreakdown](ctx, s.api, endpointPrefix+"subscriptions", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[analytics Subscriptions]")
	}
	return &b, nil
}

// ClampDays keeps a requested window within what the backend serves.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

func daysQuery(days int) url.Values {
	return url.Values{"days": []string{strconv.Itoa(ClampDays(days))}}
}

// Peak returns the largest amount in the series, 0 when empty.
func (r *Revenue) Peak() float64 {
	peak := 0.0
	for _, p := range r.Data {
		if p.Amount > peak {
			peak = p.Amount
		}
	}
	return peak
}
