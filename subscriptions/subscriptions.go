// Package subscriptions lists customer billing subscriptions.
package subscriptions

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/paging"
)

const endpoint = "/api/v1/admin/subscriptions"

type Subscription struct {
	ID               apiclient.ID   `json:"id"`
	UserEmail        string         `json:"user_email"`
	Tier             string         `json:"tier"`
	Status           string         `json:"status"`
	Amount           float64        `json:"amount"`
	Currency         string         `json:"currency"`
	CurrentPeriodEnd apiclient.Time `json:"current_period_end"`
	CreatedAt        apiclient.Time `json:"created_at"`
}

// Price renders the amount with its currency code.
func (s Subscription) Price() string {
	return strconv.FormatFloat(s.Amount, 'f', 2, 64) + " " + currency(s.Currency)
}

func currency(c string) string {
	if c == "" {
		return "USD"
	}
	return strings.ToUpper(c)
}

type ListParams struct {
	Page   int
	Limit  int
	Status string
}

type Page struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Total         int            `json:"total"`
	Window        paging.Window  `json:"-"`
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	window := paging.NewWindow(params.Page, params.Limit, 0)
	q := url.Values{}
	q.Set("skip", strconv.Itoa(paging.Skip(window.Page, window.Limit)))
	q.Set("limit", strconv.Itoa(window.Limit))
	if params.Status != "" {
		q.Set("status", params.Status)
	}

	page, err := apiclient.Get[Page](ctx, s.api, endpoint, q)
	if err != nil {
		return nil, errors.Wrapf(err, "[subscriptions List]")
	}
	if page.Subscriptions == nil {
		page.Subscriptions = []Subscription{}
	}
	page.Window = paging.NewWindow(window.Page, window.Limit, page.Total)
	return &page, nil
}
