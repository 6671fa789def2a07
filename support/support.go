// Package support reads and answers customer support threads.
package support

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/paging"
)

const threadsEndpoint = "/api/v1/admin/support/threads"

const (
	StatusOpen     = "open"
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// Statuses lists the thread states an admin may set.
var Statuses = []string{StatusOpen, StatusPending, StatusResolved, StatusClosed}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

type Message struct {
	ID        apiclient.ID   `json:"id"`
	Author    string         `json:"author"`
	IsAdmin   bool           `json:"is_admin"`
	Content   string         `json:"content"`
	CreatedAt apiclient.Time `json:"created_at"`
}

type Thread struct {
	ID           apiclient.ID   `json:"id"`
	Subject      string         `json:"subject"`
	Status       string         `json:"status"`
	UserEmail    string         `json:"user_email"`
	MessageCount int            `json:"message_count"`
	CreatedAt    apiclient.Time `json:"created_at"`
	UpdatedAt    apiclient.Time `json:"updated_at"`
	Messages     []Message      `json:"messages,omitempty"`
}

type ListParams struct {
	Page   int
	Limit  int
	Status string
}

type Page struct {
	Threads []Thread      `json:"threads"`
	Total   int           `json:"total"`
	Window  paging.Window `json:"-"`
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) Threads(ctx context.Context, params ListParams) (*Page, error) {
	window := paging.NewWindow(params.Page, params.Limit, 0)
	q := url.Values{}
	q.Set("skip", strconv.Itoa(paging.Skip(window.Page, window.Limit)))
	q.Set("limit", strconv.Itoa(window.Limit))
	if params.Status != "" {
		q.Set("status", params.Status)
	}

	page, err := apiclient.Get[Page](ctx, s.api, threadsEndpoint, q)
	if err != nil {
		return nil, errors.Wrapf(err, "[support Threads]")
	}
	if page.Threads == nil {
		page.Threads = []Thread{}
	}
	page.Window = paging.NewWindow(window.Page, window.Limit, page.Total)
	return &page, nil
}

func (s *Service) Thread(ctx context.Context, id string) (*Thread, error) {
	if id == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[support Thread] missing thread id")
	}
	t, err := apiclient.Get[Thread](ctx, s.api, threadPath(id, ""), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[support Thread] %s", id)
	}
	return &t, nil
}

// Reply posts content, written in Markdown, as an admin message.
func (s *Service) Reply(ctx context.Context, id, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[support Reply] empty reply")
	}
	m, err := apiclient.Post[Message](ctx, s.api, threadPath(id, "messages"), map[string]string{"content": content})
	if err != nil {
		return nil, errors.Wrapf(err, "[support Reply] %s", id)
	}
	return &m, nil
}

func (s *Service) SetStatus(ctx context.Context, id, status string) (*Thread, error) {
	if !ValidStatus(status) {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[support SetStatus] unknown status %q", status)
	}
	t, err := apiclient.Put[Thread](ctx, s.api, threadPath(id, "status"), map[string]string{"status": status})
	if err != nil {
		return nil, errors.Wrapf(err, "[support SetStatus] %s", id)
	}
	return &t, nil
}

func threadPath(id, suffix string) string {
	p := threadsEndpoint + "/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}
