package users

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/paging"
)

const (
	adminUsersEndpoint = "/api/v1/admin/users"
	meEndpoint         = "/api/v1/users/me"
)

var _ Repo = (*Service)(nil)

// ListParams selects one page of the user list. Page is 1-based.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Status Status
}

// Page is one page of users plus the pagination window it belongs to.
type Page struct {
	Users  []User        `json:"users"`
	Total  int           `json:"total"`
	Window paging.Window `json:"-"`
}

// Email is an admin-authored message sent to one user.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
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
	if search := strings.TrimSpace(params.Search); search != "" {
		q.Set("search", search)
	}
	if params.Status != StatusAny {
		q.Set("status", string(params.Status))
	}

	page, err := apiclient.Get[Page](ctx, s.api, adminUsersEndpoint, q)
	if err != nil {
		return nil, errors.Wrapf(err, "[users List]")
	}
	if page.Users == nil {
		page.Users = []User{}
	}
	page.Window = paging.NewWindow(window.Page, window.Limit, page.Total)
	return &page, nil
}

// Apply runs one state change. reason is only sent for bans.
func (s *Service) Apply(ctx context.Context, id string, action Action, reason string) (*User, error) {
	if id == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[users Apply] missing user id")
	}
	if _, ok := ParseAction(string(action)); !ok {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[users Apply] unknown action %q", action)
	}

	var body any
	if action == ActionBan {
		body = map[string]string{"reason": reason}
	}
	user, err := apiclient.Post[User](ctx, s.api, userPath(id, string(action)), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[users Apply] %s %s", action, id)
	}
	return &user, nil
}

func (s *Service) Activate(ctx context.Context, id string) (*User, error) {
	return s.Apply(ctx, id, ActionActivate, "")
}

func (s *Service) Deactivate(ctx context.Context, id string) (*User, error) {
	return s.Apply(ctx, id, ActionDeactivate, "")
}

func (s *Service) Ban(ctx context.Context, id, reason string) (*User, error) {
	return s.Apply(ctx, id, ActionBan, reason)
}

func (s *Service) Unban(ctx context.Context, id string) (*User, error) {
	return s.Apply(ctx, id, ActionUnban, "")
}

func (s *Service) VerifyEmail(ctx context.Context, id string) (*User, error) {
	return s.Apply(ctx, id, ActionVerifyEmail, "")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[users Delete] missing user id")
	}
	if _, err := apiclient.Delete[apiclient.Object](ctx, s.api, userPath(id, "")); err != nil {
		return errors.Wrapf(err, "[users Delete] %s", id)
	}
	return nil
}

func (s *Service) SendEmail(ctx context.Context, id string, email Email) error {
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Body) == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[users SendEmail] subject and body are required")
	}
	if _, err := apiclient.Post[apiclient.Object](ctx, s.api, userPath(id, "send-email"), email); err != nil {
		return errors.Wrapf(err, "[users SendEmail] %s", id)
	}
	return nil
}

// Me returns the account the current credentials belong to.
func (s *Service) Me(ctx context.Context) (*User, error) {
	user, err := apiclient.Get[User](ctx, s.api, meEndpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "[users Me]")
	}
	return &user, nil
}

func userPath(id, suffix string) string {
	p := adminUsersEndpoint + "/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}
