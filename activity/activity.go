// Package activity reads the admin audit trail and the site's page visits.
package activity

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/paging"
	"github.com/jrsteele09/clienthunt-admin/internal/utils"
)

const (
	auditLogsEndpoint  = "/api/v1/admin/audit-logs"
	pageVisitsEndpoint = "/api/v1/admin/page-visits"
)

type AuditLog struct {
	ID         apiclient.ID    `json:"id"`
	AdminEmail string          `json:"admin_email"`
	Action     string          `json:"action"`
	TargetType string          `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Details    json.RawMessage `json:"details,omitempty"`
	IPAddress  string          `json:"ip_address"`
	CreatedAt  apiclient.Time  `json:"created_at"`
}

// Summary flattens Details into "k=v" pairs sorted by key. Non-object details
// are returned verbatim.
func (l AuditLog) Summary() string {
	if len(l.Details) == 0 || string(l.Details) == "null" {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(l.Details, &m); err != nil {
		return string(l.Details)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := json.Marshal(m[k])
		parts = append(parts, k+"="+strings.Trim(string(v), `"`))
	}
	return strings.Join(parts, " ")
}

type PageVisit struct {
	ID        apiclient.ID   `json:"id"`
	Path      string         `json:"path"`
	UserEmail *string        `json:"user_email"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	Referrer  string         `json:"referrer"`
	CreatedAt apiclient.Time `json:"created_at"`
}

// Visitor is the signed-in email, or "anonymous".
func (v PageVisit) Visitor() string {
	return utils.FirstNonEmpty(utils.Value(v.UserEmail), "anonymous")
}

type ListParams struct {
	Page  int
	Limit int
}

type AuditLogPage struct {
	Logs   []AuditLog    `json:"logs"`
	Total  int           `json:"total"`
	Window paging.Window `json:"-"`
}

type PageVisitPage struct {
	Visits []PageVisit   `json:"visits"`
	Total  int           `json:"total"`
	Window paging.Window `json:"-"`
}

type Service struct {
	api apiclient.Doer
}

func NewService(api apiclient.Doer) *Service {
	return &Service{api: api}
}

func (s *Service) AuditLogs(ctx context.Context, params ListParams) (*AuditLogPage, error) {
	window, q := listQuery(params)
	page, err := apiclient.Get[AuditLogPage](ctx, s.api, auditLogsEndpoint, q)
	if err != nil {
		return nil, errors.Wrapf(err, "[activity AuditLogs]")
	}
	if page.Logs == nil {
		page.Logs = []AuditLog{}
	}
	page.Window = paging.NewWindow(window.Page, window.Limit, page.Total)
	return &page, nil
}

func (s *Service) PageVisits(ctx context.Context, params ListParams) (*PageVisitPage, error) {
	window, q := listQuery(params)
	page, err := apiclient.Get[PageVisitPage](ctx, s.api, pageVisitsEndpoint, q)
	if err != nil {
		return nil, errors.Wrapf(err, "[activity PageVisits]")
	}
	if page.Visits == nil {
		page.Visits = []PageVisit{}
	}
	page.Window = paging.NewWindow(window.Page, window.Limit, page.Total)
	return &page, nil
}

func listQuery(params ListParams) (paging.Window, url.Values) {
	window := paging.NewWindow(params.Page, params.Limit, 0)
	q := url.Values{}
	q.Set("skip", strconv.Itoa(paging.Skip(window.Page, window.Limit)))
	q.Set("limit", strconv.Itoa(window.Limit))
	return window, q
}
