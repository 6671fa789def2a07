package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/clienthunt-admin/activity"
	"github.com/jrsteele09/clienthunt-admin/analytics"
	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/e2etests"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/paging"
	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/jrsteele09/clienthunt-admin/notify"
	"github.com/jrsteele09/clienthunt-admin/subscriptions"
	"github.com/jrsteele09/clienthunt-admin/support"
	"github.com/jrsteele09/clienthunt-admin/system"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// adminPageData is what layout.html receives. Data is the page-specific view.
type adminPageData struct {
	AppName        string
	Title          string
	Active         string
	User           *users.User
	FormToken      string
	Toasts         []notify.Toast
	Error          string
	RefreshSeconds int
	Data           any
}

// pager carries the prev/next links for a paginated table.
type pager struct {
	paging.Window
	PrevURL string
	NextURL string
}

func newPager(r *http.Request, w paging.Window) pager {
	link := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		return r.URL.Path + "?" + q.Encode()
	}
	p := pager{Window: w}
	if w.HasPrev() {
		p.PrevURL = link(w.Prev())
	}
	if w.HasNext() {
		p.NextURL = link(w.Next())
	}
	return p
}

// renderAdminPage renders a page with the admin layout. A non-nil pageErr is
// shown inline; the rest of the page still renders with whatever loaded.
func (s *Server) renderAdminPage(w http.ResponseWriter, r *http.Request, active, title, page string, data any, pageErr error, refresh time.Duration) {
	sess, ok := SessionFromRequest(r)
	if !ok {
		redirectSuccess(w, r, RouteLogin)
		return
	}
	state := sess.Auth.State()

	pd := adminPageData{
		AppName:        s.config.GetAppName(),
		Title:          title,
		Active:         active,
		User:           state.User,
		FormToken:      sess.FormToken,
		Toasts:         sess.Inbox.Drain(),
		Error:          r.URL.Query().Get("error"),
		RefreshSeconds: int(refresh.Seconds()),
		Data:           data,
	}
	if pageErr != nil {
		log.Warn().Err(pageErr).Str("page", active).Msg("admin page loaded with errors")
		pd.Error = userMessage(pageErr)
	}
	s.renderPage(w, page, pd)
}

// userMessage turns an error into something fit for an admin to read.
func userMessage(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Detail
	case errors.Is(err, errors.ErrTransport):
		return "Could not reach the ClientHunt API. Please try again."
	case errors.Is(err, errors.ErrInvalidRequest):
		return "The request was invalid. Please check the form and try again."
	}
	return "Something went wrong. Please try again."
}

func queryInt(r *http.Request, key string, def int) int {
	return utils.IntOrDefault(r.URL.Query().Get(key), def)
}

type dashboardView struct {
	Overview *analytics.Overview
	Status   *system.Status
	E2E      *e2etests.Stats
}

// AdminDashboardHandler renders the overview cards. The three backend calls run
// in parallel and each card loads on its own, so one failure leaves the others intact.
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		view := dashboardView{}

		var g errgroup.Group
		ctx := r.Context()
		g.Go(func() error {
			ov, err := analytics.NewService(sess.Client).Overview(ctx)
			view.Overview = ov
			return err
		})
		g.Go(func() error {
			st, err := system.NewService(sess.Client).Status(ctx)
			view.Status = st
			return err
		})
		g.Go(func() error {
			stats, err := e2etests.NewService(sess.Client).Stats(ctx)
			view.E2E = stats
			return err
		})
		err := g.Wait()

		s.renderAdminPage(w, r, "dashboard", "Dashboard", "dashboard.html", view, err, 0)
	}
}

type usersView struct {
	Page     *users.Page
	Pager    pager
	Search   string
	Status   users.Status
	Statuses []users.Status
	Actions  []users.Action
	ReturnTo string
}

// AdminUsersListHandler lists users with search, status filter and pagination
func (s *Server) AdminUsersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		q := r.URL.Query()
		view := usersView{
			Search:   q.Get("search"),
			Status:   users.Status(q.Get("status")),
			Statuses: []users.Status{users.StatusActive, users.StatusInactive, users.StatusBanned},
			Actions:  users.Actions,
			ReturnTo: r.URL.RequestURI(),
		}

		page, err := users.NewService(sess.Client).List(r.Context(), users.ListParams{
			Page:   queryInt(r, "page", 1),
			Limit:  queryInt(r, "limit", paging.DefaultLimit),
			Search: view.Search,
			Status: view.Status,
		})
		if err == nil {
			view.Page = page
			view.Pager = newPager(r, page.Window)
		}
		s.renderAdminPage(w, r, "users", "Users", "users.html", view, err, 0)
	}
}

type subscriptionsView struct {
	Page     *subscriptions.Page
	Pager    pager
	Status   string
	Statuses []string
}

func (s *Server) AdminSubscriptionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		view := subscriptionsView{
			Status:   r.URL.Query().Get("status"),
			Statuses: []string{"active", "trialing", "past_due", "canceled"},
		}
		page, err := subscriptions.NewService(sess.Client).List(r.Context(), subscriptions.ListParams{
			Page:   queryInt(r, "page", 1),
			Limit:  queryInt(r, "limit", paging.DefaultLimit),
			Status: view.Status,
		})
		if err == nil {
			view.Page = page
			view.Pager = newPager(r, page.Window)
		}
		s.renderAdminPage(w, r, "subscriptions", "Subscriptions", "subscriptions.html", view, err, 0)
	}
}

type analyticsView struct {
	Days          int
	DayOptions    []int
	Overview      *analytics.Overview
	Revenue       *analytics.Revenue
	Users         *analytics.UserGrowth
	Subscriptions *analytics.SubscriptionBreakdown
	PeakSignups   float64
}

func (s *Server) AdminAnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		svc := analytics.NewService(sess.Client)
		view := analyticsView{
			Days:       analytics.ClampDays(queryInt(r, "days", analytics.DefaultDays)),
			DayOptions: []int{7, 30, 90, 365},
		}

		var g errgroup.Group
		ctx := r.Context()
		g.Go(func() (err error) {
			view.Overview, err = svc.Overview(ctx)
			return err
		})
		g.Go(func() (err error) {
			view.Revenue, err = svc.Revenue(ctx, view.Days)
			return err
		})
		g.Go(func() (err error) {
			view.Users, err = svc.Users(ctx, view.Days)
			return err
		})
		g.Go(func() (err error) {
			view.Subscriptions, err = svc.Subscriptions(ctx)
			return err
		})
		err := g.Wait()

		if view.Users != nil {
			for _, p := range view.Users.Data {
				view.PeakSignups = max(view.PeakSignups, float64(p.Signups))
			}
		}
		s.renderAdminPage(w, r, "analytics", "Analytics", "analytics.html", view, err, 0)
	}
}

type auditLogsView struct {
	Page  *activity.AuditLogPage
	Pager pager
}

func (s *Server) AdminAuditLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		view := auditLogsView{}
		page, err := activity.NewService(sess.Client).AuditLogs(r.Context(), activity.ListParams{
			Page:  queryInt(r, "page", 1),
			Limit: queryInt(r, "limit", paging.DefaultLimit),
		})
		if err == nil {
			view.Page = page
			view.Pager = newPager(r, page.Window)
		}
		s.renderAdminPage(w, r, "audit-logs", "Audit Logs", "audit_logs.html", view, err, 0)
	}
}

type pageVisitsView struct {
	Page  *activity.PageVisitPage
	Pager pager
}

func (s *Server) AdminPageVisitsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		view := pageVisitsView{}
		page, err := activity.NewService(sess.Client).PageVisits(r.Context(), activity.ListParams{
			Page:  queryInt(r, "page", 1),
			Limit: queryInt(r, "limit", paging.DefaultLimit),
		})
		if err == nil {
			view.Page = page
			view.Pager = newPager(r, page.Window)
		}
		s.renderAdminPage(w, r, "page-visits", "Page Visits", "page_visits.html", view, err, 0)
	}
}

// AdminSystemHandler shows backend health and refreshes itself on the status interval.
func (s *Server) AdminSystemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		st, err := system.NewService(sess.Client).Status(r.Context())
		s.renderAdminPage(w, r, "system", "System Status", "system.html", st, err, s.config.GetStatusPollInterval())
	}
}

type e2eView struct {
	Results  *e2etests.Results
	Stats    *e2etests.Stats
	InFlight bool
}

// AdminE2EHandler shows recent runs. While a run is in flight the page refreshes
// itself on the e2e poll interval, and stops once the backend reports idle.
func (s *Server) AdminE2EHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		results, stats, inFlight, err := e2etests.NewService(sess.Client).Snapshot(r.Context(), queryInt(r, "limit", e2etests.DefaultLimit))
		view := e2eView{Results: results, Stats: stats, InFlight: inFlight}

		var refresh time.Duration
		if inFlight {
			refresh = s.config.GetE2EPollInterval()
		}
		s.renderAdminPage(w, r, "e2e-tests", "E2E Tests", "e2e_tests.html", view, err, refresh)
	}
}

type supportListView struct {
	Page     *support.Page
	Pager    pager
	Status   string
	Statuses []string
}

func (s *Server) AdminSupportListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		view := supportListView{
			Status:   r.URL.Query().Get("status"),
			Statuses: support.Statuses,
		}
		page, err := support.NewService(sess.Client).Threads(r.Context(), support.ListParams{
			Page:   queryInt(r, "page", 1),
			Limit:  queryInt(r, "limit", paging.DefaultLimit),
			Status: view.Status,
		})
		if err == nil {
			view.Page = page
			view.Pager = newPager(r, page.Window)
		}
		s.renderAdminPage(w, r, "support", "Support", "support.html", view, err, 0)
	}
}

type supportThreadView struct {
	Thread   *support.Thread
	Statuses []string
}

func (s *Server) AdminSupportThreadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		thread, err := support.NewService(sess.Client).Thread(r.Context(), r.PathValue("id"))
		view := supportThreadView{Thread: thread, Statuses: support.Statuses}
		s.renderAdminPage(w, r, "support", "Support Thread", "support_thread.html", view, err, 0)
	}
}

func supportThreadURL(id string) string {
	return RouteAdminSupport + "/" + url.PathEscape(id)
}
