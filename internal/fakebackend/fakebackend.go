// Package fakebackend is an in-process stand-in for the ClientHunt REST API.
// It enforces bearer auth and the CSRF double-submit check the real backend
// performs, keeps its data in memory, and records every request so tests can
// assert on what the console sent.
package fakebackend

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/session"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"

	AdminEmail    = "admin@clienthunt.io"
	AdminPassword = "admin-password"
	MemberEmail   = "member@clienthunt.io"
	MemberPass    = "member-password"
)

// RecordedRequest is what the backend saw for one request.
type RecordedRequest struct {
	Method  string
	Path    string
	RawPath string // as sent on the wire, before unescaping
	Query   string
	Header  http.Header
	Body    []byte
}

type account struct {
	User     map[string]any
	Password string
}

// Backend is the fake server. Exported fields may be changed between requests.
type Backend struct {
	*httptest.Server

	mu sync.Mutex

	// CSRFMessage is the detail returned when the CSRF check fails.
	CSRFMessage string
	// CSRFCode, when set, is returned as a structured "code" next to the detail.
	CSRFCode string
	// DisableCSRFEndpoint makes GET /api/v1/csrf-token answer 500.
	DisableCSRFEndpoint bool
	// EnforceCSRF turns the double-submit check on for mutating requests.
	EnforceCSRF bool
	// SetCSRFCookieOnLogin controls whether login sets the csrf cookie.
	SetCSRFCookieOnLogin bool

	rejectCSRF  int
	failStatus  map[string]int
	requests    []RecordedRequest
	tokens      map[string]int // access token -> user id
	csrfTokens  map[string]bool
	accounts    map[string]*account
	users       []map[string]any
	nextUserID  int
	threads     []map[string]any
	e2eResults  []map[string]any
	e2eRunning  bool
	emailsSent  []map[string]any
	customPaths map[string]http.HandlerFunc
}

// New starts a backend seeded with one admin, one non-admin member and a
// list of ordinary users. Call Close when done.
func New() *Backend {
	b := &Backend{
		CSRFMessage:          "CSRF token missing or invalid",
		EnforceCSRF:          true,
		SetCSRFCookieOnLogin: true,
		failStatus:           map[string]int{},
		tokens:               map[string]int{},
		csrfTokens:           map[string]bool{},
		accounts:             map[string]*account{},
		customPaths:          map[string]http.HandlerFunc{},
	}
	b.seed()
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

func (b *Backend) seed() {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	admin := map[string]any{"id": 1, "email": AdminEmail, "full_name": "Ada Admin", "is_active": true, "is_admin": true, "is_verified": true, "is_banned": false, "subscription_tier": "enterprise", "created_at": created.Format(time.RFC3339)}
	member := map[string]any{"id": 2, "email": MemberEmail, "full_name": "Max Member", "is_active": true, "is_admin": false, "is_verified": true, "is_banned": false, "subscription_tier": "free", "created_at": created.Format(time.RFC3339)}
	b.accounts[AdminEmail] = &account{User: admin, Password: AdminPassword}
	b.accounts[MemberEmail] = &account{User: member, Password: MemberPass}
	b.users = []map[string]any{admin, member}
	b.nextUserID = 3
	for i := 0; i < 55; i++ {
		b.addUserLocked(fmt.Sprintf("user%02d@example.com", i), fmt.Sprintf("User %02d", i))
	}
	b.threads = []map[string]any{
		{"id": 10, "subject": "Cannot export leads", "status": "open", "user_email": "user01@example.com", "created_at": created.Format(time.RFC3339), "updated_at": created.Format(time.RFC3339),
			"messages": []map[string]any{{"id": 100, "author": "user01@example.com", "is_admin": false, "content": "Export **fails** with `500`", "created_at": created.Format(time.RFC3339)}}},
		{"id": 11, "subject": "Billing question", "status": "closed", "user_email": "user02@example.com", "created_at": created.Format(time.RFC3339), "updated_at": created.Format(time.RFC3339),
			"messages": []map[string]any{}},
	}
	b.e2eResults = []map[string]any{
		{"id": "run-1", "test_name": "login flow", "status": "passed", "duration_ms": 1200, "started_at": created.Format(time.RFC3339)},
		{"id": "run-2", "test_name": "checkout", "status": "failed", "duration_ms": 3400, "error": "timeout waiting for #pay", "started_at": created.Format(time.RFC3339)},
	}
}

func (b *Backend) addUserLocked(email, name string) map[string]any {
	u := map[string]any{"id": b.nextUserID, "email": email, "full_name": name, "is_active": true, "is_admin": false, "is_verified": false, "is_banned": false, "subscription_tier": "free", "created_at": time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)}
	b.nextUserID++
	b.users = append(b.users, u)
	return u
}

// AddAccount registers another account with the given admin flag.
func (b *Backend) AddAccount(email, password string, isAdmin bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.addUserLocked(email, email)
	u["is_admin"] = isAdmin
	b.accounts[strings.ToLower(email)] = &account{User: u, Password: password}
}

// SetAdmin flips the admin flag of an existing account.
func (b *Backend) SetAdmin(email string, isAdmin bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[email]; ok {
		a.User["is_admin"] = isAdmin
	}
}

// RejectCSRF makes the next n mutating requests fail the CSRF check regardless of the token.
func (b *Backend) RejectCSRF(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectCSRF = n
}

// FailWith makes requests to "METHOD /path" answer status with a JSON detail. Zero clears it.
func (b *Backend) FailWith(methodPath string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failStatus, methodPath)
		return
	}
	b.failStatus[methodPath] = status
}

// Handle overrides one "METHOD /path" route.
func (b *Backend) Handle(methodPath string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.customPaths[methodPath] = h
}

// IssueToken logs email in without going through the login endpoint and returns an access token.
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[email]
	if !ok {
		return ""
	}
	tok := randomToken()
	b.tokens[tok] = toInt(a.User["id"])
	return tok
}

// IssueCSRFToken registers a valid CSRF token without setting any cookie.
func (b *Backend) IssueCSRFToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	tok := randomToken()
	b.csrfTokens[tok] = true
	return tok
}

// SetRunning marks an e2e run as in progress or finished.
func (b *Backend) SetRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.e2eRunning = running
}

// Requests returns a copy of everything recorded so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Count returns how many requests matched "METHOD /path".
func (b *Backend) Count(methodPath string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method+" "+r.Path == methodPath {
			n++
		}
	}
	return n
}

// Last returns the most recent request matching "METHOD /path".
func (b *Backend) Last(methodPath string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method+" "+reqs[i].Path == methodPath {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// User returns a copy of the user record with id.
func (b *Backend) User(id int) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if toInt(u["id"]) == id {
			return copyMap(u), true
		}
	}
	return nil, false
}

// EmailsSent returns the send-email payloads received.
func (b *Backend) EmailsSent() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.emailsSent...)
}

func (b *Backend) record(r *http.Request) []byte {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		RawPath: r.URL.EscapedPath(),
		Query:   r.URL.RawQuery,
		Header:  r.Header.Clone(),
		Body:    body,
	})
	b.mu.Unlock()
	return body
}

func randomToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// NewClient returns an API client already holding credentials for email, with
// its own empty tab store.
func (b *Backend) NewClient(email string, opts ...apiclient.ClientOption) (*apiclient.Client, *session.TabStore, error) {
	tokens := session.NewMemoryTokenStore()
	if tok := b.IssueToken(email); tok != "" {
		if err := tokens.Save(session.NewCredentials(tok, "")); err != nil {
			return nil, nil, err
		}
	}
	tab := session.NewTabStore(0)
	c, err := apiclient.New(b.URL, tokens, tab, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, tab, nil
}
