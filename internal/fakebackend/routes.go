package fakebackend

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body := b.record(r)
	key := r.Method + " " + r.URL.Path

	b.mu.Lock()
	custom := b.customPaths[key]
	failStatus := b.failStatus[key]
	b.mu.Unlock()

	if custom != nil {
		custom(w, r)
		return
	}
	if failStatus != 0 {
		writeDetail(w, failStatus, http.StatusText(failStatus))
		return
	}

	if r.URL.Path == "/api/v1/auth/login" && r.Method == http.MethodPost {
		b.login(w, r, body)
		return
	}

	userID, ok := b.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if isMutating(r.Method) && !b.checkCSRF(w, r) {
		return
	}

	b.route(w, r, body, userID)
}

func (b *Backend) authenticate(r *http.Request) (int, bool) {
	h := r.Header.Get("Authorization")
	tok, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return 0, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[tok]
	return id, ok
}

func (b *Backend) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	b.mu.Lock()
	enforce := b.EnforceCSRF
	forced := b.rejectCSRF > 0
	if forced {
		b.rejectCSRF--
	}
	b.mu.Unlock()

	if !enforce && !forced {
		return true
	}
	header := r.Header.Get(CSRFHeaderName)
	valid := false
	if !forced && header != "" {
		b.mu.Lock()
		valid = b.csrfTokens[header]
		b.mu.Unlock()
		if ck, err := r.Cookie(CSRFCookieName); err == nil && ck.Value != header {
			valid = false
		}
	}
	if valid {
		return true
	}
	b.mu.Lock()
	msg, code := b.CSRFMessage, b.CSRFCode
	b.mu.Unlock()
	resp := map[string]any{"detail": msg}
	if code != "" {
		resp["code"] = code
	}
	writeJSON(w, http.StatusForbidden, resp)
	return false
}

func (b *Backend) login(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": "invalid JSON body", "type": "value_error"}},
		})
		return
	}
	b.mu.Lock()
	acct, ok := b.accounts[strings.ToLower(req.Email)]
	if !ok || acct.Password != req.Password {
		b.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	access, refresh, csrf := randomToken(), randomToken(), randomToken()
	b.tokens[access] = toInt(acct.User["id"])
	b.csrfTokens[csrf] = true
	setCookie := b.SetCSRFCookieOnLogin
	user := copyMap(acct.User)
	b.mu.Unlock()

	if setCookie {
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: csrf, Path: "/"})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"csrf_token":    csrf,
		"token_type":    "bearer",
		"user":          user,
	})
}

func (b *Backend) route(w http.ResponseWriter, r *http.Request, body []byte, userID int) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/csrf-token" && r.Method == http.MethodGet:
		b.mu.Lock()
		disabled := b.DisableCSRFEndpoint
		b.mu.Unlock()
		if disabled {
			writeDetail(w, http.StatusInternalServerError, "CSRF endpoint unavailable")
			return
		}
		tok := b.IssueCSRFToken()
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: tok, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"csrf_token": tok})
	case path == "/api/v1/auth/logout" && r.Method == http.MethodPost:
		b.mu.Lock()
		tok, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		delete(b.tokens, tok)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
	case path == "/api/v1/users/me" && r.Method == http.MethodGet:
		u, ok := b.User(userID)
		if !ok {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, u)
	case strings.HasPrefix(path, "/api/v1/admin/") || strings.HasPrefix(path, "/api/v1/e2e-tests"):
		if !b.isAdmin(userID) {
			writeDetail(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		b.routeAdmin(w, r, body)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (b *Backend) isAdmin(userID int) bool {
	u, ok := b.User(userID)
	if !ok {
		return false
	}
	admin, _ := u["is_admin"].(bool)
	return admin
}

func (b *Backend) routeAdmin(w http.ResponseWriter, r *http.Request, body []byte) {
	path := strings.TrimPrefix(r.URL.EscapedPath(), "/api/v1")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	q := r.URL.Query()

	switch {
	case path == "/admin/users" && r.Method == http.MethodGet:
		b.listUsers(w, q.Get("search"), q.Get("status"), atoi(q.Get("skip"), 0), atoi(q.Get("limit"), 20))
	case len(parts) == 4 && parts[1] == "users" && r.Method == http.MethodDelete:
		b.deleteUser(w, atoi(parts[2], -1), parts[3])
	case len(parts) == 3 && parts[1] == "users" && r.Method == http.MethodDelete:
		b.deleteUser(w, atoi(parts[2], -1), "")
	case len(parts) == 4 && parts[1] == "users" && r.Method == http.MethodPost:
		b.userAction(w, atoi(parts[2], -1), parts[3], body)
	case path == "/admin/analytics/overview":
		writeJSON(w, http.StatusOK, b.overview())
	case path == "/admin/analytics/revenue":
		days := atoi(q.Get("days"), 30)
		writeJSON(w, http.StatusOK, map[string]any{"days": days, "total": 1234.5, "currency": "USD", "data": series(days, "amount", 41.15)})
	case path == "/admin/analytics/users":
		days := atoi(q.Get("days"), 30)
		writeJSON(w, http.StatusOK, map[string]any{"days": days, "total_signups": days * 2, "data": series(days, "signups", 2)})
	case path == "/admin/analytics/subscriptions":
		writeJSON(w, http.StatusOK, map[string]any{"total": 57, "by_tier": map[string]int{"free": 40, "pro": 12, "enterprise": 5}, "by_status": map[string]int{"active": 17, "canceled": 3}})
	case path == "/admin/subscriptions":
		b.listSubscriptions(w, atoi(q.Get("skip"), 0), atoi(q.Get("limit"), 20), q.Get("status"))
	case path == "/admin/audit-logs":
		b.listAuditLogs(w, atoi(q.Get("skip"), 0), atoi(q.Get("limit"), 20))
	case path == "/admin/page-visits":
		b.listPageVisits(w, atoi(q.Get("skip"), 0), atoi(q.Get("limit"), 20))
	case path == "/admin/status":
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "healthy",
			"version":        "1.4.2",
			"uptime_seconds": 86400,
			"checked_at":     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"components": []map[string]any{
				{"name": "database", "status": "healthy", "latency_ms": 3.2},
				{"name": "redis", "status": "healthy", "latency_ms": 0.8},
				{"name": "stripe", "status": "degraded", "latency_ms": 950, "message": "slow responses"},
			},
		})
	case path == "/e2e-tests/results" && r.Method == http.MethodGet:
		b.mu.Lock()
		results := append([]map[string]any(nil), b.e2eResults...)
		b.mu.Unlock()
		if limit := atoi(q.Get("limit"), 0); limit > 0 && limit < len(results) {
			results = results[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
	case path == "/e2e-tests/stats" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, b.e2eStats())
	case path == "/e2e-tests/run" && r.Method == http.MethodPost:
		b.mu.Lock()
		b.e2eRunning = true
		b.mu.Unlock()
		writeJSON(w, http.StatusAccepted, map[string]any{"run_id": "run-3", "status": "running", "message": "E2E run started"})
	case path == "/e2e-tests/clear" && r.Method == http.MethodDelete:
		b.mu.Lock()
		n := len(b.e2eResults)
		b.e2eResults = nil
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
	case path == "/admin/support/threads" && r.Method == http.MethodGet:
		b.listThreads(w, q.Get("status"), atoi(q.Get("skip"), 0), atoi(q.Get("limit"), 20))
	case len(parts) == 4 && parts[2] == "threads" && r.Method == http.MethodGet:
		b.getThread(w, atoi(parts[3], -1))
	case len(parts) == 5 && parts[2] == "threads" && parts[4] == "messages" && r.Method == http.MethodPost:
		b.replyThread(w, atoi(parts[3], -1), body)
	case len(parts) == 5 && parts[2] == "threads" && parts[4] == "status" && r.Method == http.MethodPut:
		b.setThreadStatus(w, atoi(parts[3], -1), body)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (b *Backend) listUsers(w http.ResponseWriter, search, status string, skip, limit int) {
	b.mu.Lock()
	var matched []map[string]any
	for _, u := range b.users {
		if search != "" {
			s := strings.ToLower(search)
			email, _ := u["email"].(string)
			name, _ := u["full_name"].(string)
			if !strings.Contains(strings.ToLower(email), s) && !strings.Contains(strings.ToLower(name), s) {
				continue
			}
		}
		if status != "" && userStatus(u) != status {
			continue
		}
		matched = append(matched, copyMap(u))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"users": window(matched, skip, limit), "total": len(matched)})
}

func userStatus(u map[string]any) string {
	if banned, _ := u["is_banned"].(bool); banned {
		return "banned"
	}
	if active, _ := u["is_active"].(bool); !active {
		return "inactive"
	}
	return "active"
}

func (b *Backend) userAction(w http.ResponseWriter, id int, action string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.findUserLocked(id)
	if u == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	switch action {
	case "activate":
		u["is_active"] = true
	case "deactivate":
		u["is_active"] = false
	case "ban":
		var req struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &req)
		u["is_banned"] = true
		u["ban_reason"] = req.Reason
	case "unban":
		u["is_banned"] = false
		delete(u, "ban_reason")
	case "verify-email":
		u["is_verified"] = true
	case "send-email":
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil || req["subject"] == "" || req["subject"] == nil {
			writeDetail(w, http.StatusBadRequest, "subject is required")
			return
		}
		req["user_id"] = id
		b.emailsSent = append(b.emailsSent, req)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Email sent"})
		return
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, copyMap(u))
}

func (b *Backend) deleteUser(w http.ResponseWriter, id int, suffix string) {
	if suffix != "" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, u := range b.users {
		if toInt(u["id"]) == id {
			b.users = append(b.users[:i], b.users[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (b *Backend) findUserLocked(id int) map[string]any {
	for _, u := range b.users {
		if toInt(u["id"]) == id {
			return u
		}
	}
	return nil
}

func (b *Backend) overview() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	active := 0
	for _, u := range b.users {
		if userStatus(u) == "active" {
			active++
		}
	}
	return map[string]any{
		"total_users":          len(b.users),
		"active_users":         active,
		"new_users_today":      4,
		"total_revenue":        98765.43,
		"mrr":                  4321.0,
		"active_subscriptions": 17,
		"churn_rate":           2.5,
	}
}

func (b *Backend) listSubscriptions(w http.ResponseWriter, skip, limit int, status string) {
	var subs []map[string]any
	for i := 0; i < 23; i++ {
		s := map[string]any{
			"id":                 i + 1,
			"user_email":         "user" + strconv.Itoa(i) + "@example.com",
			"tier":               []string{"pro", "enterprise"}[i%2],
			"status":             []string{"active", "canceled", "past_due"}[i%3],
			"amount":             float64(29 + i),
			"currency":           "usd",
			"current_period_end": time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"created_at":         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		}
		if status != "" && s["status"] != status {
			continue
		}
		subs = append(subs, s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": window(subs, skip, limit), "total": len(subs)})
}

func (b *Backend) listAuditLogs(w http.ResponseWriter, skip, limit int) {
	var logs []map[string]any
	for i := 0; i < 42; i++ {
		logs = append(logs, map[string]any{
			"id":          i + 1,
			"admin_email": AdminEmail,
			"action":      []string{"user.ban", "user.activate", "email.send"}[i%3],
			"target_type": "user",
			"target_id":   strconv.Itoa(i + 3),
			"details":     map[string]any{"reason": "spam"},
			"ip_address":  "10.0.0.1",
			"created_at":  time.Date(2025, 2, 1, 10, i%60, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": window(logs, skip, limit), "total": len(logs)})
}

func (b *Backend) listPageVisits(w http.ResponseWriter, skip, limit int) {
	var visits []map[string]any
	for i := 0; i < 7; i++ {
		visits = append(visits, map[string]any{
			"id":         i + 1,
			"path":       []string{"/", "/pricing", "/signup"}[i%3],
			"user_email": nil,
			"ip_address": "192.0.2.1",
			"user_agent": "Mozilla/5.0",
			"referrer":   "https://example.com",
			"created_at": time.Date(2025, 2, 2, 8, i, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": window(visits, skip, limit), "total": len(visits)})
}

func (b *Backend) e2eStats() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	passed, failed := 0, 0
	for _, r := range b.e2eResults {
		switch r["status"] {
		case "passed":
			passed++
		case "failed":
			failed++
		}
	}
	total := len(b.e2eResults)
	rate := 0.0
	if total > 0 {
		rate = float64(passed) * 100 / float64(total)
	}
	return map[string]any{
		"total_runs": total,
		"passed":     passed,
		"failed":     failed,
		"pass_rate":  rate,
		"is_running": b.e2eRunning,
		"running":    boolToInt(b.e2eRunning),
	}
}

func (b *Backend) listThreads(w http.ResponseWriter, status string, skip, limit int) {
	b.mu.Lock()
	var out []map[string]any
	for _, t := range b.threads {
		if status != "" && t["status"] != status {
			continue
		}
		cp := copyMap(t)
		msgs, _ := t["messages"].([]map[string]any)
		cp["message_count"] = len(msgs)
		delete(cp, "messages")
		out = append(out, cp)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"threads": window(out, skip, limit), "total": len(out)})
}

func (b *Backend) findThreadLocked(id int) map[string]any {
	for _, t := range b.threads {
		if toInt(t["id"]) == id {
			return t
		}
	}
	return nil
}

func (b *Backend) getThread(w http.ResponseWriter, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.findThreadLocked(id)
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Thread not found")
		return
	}
	writeJSON(w, http.StatusOK, copyMap(t))
}

func (b *Backend) replyThread(w http.ResponseWriter, id int, body []byte) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeDetail(w, http.StatusBadRequest, "content is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.findThreadLocked(id)
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Thread not found")
		return
	}
	msgs, _ := t["messages"].([]map[string]any)
	msg := map[string]any{
		"id":         1000 + len(msgs),
		"author":     AdminEmail,
		"is_admin":   true,
		"content":    req.Content,
		"created_at": time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	t["messages"] = append(msgs, msg)
	writeJSON(w, http.StatusCreated, msg)
}

func (b *Backend) setThreadStatus(w http.ResponseWriter, id int, body []byte) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Status == "" {
		writeDetail(w, http.StatusBadRequest, "status is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.findThreadLocked(id)
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Thread not found")
		return
	}
	t["status"] = req.Status
	cp := copyMap(t)
	delete(cp, "messages")
	writeJSON(w, http.StatusOK, cp)
}

func series(days int, field string, per float64) []map[string]any {
	if days > 366 {
		days = 366
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]map[string]any, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, map[string]any{"date": start.AddDate(0, 0, i).Format("2006-01-02"), field: per})
	}
	return out
}

func window(items []map[string]any, skip, limit int) []map[string]any {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []map[string]any{}
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}

func copyMap(m map[string]any) map[string]any {
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func atoi(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
