package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t       *testing.T
	backend *fakebackend.Backend
	dir     string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	fb := fakebackend.New()
	t.Cleanup(fb.Close)
	return &cli{t: t, backend: fb, dir: t.TempDir()}
}

// run executes one command the way a separate process would: fresh client,
// fresh tab store, only the credentials file carried over.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api-url", c.backend.URL, "--config-dir", c.dir}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) login() {
	c.t.Helper()
	c.mustRun("login", "--email", fakebackend.AdminEmail, "--password", fakebackend.AdminPassword)
}

func TestLogin(t *testing.T) {
	t.Run("stores sealed credentials", func(t *testing.T) {
		c := newCLI(t)
		out := c.mustRun("login", "--email", fakebackend.AdminEmail, "--password", fakebackend.AdminPassword)
		require.Contains(t, out, "Logged in as Ada Admin")

		raw, err := os.ReadFile(filepath.Join(c.dir, credentialsFile))
		require.NoError(t, err)
		require.NotContains(t, string(raw), "access_token")

		out = c.mustRun("whoami")
		require.Contains(t, out, fakebackend.AdminEmail)
	})

	t.Run("password from stdin", func(t *testing.T) {
		c := newCLI(t)
		out, err := c.run(fakebackend.AdminPassword+"\n", "login", "--email", fakebackend.AdminEmail)
		require.NoError(t, err)
		require.Contains(t, out, "Logged in")
	})

	t.Run("wrong password", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "login", "--email", fakebackend.AdminEmail, "--password", "nope")
		require.Error(t, err)
		require.Equal(t, "Incorrect email or password (HTTP 401)", errorMessage(err))
	})

	t.Run("non-admin refused", func(t *testing.T) {
		c := newCLI(t)
		_, err := c.run("", "login", "--email", fakebackend.MemberEmail, "--password", fakebackend.MemberPass)
		require.True(t, errors.Is(err, errors.ErrNotAdmin))
		require.Equal(t, auth.AccessDeniedMsg, errorMessage(err))

		_, err = os.Stat(filepath.Join(c.dir, credentialsFile))
		require.True(t, os.IsNotExist(err))
	})
}

func TestLogout(t *testing.T) {
	c := newCLI(t)
	c.login()
	require.Contains(t, c.mustRun("logout"), "Logged out")

	_, err := c.run("", "users", "list")
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))
	require.Contains(t, errorMessage(err), "clienthunt login")
	require.Equal(t, 1, c.backend.Count("POST /api/v1/auth/logout"))
}

func TestAdminCommandsNeedLogin(t *testing.T) {
	c := newCLI(t)
	for _, args := range [][]string{
		{"whoami"},
		{"users", "list"},
		{"analytics", "overview"},
		{"status"},
		{"e2e", "stats"},
		{"support", "list"},
	} {
		_, err := c.run("", args...)
		require.Error(t, err, args)
		require.Equal(t, "not logged in, run `clienthunt login` first", errorMessage(err))
	}
	require.Empty(t, c.backend.Requests())
}

func TestUsers(t *testing.T) {
	c := newCLI(t)
	c.login()

	t.Run("list as json", func(t *testing.T) {
		out := c.mustRun("users", "list", "-o", "json")
		var page struct {
			Users []map[string]any `json:"users"`
			Total int              `json:"total"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &page))
		require.Len(t, page.Users, 20)
		require.Equal(t, 57, page.Total)
	})

	t.Run("last page", func(t *testing.T) {
		out := c.mustRun("users", "list", "--page", "3")
		require.Contains(t, out, "Page 3 of 3 (57 total)")
		last, ok := c.backend.Last("GET /api/v1/admin/users")
		require.True(t, ok)
		require.Contains(t, last.Query, "skip=40")
	})

	t.Run("bad status filter", func(t *testing.T) {
		_, err := c.run("", "users", "list", "--status", "sleepy")
		require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	})

	t.Run("ban with reason", func(t *testing.T) {
		out := c.mustRun("users", "ban", "5", "--reason", "spam", "-o", "json")
		var u map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &u))
		require.Equal(t, true, u["is_banned"])
		require.Equal(t, "spam", u["ban_reason"])

		last, _ := c.backend.Last("POST /api/v1/admin/users/5/ban")
		require.NotEmpty(t, last.Header.Get(fakebackend.CSRFHeaderName))
	})

	t.Run("verify email", func(t *testing.T) {
		out := c.mustRun("users", "verify-email", "6")
		require.Contains(t, out, "yes")
	})

	t.Run("email", func(t *testing.T) {
		out := c.mustRun("users", "email", "7", "--subject", "Hello", "--body", "Welcome aboard")
		require.Contains(t, out, "Email sent to user 7")
		require.Len(t, c.backend.EmailsSent(), 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.Contains(t, c.mustRun("users", "delete", "8"), "User 8 deleted")
		_, ok := c.backend.User(8)
		require.False(t, ok)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := c.run("", "users", "activate", "9999")
		require.Equal(t, "User not found (HTTP 404)", errorMessage(err))
	})
}

func TestReports(t *testing.T) {
	c := newCLI(t)
	c.login()

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"analytics", "overview"}, []string{"Total users", "$98765.43", "2.5%"}},
		{[]string{"analytics", "revenue", "--days", "7"}, []string{"last 7 days", "$1234.50"}},
		{[]string{"analytics", "users", "--days", "5"}, []string{"Signups, last 5 days: 10"}},
		{[]string{"analytics", "subscriptions"}, []string{"enterprise", "canceled"}},
		{[]string{"subscriptions"}, []string{"Page 1 of 2 (23 total)"}},
		{[]string{"audit-logs", "--page", "3"}, []string{"email.send", "Page 3 of 3 (42 total)"}},
		{[]string{"page-visits"}, []string{"/pricing", "anonymous"}},
		{[]string{"status"}, []string{"Degraded", "1.4.2", "slow responses"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out := c.mustRun(tt.args...)
			for _, want := range tt.want {
				require.Contains(t, out, want)
			}
		})
	}

	t.Run("backend failure", func(t *testing.T) {
		c.backend.FailWith("GET /api/v1/admin/analytics/overview", http.StatusInternalServerError)
		defer c.backend.FailWith("GET /api/v1/admin/analytics/overview", 0)
		_, err := c.run("", "analytics", "overview")
		require.Equal(t, "Internal Server Error (HTTP 500)", errorMessage(err))
	})

	t.Run("yaml", func(t *testing.T) {
		out := c.mustRun("status", "-o", "yaml")
		require.Contains(t, out, "uptime_seconds: 86400")
	})
}

func TestE2E(t *testing.T) {
	c := newCLI(t)
	c.login()

	require.Contains(t, c.mustRun("e2e", "results"), "timeout waiting for #pay")
	require.Contains(t, c.mustRun("e2e", "stats"), "50.0%")

	t.Run("run and watch", func(t *testing.T) {
		go func() {
			time.Sleep(50 * time.Millisecond)
			c.backend.SetRunning(false)
		}()
		out := c.mustRun("e2e", "run", "--watch", "--interval", "10ms")
		require.Contains(t, out, "E2E run started")
		require.Contains(t, out, "login flow")
	})

	require.Contains(t, c.mustRun("e2e", "clear"), "Cleared 2 results")
}

func TestSupport(t *testing.T) {
	c := newCLI(t)
	c.login()

	require.Contains(t, c.mustRun("support", "list", "--status", "open"), "Cannot export leads")
	require.Contains(t, c.mustRun("support", "show", "10"), "Export **fails**")
	require.Contains(t, c.mustRun("support", "reply", "10", "-m", "Fixed in **1.4.3**"), "Reply sent")
	require.Contains(t, c.mustRun("support", "show", "10"), "(admin)")
	require.Contains(t, c.mustRun("support", "status", "10", "resolved"), "Thread 10 marked resolved")

	_, err := c.run("", "support", "status", "10", "sleeping")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
