package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/clienthunt-admin/e2etests"
	"github.com/jrsteele09/clienthunt-admin/server/loginsession"
	"github.com/jrsteele09/clienthunt-admin/support"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/rs/zerolog/log"
)

var actionMessages = map[users.Action]string{
	users.ActionActivate:    "User activated",
	users.ActionDeactivate:  "User deactivated",
	users.ActionBan:         "User banned",
	users.ActionUnban:       "User unbanned",
	users.ActionVerifyEmail: "Email marked as verified",
}

// reportResult turns the outcome of a form post into a toast for the session.
func reportResult(sess *loginsession.Session, op string, err error, success string) {
	if err != nil {
		log.Info().Err(err).Str("op", op).Msg("admin action failed")
		sess.Bus.Error(userMessage(err))
		return
	}
	sess.Bus.Success(success)
}

// AdminUserActionHandler handles POST /admin/users/{id}/{action}, including
// delete and email, then returns to the list the form was posted from.
func (s *Server) AdminUserActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		svc := users.NewService(sess.Client)
		id := r.PathValue("id")
		action := r.PathValue("action")
		returnTo := safeReturnPath(r.PostFormValue("return"), RouteAdminUsers)

		switch action {
		case userActionDelete:
			reportResult(sess, "delete user", svc.Delete(r.Context(), id), "User deleted")

		case userActionEmail:
			email := users.Email{
				Subject: strings.TrimSpace(r.PostFormValue("subject")),
				Body:    strings.TrimSpace(r.PostFormValue("body")),
			}
			if email.Subject == "" || email.Body == "" {
				sess.Bus.Warning("Subject and message are both required")
				break
			}
			reportResult(sess, "send email", svc.SendEmail(r.Context(), id, email), "Email sent")

		default:
			a, ok := users.ParseAction(action)
			if !ok {
				http.Error(w, "404 - Unknown action", http.StatusNotFound)
				return
			}
			_, err := svc.Apply(r.Context(), id, a, strings.TrimSpace(r.PostFormValue("reason")))
			reportResult(sess, string(a), err, actionMessages[a])
		}

		redirectSuccess(w, r, returnTo)
	}
}

// AdminE2ERunHandler starts a run; the results page then refreshes until it finishes.
func (s *Server) AdminE2ERunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		resp, err := e2etests.NewService(sess.Client).Run(r.Context())
		msg := "E2E test run started"
		if err == nil && resp.Message != "" {
			msg = resp.Message
		}
		reportResult(sess, "run e2e tests", err, msg)
		redirectSuccess(w, r, RouteAdminE2E)
	}
}

func (s *Server) AdminE2EClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		resp, err := e2etests.NewService(sess.Client).Clear(r.Context())
		msg := ""
		if err == nil {
			msg = fmt.Sprintf("Cleared %d results", resp.Deleted)
		}
		reportResult(sess, "clear e2e results", err, msg)
		redirectSuccess(w, r, RouteAdminE2E)
	}
}

func (s *Server) AdminSupportReplyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		id := r.PathValue("id")
		content := strings.TrimSpace(r.PostFormValue("content"))
		if content == "" {
			sess.Bus.Warning("Reply cannot be empty")
		} else {
			_, err := support.NewService(sess.Client).Reply(r.Context(), id, content)
			reportResult(sess, "support reply", err, "Reply sent")
		}
		redirectSuccess(w, r, supportThreadURL(id))
	}
}

func (s *Server) AdminSupportStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		id := r.PathValue("id")
		status := r.PostFormValue("status")
		_, err := support.NewService(sess.Client).SetStatus(r.Context(), id, status)
		reportResult(sess, "support status", err, "Thread marked "+status)
		redirectSuccess(w, r, supportThreadURL(id))
	}
}
