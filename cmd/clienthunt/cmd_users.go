package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/spf13/cobra"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and manage user accounts",
		PersistentPreRunE: a.adminPreRun,
	}
	cmd.AddCommand(newUsersListCmd(a), newUsersDeleteCmd(a), newUsersEmailCmd(a))
	for _, action := range users.Actions {
		cmd.AddCommand(newUserActionCmd(a, action))
	}
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var params users.ListParams
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = users.Status(strings.ToLower(status))
			switch params.Status {
			case users.StatusAny, users.StatusActive, users.StatusInactive, users.StatusBanned:
			default:
				return errors.Wrapf(errors.ErrInvalidRequest, "unknown status %q (want active, inactive or banned)", status)
			}
			page, err := users.NewService(a.client).List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.printer.print(page, func(w *tabwriter.Writer) {
				row(w, "ID", "EMAIL", "NAME", "STATUS", "VERIFIED", "TIER", "LAST LOGIN")
				for i := range page.Users {
					u := &page.Users[i]
					row(w, u.ID, u.Email, u.FullName, u.Status(), yesNo(u.IsVerified),
						u.SubscriptionTier, u.LastLogin.Format("2006-01-02"))
				}
				pageFooter(w, page.Window.Page, page.Window.TotalPages, page.Window.Total)
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Users per page (default 20)")
	cmd.Flags().StringVar(&params.Search, "search", "", "Filter by email or name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: active|inactive|banned")
	return cmd
}

// newUserActionCmd builds one subcommand per users.Action.
func newUserActionCmd(a *app, action users.Action) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   string(action) + " <id>",
		Short: strings.ReplaceAll(titleCase(string(action)), "-", " ") + " a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := users.NewService(a.client).Apply(cmd.Context(), args[0], action, reason)
			if err != nil {
				return err
			}
			return a.printer.print(u, func(w *tabwriter.Writer) {
				row(w, "ID", "EMAIL", "STATUS", "VERIFIED")
				row(w, u.ID, u.Email, u.Status(), yesNo(u.IsVerified))
			})
		},
	}
	if action == users.ActionBan {
		cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the ban")
	}
	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := users.NewService(a.client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer.success(fmt.Sprintf("User %s deleted", args[0]))
		},
	}
}

func newUsersEmailCmd(a *app) *cobra.Command {
	var email users.Email
	cmd := &cobra.Command{
		Use:   "email <id>",
		Short: "Send an email to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := users.NewService(a.client).SendEmail(cmd.Context(), args[0], email); err != nil {
				return err
			}
			return a.printer.success(fmt.Sprintf("Email sent to user %s", args[0]))
		},
	}
	cmd.Flags().StringVar(&email.Subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&email.Body, "body", "", "Email body")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
