package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/spf13/cobra"
)

const passwordEnvVar = "CLIENTHUNT_PASSWORD"

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator and store the credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw := utils.FirstNonEmpty(password, os.Getenv(passwordEnvVar))
			if pw == "" {
				var err error
				if pw, err = readPassword(cmd.InOrStdin(), a.stderr); err != nil {
					return err
				}
			}
			if err := a.auth.Login(cmd.Context(), email, pw); err != nil {
				return err
			}
			user := a.auth.State().User
			return a.printer.success(fmt.Sprintf("Logged in as %s (%s)", user.DisplayName(), user.Email))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Password (env "+passwordEnvVar+", otherwise read from stdin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "[clienthunt login] read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.auth.Logout(cmd.Context())
			return a.printer.success("Logged out")
		},
	}
}

type whoami struct {
	User      *users.User `json:"user"`
	ExpiresAt string      `json:"expires_at,omitempty"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "whoami",
		Short:             "Show the signed-in administrator",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.adminPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.tokens.Load()
			if err != nil {
				return err
			}
			if err := a.auth.FetchUser(cmd.Context()); err != nil {
				return err
			}
			out := whoami{User: a.auth.State().User}
			if exp, ok := session.AccessTokenExpiry(tok.AccessToken); ok {
				out.ExpiresAt = exp.Local().Format("2006-01-02 15:04")
			}
			return a.printer.print(out, func(w *tabwriter.Writer) {
				row(w, "NAME", out.User.DisplayName())
				row(w, "EMAIL", out.User.Email)
				row(w, "ID", out.User.ID)
				row(w, "EXPIRES", utils.FirstNonEmpty(out.ExpiresAt, "-"))
			})
		},
	}
}
